package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/switchboard/internal/agents"
	"github.com/zulandar/switchboard/internal/bot"
	"github.com/zulandar/switchboard/internal/channel"
	discordadapter "github.com/zulandar/switchboard/internal/channel/discord"
	"github.com/zulandar/switchboard/internal/channel/whatsapp"
	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/dialog"
	"github.com/zulandar/switchboard/internal/journal"
	"github.com/zulandar/switchboard/internal/notify"
	"github.com/zulandar/switchboard/internal/report"
	"github.com/zulandar/switchboard/internal/session"
	"github.com/zulandar/switchboard/internal/ticket"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the support bot daemon",
		Long:  "Connects to the configured messaging platform, answers customers, and serves the reporting API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "switchboard.yaml", "path to config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	adapter, err := createAdapter(cfg)
	if err != nil {
		return err
	}

	reg := ticket.NewRegistry(ticket.RegistryOpts{})
	dir, err := buildDirectory(cfg)
	if err != nil {
		return err
	}
	eng, err := dialog.NewEngine(dialog.EngineOpts{
		Tickets: reg,
		Agents:  dir,
		Company: cfg.Company,
	})
	if err != nil {
		return err
	}

	ids := ticket.NewIDGenerator(nil, nil)
	store := session.NewStore(session.StoreOpts{NewID: ids.SessionID})
	jlog := journal.New(cfg.Journal.Capacity)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Slack.BotToken != "" {
		notifier, err = notify.NewSlack(notify.SlackOpts{
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Slack.ChannelID,
		})
		if err != nil {
			return err
		}
	}

	daemon, err := bot.NewDaemon(bot.DaemonOpts{
		Config:     cfg,
		Adapter:    adapter,
		Store:      store,
		Engine:     eng,
		Journal:    jlog,
		Notifier:   notifier,
		Complaints: reg,
		Out:        cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle OS signals for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if cfg.Report.Enabled {
		go func() {
			err := report.Start(ctx, report.StartOpts{
				Tickets:      reg,
				Agents:       dir,
				Interactions: jlog,
				Port:         cfg.Report.Port,
				Out:          cmd.OutOrStdout(),
			})
			if err != nil {
				log.Printf("sb: reporting api: %v", err)
			}
		}()
	}

	return daemon.Run(ctx)
}

// createAdapter builds a platform adapter from the config.
func createAdapter(cfg *config.Config) (channel.Adapter, error) {
	switch cfg.Channel.Platform {
	case "":
		return nil, fmt.Errorf("sb: no platform configured (set channel.platform to whatsapp or discord)")
	case "whatsapp":
		return whatsapp.New(whatsapp.AdapterOpts{
			Token:         cfg.Channel.WhatsApp.Token,
			PhoneNumberID: cfg.Channel.WhatsApp.PhoneNumberID,
			VerifyToken:   cfg.Channel.WhatsApp.VerifyToken,
			ListenAddr:    cfg.Channel.WhatsApp.ListenAddr,
		})
	case "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken: cfg.Channel.Discord.BotToken,
		})
	default:
		return nil, fmt.Errorf("sb: unsupported platform %q", cfg.Channel.Platform)
	}
}

// buildDirectory creates the agent directory from the configured roster, or
// the default roster when none is configured.
func buildDirectory(cfg *config.Config) (*agents.Directory, error) {
	roster := make([]agents.Agent, 0, len(cfg.Agents))
	for _, a := range cfg.Agents {
		roster = append(roster, agents.Agent{
			ID:        a.ID,
			Name:      a.Name,
			Specialty: a.Specialty,
			Category:  a.Category,
			Capacity:  a.Capacity,
		})
	}

	baseWait := agents.DefaultBaseWaits()
	for category, minutes := range cfg.Queue.BaseWaitMinutes {
		baseWait[category] = time.Duration(minutes) * time.Minute
	}

	return agents.NewDirectory(agents.DirectoryOpts{Roster: roster, BaseWait: baseWait})
}
