package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zulandar/switchboard/internal/agents"
	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/dialog"
	"github.com/zulandar/switchboard/internal/session"
	"github.com/zulandar/switchboard/internal/ticket"
)

func newChatCmd() *cobra.Command {
	var configPath string
	var name string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot locally",
		Long:  "Runs the conversation engine against stdin/stdout, without any messaging platform. Useful for trying out dialog changes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, configPath, name)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "switchboard.yaml", "path to config file")
	cmd.Flags().StringVarP(&name, "name", "n", "Local Tester", "display name for the test customer")
	return cmd
}

func runChat(cmd *cobra.Command, configPath, name string) error {
	company := "Pension Services"
	var roster []agents.Agent
	if cfg, err := config.Load(configPath); err == nil {
		company = cfg.Company
		for _, a := range cfg.Agents {
			roster = append(roster, agents.Agent{
				ID: a.ID, Name: a.Name, Specialty: a.Specialty,
				Category: a.Category, Capacity: a.Capacity,
			})
		}
	}

	reg := ticket.NewRegistry(ticket.RegistryOpts{})
	dir, err := agents.NewDirectory(agents.DirectoryOpts{Roster: roster, BaseWait: agents.DefaultBaseWaits()})
	if err != nil {
		return err
	}
	eng, err := dialog.NewEngine(dialog.EngineOpts{Tickets: reg, Agents: dir, Company: company})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		fmt.Fprintf(out, "Chatting with %s support. Ctrl-D to quit.\n\n", company)
	}

	sess := &session.Session{
		UserID:      "local",
		State:       session.StateWelcome,
		DisplayName: name,
		ID:          ticket.NewIDGenerator(nil, nil).SessionID(),
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		response, _ := eng.Handle(sess, line)
		fmt.Fprintf(out, "%s\n\n", response)
	}
	if interactive {
		fmt.Fprintln(out, "bye")
	}
	return scanner.Err()
}
