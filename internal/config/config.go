// Package config provides YAML-based configuration loading for Switchboard.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Switchboard configuration, loaded from switchboard.yaml.
type Config struct {
	Company string        `yaml:"company"`
	Channel ChannelConfig `yaml:"channel"`
	Slack   SlackConfig   `yaml:"slack"`
	Report  ReportConfig  `yaml:"report"`
	Archive ArchiveConfig `yaml:"archive"`
	Session SessionConfig `yaml:"session"`
	Journal JournalConfig `yaml:"journal"`
	Agents  []AgentConfig `yaml:"agents"`
	Queue   QueueConfig   `yaml:"queue"`
}

// ChannelConfig selects and configures the customer-facing chat platform.
type ChannelConfig struct {
	Platform string         `yaml:"platform"` // "whatsapp" or "discord"
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Discord  DiscordConfig  `yaml:"discord"`
}

// WhatsAppConfig holds WhatsApp Business Cloud API settings.
type WhatsAppConfig struct {
	Token         string `yaml:"token"`           // Graph API bearer token
	PhoneNumberID string `yaml:"phone_number_id"` // sender phone number ID
	VerifyToken   string `yaml:"verify_token"`    // webhook verification token
	ListenAddr    string `yaml:"listen_addr"`     // webhook bind address
}

// DiscordConfig holds Discord bot settings.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
}

// SlackConfig holds ops-notification settings. Leave empty to disable.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// ReportConfig holds settings for the read-only reporting API.
type ReportConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// ArchiveConfig holds settings for the analytics export database.
type ArchiveConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" or "mysql"
	Path     string `yaml:"path"`   // sqlite file path
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// SessionConfig controls session lifecycle.
type SessionConfig struct {
	TTLHours  int    `yaml:"ttl_hours"`  // 0 disables idle eviction
	SweepCron string `yaml:"sweep_cron"` // 5-field cron for the eviction sweep
}

// JournalConfig controls the interaction log.
type JournalConfig struct {
	Capacity int `yaml:"capacity"`
}

// AgentConfig defines one support agent in the roster.
type AgentConfig struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Specialty string `yaml:"specialty"`
	Category  string `yaml:"category"`
	Capacity  int    `yaml:"capacity"`
}

// QueueConfig holds per-category base wait times in minutes. Estimated wait
// for a queued ticket is base x queue depth.
type QueueConfig struct {
	BaseWaitMinutes map[string]int `yaml:"base_wait_minutes"`
	FollowUpCron    string         `yaml:"follow_up_cron"` // complaint follow-up sweep schedule
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Company == "" {
		c.Company = "Pension Services"
	}
	if c.Channel.WhatsApp.ListenAddr == "" {
		c.Channel.WhatsApp.ListenAddr = ":8000"
	}
	if c.Report.Port == 0 {
		c.Report.Port = 8080
	}
	if c.Archive.Driver == "" {
		c.Archive.Driver = "sqlite"
	}
	if c.Archive.Path == "" {
		c.Archive.Path = "switchboard.db"
	}
	if c.Archive.Host == "" {
		c.Archive.Host = "127.0.0.1"
	}
	if c.Archive.Port == 0 {
		c.Archive.Port = 3306
	}
	if c.Archive.User == "" {
		c.Archive.User = "root"
	}
	if c.Session.SweepCron == "" {
		c.Session.SweepCron = "*/30 * * * *"
	}
	if c.Journal.Capacity == 0 {
		c.Journal.Capacity = 1000
	}
	if c.Queue.FollowUpCron == "" {
		c.Queue.FollowUpCron = "0 * * * *"
	}
	for i := range c.Agents {
		if c.Agents[i].Capacity == 0 {
			c.Agents[i].Capacity = 1
		}
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Channel.Platform {
	case "", "whatsapp", "discord":
	default:
		errs = append(errs, fmt.Sprintf("channel.platform %q is not supported (use whatsapp or discord)", c.Channel.Platform))
	}
	if c.Channel.Platform == "whatsapp" {
		if c.Channel.WhatsApp.Token == "" {
			errs = append(errs, "channel.whatsapp.token is required")
		}
		if c.Channel.WhatsApp.PhoneNumberID == "" {
			errs = append(errs, "channel.whatsapp.phone_number_id is required")
		}
		if c.Channel.WhatsApp.VerifyToken == "" {
			errs = append(errs, "channel.whatsapp.verify_token is required")
		}
	}
	if c.Channel.Platform == "discord" && c.Channel.Discord.BotToken == "" {
		errs = append(errs, "channel.discord.bot_token is required")
	}
	switch c.Archive.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("archive.driver %q is not supported (use sqlite or mysql)", c.Archive.Driver))
	}
	if c.Slack.BotToken != "" && c.Slack.ChannelID == "" {
		errs = append(errs, "slack.channel_id is required when slack.bot_token is set")
	}
	if c.Journal.Capacity < 0 {
		errs = append(errs, "journal.capacity must not be negative")
	}
	if c.Session.TTLHours < 0 {
		errs = append(errs, "session.ttl_hours must not be negative")
	}
	seen := make(map[string]bool)
	for i, a := range c.Agents {
		if a.ID == "" {
			errs = append(errs, fmt.Sprintf("agents[%d].id is required", i))
			continue
		}
		if seen[a.ID] {
			errs = append(errs, fmt.Sprintf("agents[%d].id %q is duplicated", i, a.ID))
		}
		seen[a.ID] = true
		if a.Category == "" {
			errs = append(errs, fmt.Sprintf("agents[%d].category is required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
