// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Workers  int     `yaml:"workers"` // polling workers
	AdminIDs []int64 `yaml:"admin_ids"`
	// CommandMarker is the chat host's bot-command prefix. Messages that
	// start with it are never relayed out as SMS.
	CommandMarker string `yaml:"command_marker"`
}

type TwilioConfig struct {
	AccountSID   string        `yaml:"account_sid"`
	AuthToken    string        `yaml:"auth_token"`
	SourceNumber string        `yaml:"source_number"`
	APIURL       string        `yaml:"api_url"` // override for tests
	SendTimeout  time.Duration `yaml:"send_timeout"`
}

type WebhookConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.CommandMarker == "" {
		cfg.Bot.CommandMarker = "/"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Webhook.Port == 0 {
		cfg.Webhook.Port = 8080
	}
	if cfg.Webhook.Path == "" {
		cfg.Webhook.Path = "/sms"
	}
	if cfg.Twilio.APIURL == "" {
		cfg.Twilio.APIURL = "https://api.twilio.com"
	}
	if cfg.Twilio.SendTimeout <= 0 {
		cfg.Twilio.SendTimeout = 10 * time.Second
	}

	// Minimal validation. An empty bot.admin_ids list is valid: it means
	// every admin command is rejected.
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Twilio.AccountSID == "" {
		return nil, errors.New("twilio.account_sid is required")
	}
	if cfg.Twilio.AuthToken == "" {
		return nil, errors.New("twilio.auth_token is required")
	}
	if cfg.Twilio.SourceNumber == "" {
		return nil, errors.New("twilio.source_number is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
