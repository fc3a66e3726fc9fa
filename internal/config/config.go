package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/EgorLis/afkbot/internal/gateway"
)

const defaultStatusPrefix = "афкшу уже"

// Config — проверенные настройки процесса.
type Config struct {
	Token        string
	ChannelID    string // "" — цель не задана
	Activity     gateway.ActivityKind
	StatusPrefix string
	StreamURL    string
	LogLevel     string
	LogFormat    string
	MetricsAddr  string

	// Warnings — замечания о значениях, заменённых на значения по умолчанию.
	Warnings []string
	// Notes — информационные сообщения загрузки; логгер к этому моменту ещё не настроен.
	Notes []string
}

type vars struct {
	Token        string `env:"DISCORD_TOKEN"`
	ChannelID    string `env:"CHANNEL_ID"`
	ActivityType string `env:"ACTIVITY_TYPE" default:"playing"`
	StatusPrefix string `env:"STATUS_PREFIX" default:"афкшу уже"`
	StreamURL    string `env:"STREAM_URL" default:"https://twitch.tv/afk"`
	LogLevel     string `env:"LOG_LEVEL" default:"info"`
	LogFormat    string `env:"LOG_FORMAT" default:"text"`
	MetricsAddr  string `env:"METRICS_ADDR"`
}

func Load() (*Config, error) {
	var note string
	if err := godotenv.Load(); err != nil {
		note = "No .env file found, using environment variables"
	}

	var v vars
	if err := env.Load(&v, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg, err := build(v)
	if err != nil {
		return nil, err
	}
	if note != "" {
		cfg.Notes = append(cfg.Notes, note)
	}
	return cfg, nil
}

func build(v vars) (*Config, error) {
	cfg := &Config{
		Token:        strings.TrimSpace(v.Token),
		StatusPrefix: strings.TrimSpace(v.StatusPrefix),
		StreamURL:    strings.TrimSpace(v.StreamURL),
		LogLevel:     strings.ToLower(strings.TrimSpace(v.LogLevel)),
		LogFormat:    strings.ToLower(strings.TrimSpace(v.LogFormat)),
		MetricsAddr:  strings.TrimSpace(v.MetricsAddr),
	}
	if cfg.Token == "" {
		return nil, errors.New("DISCORD_TOKEN is required")
	}

	if id := strings.TrimSpace(v.ChannelID); id != "" {
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			cfg.warnf("CHANNEL_ID %q is not a valid snowflake, running without a target channel", id)
		} else {
			cfg.ChannelID = id
		}
	}

	kind, ok := gateway.ParseActivityKind(v.ActivityType)
	if !ok {
		cfg.warnf("ACTIVITY_TYPE %q is unknown, using %q", v.ActivityType, kind.String())
	}
	cfg.Activity = kind

	if cfg.StatusPrefix == "" {
		cfg.StatusPrefix = defaultStatusPrefix
		cfg.warnf("STATUS_PREFIX is blank, using %q", cfg.StatusPrefix)
	}
	return cfg, nil
}

func (c *Config) warnf(format string, a ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, a...))
}
