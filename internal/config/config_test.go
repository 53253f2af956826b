package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_WithRequiredEnvVars(t *testing.T) {
	os.Setenv("TV_FEED_URL", "https://example.com/feed.csv")
	defer os.Unsetenv("TV_FEED_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Feed.URL != "https://example.com/feed.csv" {
		t.Errorf("Feed.URL = %v, want %v", cfg.Feed.URL, "https://example.com/feed.csv")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	os.Setenv("TV_FEED_URL", "https://example.com/feed.csv")
	defer os.Unsetenv("TV_FEED_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Feed defaults
	if cfg.Feed.Format != FormatAuto {
		t.Errorf("Feed.Format = %v, want %v", cfg.Feed.Format, FormatAuto)
	}
	if cfg.Feed.Timeout != 15*time.Second {
		t.Errorf("Feed.Timeout = %v, want %v", cfg.Feed.Timeout, 15*time.Second)
	}
	if cfg.Feed.ReloadInterval != 5*time.Minute {
		t.Errorf("Feed.ReloadInterval = %v, want %v", cfg.Feed.ReloadInterval, 5*time.Minute)
	}
	if cfg.Feed.URLColumn != 3 {
		t.Errorf("Feed.URLColumn = %v, want %v", cfg.Feed.URLColumn, 3)
	}
	if cfg.Feed.NameColumn != 1 {
		t.Errorf("Feed.NameColumn = %v, want %v", cfg.Feed.NameColumn, 1)
	}
	if cfg.Feed.StartHourColumn != -1 {
		t.Errorf("Feed.StartHourColumn = %v, want %v", cfg.Feed.StartHourColumn, -1)
	}
	if cfg.Feed.ApprovedColumn != -1 {
		t.Errorf("Feed.ApprovedColumn = %v, want %v", cfg.Feed.ApprovedColumn, -1)
	}

	// Player defaults
	if cfg.Player.ShortClipSeconds != 45 {
		t.Errorf("Player.ShortClipSeconds = %v, want %v", cfg.Player.ShortClipSeconds, 45)
	}
	if cfg.Player.LeadInSeconds != 5 {
		t.Errorf("Player.LeadInSeconds = %v, want %v", cfg.Player.LeadInSeconds, 5)
	}
	if cfg.Player.TrailMarginSeconds != 10 {
		t.Errorf("Player.TrailMarginSeconds = %v, want %v", cfg.Player.TrailMarginSeconds, 10)
	}
	if cfg.Player.WindowCapSeconds != 30 {
		t.Errorf("Player.WindowCapSeconds = %v, want %v", cfg.Player.WindowCapSeconds, 30)
	}
	if cfg.Player.Cooldown != 500*time.Millisecond {
		t.Errorf("Player.Cooldown = %v, want %v", cfg.Player.Cooldown, 500*time.Millisecond)
	}

	// Relay defaults
	if cfg.Relay.URLField != "entry.333333" {
		t.Errorf("Relay.URLField = %v, want %v", cfg.Relay.URLField, "entry.333333")
	}
	if cfg.Relay.RateLimit != 1 {
		t.Errorf("Relay.RateLimit = %v, want %v", cfg.Relay.RateLimit, 1.0)
	}

	// DB defaults
	if cfg.DB.Enabled {
		t.Errorf("DB.Enabled = %v, want false", cfg.DB.Enabled)
	}
	if cfg.DB.Port != 3306 {
		t.Errorf("DB.Port = %v, want %v", cfg.DB.Port, 3306)
	}

	// Server defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %v, want %v", cfg.Server.Port, 8080)
	}
}

func TestLoad_MissingFeedURL(t *testing.T) {
	os.Unsetenv("TV_FEED_URL")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for missing TV_FEED_URL, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Feed: FeedConfig{
				URL:             "https://example.com/feed.csv",
				Format:          FormatAuto,
				URLColumn:       3,
				NameColumn:      1,
				StartHourColumn: -1,
				EndHourColumn:   -1,
				ApprovedColumn:  -1,
			},
			Player: PlayerConfig{
				ShortClipSeconds:   45,
				LeadInSeconds:      5,
				TrailMarginSeconds: 10,
				WindowCapSeconds:   30,
				Cooldown:           500 * time.Millisecond,
			},
			Server: ServerConfig{Port: 8080},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"missing feed URL", func(c *Config) { c.Feed.URL = "" }, true},
		{"bad feed format", func(c *Config) { c.Feed.Format = "xml" }, true},
		{"negative url column", func(c *Config) { c.Feed.URLColumn = -1 }, true},
		{"zero window cap", func(c *Config) { c.Player.WindowCapSeconds = 0 }, true},
		{"negative cooldown", func(c *Config) { c.Player.Cooldown = -time.Second }, true},
		{"relay endpoint without url field", func(c *Config) {
			c.Relay.Endpoint = "https://example.com/formResponse"
			c.Relay.NameField = "entry.1"
		}, true},
		{"relay endpoint with fields", func(c *Config) {
			c.Relay.Endpoint = "https://example.com/formResponse"
			c.Relay.NameField = "entry.1"
			c.Relay.URLField = "entry.2"
			c.Relay.RateLimit = 1
		}, false},
		{"notify token without chat", func(c *Config) { c.Notify.Token = "tok" }, true},
		{"db enabled without password", func(c *Config) { c.DB.Enabled = true }, true},
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDBConfig_DSN(t *testing.T) {
	cfg := DBConfig{
		Host:     "localhost",
		Port:     3306,
		User:     "root",
		Password: "secret",
		Database: "retro_tv",
	}

	expected := "root:secret@tcp(localhost:3306)/retro_tv?charset=utf8mb4&parseTime=True&loc=Local"
	if got := cfg.DSN(); got != expected {
		t.Errorf("DSN() = %v, want %v", got, expected)
	}
}
