package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Feed format values accepted by FeedConfig.Format.
const (
	FormatAuto = "auto"
	FormatCSV  = "csv"
	FormatGviz = "gviz"
)

// Config holds all application configuration
type Config struct {
	Feed   FeedConfig
	Player PlayerConfig
	Relay  RelayConfig
	Notify NotifyConfig
	DB     DBConfig
	Server ServerConfig
}

// FeedConfig holds the feed source URL and the per-deployment column
// layout. Column indices are zero-based; -1 means the column is absent.
type FeedConfig struct {
	URL            string        `envconfig:"TV_FEED_URL" required:"true"`
	Format         string        `envconfig:"TV_FEED_FORMAT" default:"auto"`
	Timeout        time.Duration `envconfig:"TV_FEED_TIMEOUT" default:"15s"`
	ReloadInterval time.Duration `envconfig:"TV_FEED_RELOAD_INTERVAL" default:"5m"`
	// FallbackURL, when set, plays instead of the "no signal" state
	// whenever the candidate pool is empty.
	FallbackURL     string `envconfig:"TV_FEED_FALLBACK_URL"`
	URLColumn       int    `envconfig:"TV_FEED_URL_COLUMN" default:"3"`
	NameColumn      int    `envconfig:"TV_FEED_NAME_COLUMN" default:"1"`
	TitleColumn     int    `envconfig:"TV_FEED_TITLE_COLUMN" default:"2"`
	StartHourColumn int    `envconfig:"TV_FEED_START_HOUR_COLUMN" default:"-1"`
	EndHourColumn   int    `envconfig:"TV_FEED_END_HOUR_COLUMN" default:"-1"`
	ApprovedColumn  int    `envconfig:"TV_FEED_APPROVED_COLUMN" default:"-1"`
}

// PlayerConfig holds the playback planning policy knobs. All second
// counts describe on-screen time, not true media duration, which is
// unknowable without a privileged player API.
type PlayerConfig struct {
	ShortClipSeconds   int           `envconfig:"TV_PLAYER_SHORT_CLIP_SECONDS" default:"45"`
	LeadInSeconds      int           `envconfig:"TV_PLAYER_LEAD_IN_SECONDS" default:"5"`
	TrailMarginSeconds int           `envconfig:"TV_PLAYER_TRAIL_MARGIN_SECONDS" default:"10"`
	WindowCapSeconds   int           `envconfig:"TV_PLAYER_WINDOW_CAP_SECONDS" default:"30"`
	EstShortSeconds    int           `envconfig:"TV_PLAYER_EST_SHORT_SECONDS" default:"30"`
	EstDirectSeconds   int           `envconfig:"TV_PLAYER_EST_DIRECT_SECONDS" default:"60"`
	EstDefaultSeconds  int           `envconfig:"TV_PLAYER_EST_DEFAULT_SECONDS" default:"150"`
	Cooldown           time.Duration `envconfig:"TV_PLAYER_COOLDOWN" default:"500ms"`
}

// RelayConfig holds the external form endpoint and its per-field entry
// keys, which vary per deployment just like the feed columns do.
type RelayConfig struct {
	Endpoint   string        `envconfig:"TV_RELAY_ENDPOINT"`
	NameField  string        `envconfig:"TV_RELAY_NAME_FIELD" default:"entry.111111"`
	TitleField string        `envconfig:"TV_RELAY_TITLE_FIELD" default:"entry.222222"`
	URLField   string        `envconfig:"TV_RELAY_URL_FIELD" default:"entry.333333"`
	HourField  string        `envconfig:"TV_RELAY_HOUR_FIELD" default:"entry.444444"`
	Timeout    time.Duration `envconfig:"TV_RELAY_TIMEOUT" default:"10s"`
	RateLimit  float64       `envconfig:"TV_RELAY_RATE_LIMIT" default:"1"`
}

// NotifyConfig holds the Telegram moderation notice settings. Notices
// are disabled when the token is empty.
type NotifyConfig struct {
	Token  string `envconfig:"TV_NOTIFY_TOKEN"`
	ChatID int64  `envconfig:"TV_NOTIFY_CHAT_ID" default:"0"`
}

// DBConfig holds the optional play-history database configuration
type DBConfig struct {
	Enabled  bool   `envconfig:"TV_DB_ENABLED" default:"false"`
	Host     string `envconfig:"TV_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"TV_DB_PORT" default:"3306"`
	User     string `envconfig:"TV_DB_USER" default:"root"`
	Password string `envconfig:"TV_DB_PASSWORD"`
	Database string `envconfig:"TV_DB_NAME" default:"retro_tv"`
	MaxConns int    `envconfig:"TV_DB_MAX_CONNS" default:"10"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"TV_SERVER_PORT" default:"8080"`
}

// DSN returns the MySQL data source name
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg.Feed); err != nil {
		return nil, fmt.Errorf("failed to load feed config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Player); err != nil {
		return nil, fmt.Errorf("failed to load player config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Relay); err != nil {
		return nil, fmt.Errorf("failed to load relay config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Notify); err != nil {
		return nil, fmt.Errorf("failed to load notify config: %w", err)
	}

	if err := envconfig.Process("", &cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to load db config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("TV_FEED_URL is required")
	}
	switch c.Feed.Format {
	case FormatAuto, FormatCSV, FormatGviz:
	default:
		return fmt.Errorf("TV_FEED_FORMAT must be auto, csv or gviz")
	}
	if c.Feed.URLColumn < 0 {
		return fmt.Errorf("TV_FEED_URL_COLUMN must not be negative")
	}
	if c.Player.ShortClipSeconds <= 0 {
		return fmt.Errorf("TV_PLAYER_SHORT_CLIP_SECONDS must be positive")
	}
	if c.Player.WindowCapSeconds <= 0 {
		return fmt.Errorf("TV_PLAYER_WINDOW_CAP_SECONDS must be positive")
	}
	if c.Player.LeadInSeconds < 0 || c.Player.TrailMarginSeconds < 0 {
		return fmt.Errorf("lead-in and trail margin must not be negative")
	}
	if c.Player.Cooldown < 0 {
		return fmt.Errorf("TV_PLAYER_COOLDOWN must not be negative")
	}
	if c.Relay.Endpoint != "" {
		if c.Relay.URLField == "" || c.Relay.NameField == "" {
			return fmt.Errorf("relay field keys are required when TV_RELAY_ENDPOINT is set")
		}
		if c.Relay.RateLimit <= 0 {
			return fmt.Errorf("TV_RELAY_RATE_LIMIT must be positive")
		}
	}
	if c.Notify.Token != "" && c.Notify.ChatID == 0 {
		return fmt.Errorf("TV_NOTIFY_CHAT_ID is required when TV_NOTIFY_TOKEN is set")
	}
	if c.DB.Enabled && c.DB.Password == "" {
		return fmt.Errorf("TV_DB_PASSWORD is required when TV_DB_ENABLED is set")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("TV_SERVER_PORT must be between 1 and 65535")
	}
	return nil
}
