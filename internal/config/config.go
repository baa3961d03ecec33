// Load envs from .env
// Load YAML config
// Validate config
// Provide default values

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Facet is one named search dimension for the API source. Params are sent
// verbatim as query parameters next to page/limit.
type Facet struct {
	Name   string            `yaml:"name"`
	Params map[string]string `yaml:"params"`
}

// Category is one entry URL for the rendered-page source.
type Category struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Backoff holds the controller retry knobs.
type Backoff struct {
	BaseDelayMs        int `yaml:"base_delay_ms"`
	MaxDelayMs         int `yaml:"max_delay_ms"`
	MaxRetries         int `yaml:"max_retries"`
	CooldownMinSeconds int `yaml:"cooldown_min_seconds"`
	CooldownMaxSeconds int `yaml:"cooldown_max_seconds"`
}

type Config struct {
	DatabaseURL    string `yaml:"database_url" env:"DATABASE_URL"`
	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`

	//API source
	JumpitBaseURL string  `yaml:"jumpit_base_url"`
	Facets        []Facet `yaml:"facets"`
	PageSize      int     `yaml:"page_size"`
	MaxPages      int     `yaml:"max_pages"`

	//Rendered source
	Categories    []Category `yaml:"categories"`
	DetailsPerCat int        `yaml:"details_per_category"`
	Headless      bool       `yaml:"headless"`

	//Filtering
	ExtraExcludeKeywords []string `yaml:"extra_exclude_keywords"`

	//Controller
	Backoff Backoff `yaml:"backoff"`

	//Paths
	ExportDir string `yaml:"export_dir"`

	Debug bool `yaml:"-"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{Headless: true}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	//Override with env vars
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.DatabaseURL = dsn
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}
	cfg.Debug = os.Getenv("LOG_DEBUG") != ""

	//Set default values if not set
	if cfg.JumpitBaseURL == "" {
		cfg.JumpitBaseURL = "https://jumpit-api.saramin.co.kr/api/positions"
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 50 {
		cfg.PageSize = 20
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	if cfg.DetailsPerCat <= 0 {
		cfg.DetailsPerCat = 40
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "exports"
	}
	if cfg.Backoff.BaseDelayMs <= 0 {
		cfg.Backoff.BaseDelayMs = 2000
	}
	if cfg.Backoff.MaxDelayMs <= 0 {
		cfg.Backoff.MaxDelayMs = 20000
	}
	if cfg.Backoff.MaxRetries <= 0 {
		cfg.Backoff.MaxRetries = 3
	}
	if cfg.Backoff.CooldownMinSeconds <= 0 {
		cfg.Backoff.CooldownMinSeconds = 30
	}
	if cfg.Backoff.CooldownMaxSeconds <= cfg.Backoff.CooldownMinSeconds {
		cfg.Backoff.CooldownMaxSeconds = cfg.Backoff.CooldownMinSeconds + 30
	}

	//Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// BaseDelay returns the controller base delay as a duration.
func (b Backoff) BaseDelay() time.Duration { return time.Duration(b.BaseDelayMs) * time.Millisecond }

// MaxDelay returns the controller delay ceiling as a duration.
func (b Backoff) MaxDelay() time.Duration { return time.Duration(b.MaxDelayMs) * time.Millisecond }
