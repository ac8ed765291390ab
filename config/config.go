package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides, e.g. SCRAPER_LOGIN_URL
const EnvPrefix = "SCRAPER"

// Config represents the scraper configuration
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Browser BrowserConfig `yaml:"browser"`
	Login   LoginConfig   `yaml:"login"`
	Parser  ParserConfig  `yaml:"parser"`
	Export  ExportConfig  `yaml:"export"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// HTTPConfig configures the stateless fetch
type HTTPConfig struct {
	UserAgent string        `yaml:"user_agent" split_words:"true"`
	Timeout   time.Duration `yaml:"timeout" split_words:"true"`
	// MaxBodySize caps the response body in bytes; 0 means no limit
	MaxBodySize int `yaml:"max_body_size" split_words:"true"`
}

// BrowserConfig configures the browser used by authenticated fetches
type BrowserConfig struct {
	Bin      string `yaml:"bin" split_words:"true"`
	Headless bool   `yaml:"headless" split_words:"true"`
	DataDir  string `yaml:"data_dir" split_words:"true"`
}

// LoginConfig describes the login page contract. The field names are specific
// to the target site and break whenever its form changes.
type LoginConfig struct {
	URL             string `yaml:"url" split_words:"true"`
	UsernameField   string `yaml:"username_field" split_words:"true"`
	PasswordField   string `yaml:"password_field" split_words:"true"`
	SuccessSelector string `yaml:"success_selector" split_words:"true"`

	ElementTimeout time.Duration `yaml:"element_timeout" split_words:"true"`
	LoginTimeout   time.Duration `yaml:"login_timeout" split_words:"true"`
	PageTimeout    time.Duration `yaml:"page_timeout" split_words:"true"`
	Settle         time.Duration `yaml:"settle" split_words:"true"`
}

// ParserConfig selects the document parser engine
type ParserConfig struct {
	Engine string `yaml:"engine" split_words:"true"`
}

// ExportConfig lists the export targets; empty values disable a target
type ExportConfig struct {
	CSV            string `yaml:"csv" split_words:"true"`
	SpreadsheetURL string `yaml:"spreadsheet_url" split_words:"true"`
	Credentials    string `yaml:"credentials" split_words:"true"`
	DatabaseURL    string `yaml:"database_url" envconfig:"DATABASE_URL"`
}

// NotifyConfig configures the Telegram status reporter
type NotifyConfig struct {
	TelegramToken  string `yaml:"telegram_token" split_words:"true"`
	TelegramChatID int64  `yaml:"telegram_chat_id" split_words:"true"`
}

// LoadConfig loads configuration from a YAML file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Timeout:   30 * time.Second,
		},
		Browser: BrowserConfig{
			Headless: true,
		},
		Login: LoginConfig{
			URL:            "https://www.linkedin.com/login",
			UsernameField:  "session_key",
			PasswordField:  "session_password",
			ElementTimeout: 10 * time.Second,
			LoginTimeout:   20 * time.Second,
			PageTimeout:    30 * time.Second,
			Settle:         500 * time.Millisecond,
		},
		Parser: ParserConfig{
			Engine: "goquery",
		},
		Export: ExportConfig{
			CSV: "output.csv",
		},
	}
}

// ApplyEnv overlays SCRAPER_* environment variables onto cfg.
// Variables that are not set leave the current value untouched. The database
// URL also falls back to a plain DATABASE_URL.
func ApplyEnv(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("failed to apply environment: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside a fetch
func (c *Config) Validate() error {
	switch c.Parser.Engine {
	case "goquery", "xpath":
	default:
		return fmt.Errorf("unknown parser engine %q (want goquery or xpath)", c.Parser.Engine)
	}
	if c.HTTP.MaxBodySize < 0 {
		return errors.New("http.max_body_size must not be negative")
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.Login.ElementTimeout <= 0 || c.Login.LoginTimeout <= 0 || c.Login.PageTimeout <= 0 {
		return errors.New("login timeouts must be positive")
	}
	if c.Login.UsernameField == "" || c.Login.PasswordField == "" {
		return errors.New("login field names must not be empty")
	}
	return nil
}
