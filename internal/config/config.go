package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the full routedialog configuration
type Config struct {
	Dialog  DialogConfig  `mapstructure:"dialog"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Server  ServerConfig  `mapstructure:"server"`
	Client  ClientConfig  `mapstructure:"client"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DialogConfig controls route-bound dialog behavior
type DialogConfig struct {
	// CloseDelayMs is how long loaded data outlives a close, in milliseconds
	CloseDelayMs int `mapstructure:"close_delay_ms" validate:"min=1,max=10000"`
	// CacheBust appends a refresh token to refetch URLs
	CacheBust bool `mapstructure:"cache_bust"`
}

// HTTPConfig controls the JSON client
type HTTPConfig struct {
	TimeoutMs    int    `mapstructure:"timeout_ms" validate:"min=1"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes" validate:"min=1"`
	UserAgent    string `mapstructure:"user_agent"`
}

// ServerConfig controls the demo endpoint
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

// ClientConfig controls the browse TUI
type ClientConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

// LoggingConfig controls the debug log
type LoggingConfig struct {
	// File is where JSON logs go; empty disables logging
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Dialog: DialogConfig{
			CloseDelayMs: 100,
			CacheBust:    true,
		},
		HTTP: HTTPConfig{
			TimeoutMs:    5000,
			MaxBodyBytes: 1 << 20,
			UserAgent:    "routedialog",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Client: ClientConfig{
			BaseURL: "http://127.0.0.1:8080",
		},
		Logging: LoggingConfig{
			File:  "",
			Level: "info",
		},
	}
}

// CloseDelay returns the close delay as a time.Duration
func (c *DialogConfig) CloseDelay() time.Duration {
	return time.Duration(c.CloseDelayMs) * time.Millisecond
}

// Timeout returns the request timeout as a time.Duration
func (c *HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("dialog.close_delay_ms", defaults.Dialog.CloseDelayMs)
	v.SetDefault("dialog.cache_bust", defaults.Dialog.CacheBust)

	v.SetDefault("http.timeout_ms", defaults.HTTP.TimeoutMs)
	v.SetDefault("http.max_body_bytes", defaults.HTTP.MaxBodyBytes)
	v.SetDefault("http.user_agent", defaults.HTTP.UserAgent)

	v.SetDefault("server.addr", defaults.Server.Addr)
	v.SetDefault("client.base_url", defaults.Client.BaseURL)

	v.SetDefault("logging.file", defaults.Logging.File)
	v.SetDefault("logging.level", defaults.Logging.Level)
}

// NewViper returns a viper instance with defaults, env binding and, when
// present, the config file. An explicit configFile must exist; the default
// location is optional.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ROUTEDIALOG")
	// ROUTEDIALOG_DIALOG_CLOSE_DELAY_MS for dialog.close_delay_ms
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}
	return v, nil
}

// Load reads the configuration from v into a Config and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	MergeWithDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MergeWithDefaults fills in missing values with defaults
func MergeWithDefaults(cfg *Config) *Config {
	defaults := DefaultConfig()

	if cfg.HTTP.TimeoutMs == 0 {
		cfg.HTTP.TimeoutMs = defaults.HTTP.TimeoutMs
	}
	if cfg.HTTP.MaxBodyBytes == 0 {
		cfg.HTTP.MaxBodyBytes = defaults.HTTP.MaxBodyBytes
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = defaults.Client.BaseURL
	}

	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}

	return cfg
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every violation at once
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "validate config")
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Namespace()+" failed "+fe.Tag())
	}
	return errors.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "routedialog")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".routedialog"
	}
	return filepath.Join(home, ".config", "routedialog")
}

// ConfigFile returns the path to the default config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
