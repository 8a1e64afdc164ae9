package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dendrascience/telegram-media-fuse/media"
	"github.com/dendrascience/telegram-media-fuse/tgfs"
)

// ErrMissingCredentials is returned when no Telegram API credentials are configured.
var ErrMissingCredentials = errors.New("telegram.app_id and telegram.app_hash are required (set TG_ID and TG_HASH)")

// Config is the complete tgfs configuration.
//
// Sources, highest precedence first:
//  1. CLI flags
//  2. Environment variables (TGFS_*, plus TG_ID and TG_HASH), including a .env file
//  3. Configuration file ($XDG_CONFIG_HOME/tgfs/config.yaml or --config)
//  4. Defaults
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Mount    MountConfig    `mapstructure:"mount"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`

	// Demo serves a fixed offline tree instead of connecting to Telegram
	Demo bool `mapstructure:"demo"`
}

// TelegramConfig holds the API credentials and the session location.
type TelegramConfig struct {
	AppID       int    `mapstructure:"app_id" validate:"gte=0"`
	AppHash     string `mapstructure:"app_hash"`
	SessionFile string `mapstructure:"session_file" validate:"required"`

	// Phone is used for interactive login; prompted for when empty
	Phone string `mapstructure:"phone"`
}

// RefreshConfig controls the cache rebuild cycle.
type RefreshConfig struct {
	Interval    time.Duration `mapstructure:"interval" validate:"gt=0"`
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1,lte=64"`
	MaxFileSize int64         `mapstructure:"max_file_size" validate:"gte=0"`
}

// MountConfig controls how the filesystem is presented to the kernel.
type MountConfig struct {
	FSName     string `mapstructure:"fsname" validate:"required"`
	AllowOther bool   `mapstructure:"allow_other"`
	UID        uint32 `mapstructure:"uid"`
	GID        uint32 `mapstructure:"gid"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json console"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"demo":             "demo",
	"session":          "telegram.session_file",
	"phone":            "telegram.phone",
	"refresh-interval": "refresh.interval",
	"concurrency":      "refresh.concurrency",
	"max-file-size":    "refresh.max_file_size",
	"allow-other":      "mount.allow_other",
	"log-level":        "logging.level",
	"log-format":       "logging.format",
	"metrics-addr":     "metrics.addr",
}

var validate = validator.New()

// Load reads the configuration. flags may be nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	// A missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	setupViper(v, configPath)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("TGFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The short names are what the Telegram tooling conventionally uses
	_ = v.BindEnv("telegram.app_id", "TGFS_TELEGRAM_APP_ID", "TG_ID")
	_ = v.BindEnv("telegram.app_hash", "TGFS_TELEGRAM_APP_HASH", "TG_HASH")

	// Every key needs a default so that Unmarshal sees environment-only values
	v.SetDefault("demo", false)
	v.SetDefault("telegram.app_id", 0)
	v.SetDefault("telegram.app_hash", "")
	v.SetDefault("telegram.session_file", "downloader.session")
	v.SetDefault("telegram.phone", "")
	v.SetDefault("refresh.interval", tgfs.DefaultRefreshInterval)
	v.SetDefault("refresh.concurrency", 4)
	v.SetDefault("refresh.max_file_size", 0)
	v.SetDefault("mount.fsname", "telegramfs")
	v.SetDefault("mount.allow_other", true)
	v.SetDefault("mount.uid", os.Getuid())
	v.SetDefault("mount.gid", os.Getgid())
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("metrics.addr", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/tgfs, falling back to ~/.config/tgfs.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "tgfs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "tgfs")
}

// ApplyDefaults fills zero values and normalizes the ones users tend to get wrong.
func ApplyDefaults(cfg *Config) {
	if cfg.Telegram.SessionFile == "" {
		cfg.Telegram.SessionFile = "downloader.session"
	}
	if cfg.Refresh.Interval == 0 {
		cfg.Refresh.Interval = tgfs.DefaultRefreshInterval
	}
	if cfg.Refresh.Concurrency == 0 {
		cfg.Refresh.Concurrency = 4
	}
	if cfg.Mount.FSName == "" {
		cfg.Mount.FSName = "telegramfs"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	if cfg.Logging.Format == "text" {
		cfg.Logging.Format = "console"
	}
}

// Validate checks struct tags and the rules that cannot be expressed in them.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	if !cfg.Demo && (cfg.Telegram.AppID <= 0 || cfg.Telegram.AppHash == "") {
		return ErrMissingCredentials
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return err
}

func (c *Config) telegram() media.TelegramConfig {
	return media.TelegramConfig{
		AppID:       c.Telegram.AppID,
		AppHash:     c.Telegram.AppHash,
		SessionFile: c.Telegram.SessionFile,
		Phone:       c.Telegram.Phone,
	}
}

func (c *Config) refresh() tgfs.RefreshConfig {
	return tgfs.RefreshConfig{
		Interval:    c.Refresh.Interval,
		Concurrency: c.Refresh.Concurrency,
		MaxFileSize: c.Refresh.MaxFileSize,
	}
}
