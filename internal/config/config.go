// Package config loads settings from config.yaml and CHATTY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jooleearr/chatty-boxy/internal/application"
	"github.com/jooleearr/chatty-boxy/internal/logging"
)

const (
	appName   = "chatty-boxy"
	envPrefix = "CHATTY"
)

// Config is the full application configuration
type Config struct {
	Confluence ConfluenceConfig `mapstructure:"confluence"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Index      IndexConfig      `mapstructure:"index"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Log        LogConfig        `mapstructure:"log"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-"`
}

type ConfluenceConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Email             string        `mapstructure:"email"`
	APIToken          string        `mapstructure:"api_token"`
	Spaces            []string      `mapstructure:"spaces"`
	MaxItemsPerRun    int           `mapstructure:"max_items_per_run"`
	PageSize          int           `mapstructure:"page_size"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
	ArtifactDir  string `mapstructure:"artifact_dir"`
}

// IndexConfig configures the external search index. An empty URL disables uploads.
type IndexConfig struct {
	URL            string        `mapstructure:"url"`
	DisplayName    string        `mapstructure:"display_name"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
}

type SyncConfig struct {
	FetchConcurrency int `mapstructure:"fetch_concurrency"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// LoggingOptions converts the log section for logging.New
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// IndexEnabled reports whether a search index is configured
func (c *Config) IndexEnabled() bool {
	return c.Index.URL != ""
}

// DataDir returns the default directory for the database and artifacts,
// honouring XDG_DATA_HOME.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(home, ".local", "share", appName)
}

func setDefaults(v *viper.Viper) {
	dataDir := DataDir()

	v.SetDefault("confluence.base_url", "")
	v.SetDefault("confluence.email", "")
	v.SetDefault("confluence.api_token", "")
	v.SetDefault("confluence.spaces", []string{})
	v.SetDefault("confluence.max_items_per_run", 0)
	v.SetDefault("confluence.page_size", 25)
	v.SetDefault("confluence.requests_per_second", 5.0)
	v.SetDefault("confluence.timeout", 30*time.Second)

	v.SetDefault("storage.database_path", filepath.Join(dataDir, "mirror.db"))
	v.SetDefault("storage.artifact_dir", filepath.Join(dataDir, "artifacts"))

	v.SetDefault("index.url", "")
	v.SetDefault("index.display_name", appName)
	v.SetDefault("index.max_attempts", 3)
	v.SetDefault("index.initial_backoff", time.Second)
	v.SetDefault("index.max_backoff", 30*time.Second)
	v.SetDefault("index.poll_interval", 2*time.Second)
	v.SetDefault("index.poll_timeout", 5*time.Minute)

	v.SetDefault("sync.fetch_concurrency", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// Load reads configuration. When path is empty the standard locations are
// searched and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, appName))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appName))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Confluence.Spaces = normalizeSpaces(cfg.Confluence.Spaces)
	cfg.Storage.DatabasePath = expandHome(cfg.Storage.DatabasePath)
	cfg.Storage.ArtifactDir = expandHome(cfg.Storage.ArtifactDir)
	cfg.Log.File = expandHome(cfg.Log.File)

	return &cfg, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// normalizeSpaces trims and de-duplicates space keys. Keys are case
// sensitive ("~jdoe" personal spaces). A comma separated entry (from the
// environment) is split.
func normalizeSpaces(spaces []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range spaces {
		for _, part := range strings.Split(s, ",") {
			key := strings.TrimSpace(part)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// Validate checks the settings every command needs
func (c *Config) Validate() error {
	if err := application.ValidateRequired("databasePath", c.Storage.DatabasePath); err != nil {
		return err
	}
	if err := application.ValidateRequired("artifactDir", c.Storage.ArtifactDir); err != nil {
		return err
	}
	if err := application.ValidatePositive("fetchConcurrency", c.Sync.FetchConcurrency); err != nil {
		return err
	}
	if c.Confluence.MaxItemsPerRun < 0 {
		return &application.ValidationError{Field: "maxItemsPerRun", Message: "cannot be negative"}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return &application.ValidationError{Field: "log.level", Message: err.Error()}
	}

	if c.IndexEnabled() {
		if err := application.ValidateRequired("index.displayName", c.Index.DisplayName); err != nil {
			return err
		}
		if err := application.ValidatePositive("index.maxAttempts", c.Index.MaxAttempts); err != nil {
			return err
		}
		if c.Index.PollInterval <= 0 || c.Index.PollTimeout <= 0 {
			return &application.ValidationError{Field: "index.pollInterval", Message: "poll interval and timeout must be positive"}
		}
	}
	return nil
}

// ValidateSource checks the settings needed to talk to Confluence
func (c *Config) ValidateSource() error {
	if err := application.ValidateRequired("baseURL", c.Confluence.BaseURL); err != nil {
		return err
	}
	if !strings.HasPrefix(c.Confluence.BaseURL, "http://") && !strings.HasPrefix(c.Confluence.BaseURL, "https://") {
		return &application.ValidationError{Field: "baseURL", Message: "must start with http:// or https://"}
	}
	if err := application.ValidatePositive("pageSize", c.Confluence.PageSize); err != nil {
		return err
	}
	return nil
}
