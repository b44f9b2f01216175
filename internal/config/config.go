// Package config loads runtime settings from defaults, an optional config
// file, a .env file and DURJOG_* environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Adda-Baaj/durjog-khobor/internal/storage"
)

// EnvPrefix prefixes every environment override, e.g. DURJOG_STORE_PATH.
const EnvPrefix = "DURJOG"

// Validation errors.
var (
	ErrInvalidWindow   = errors.New("retention.window must be positive")
	ErrInvalidInterval = errors.New("scheduler.interval must be at least one second")
	ErrInvalidTimeout  = errors.New("crawler timeouts must be positive")
	ErrInvalidDelay    = errors.New("crawler.request_delay must not be negative")
	ErrUnknownDriver   = errors.New("store.driver must be bolt or sqlite")
	ErrEmptyStorePath  = errors.New("store.path is required")
	ErrEmptyAddr       = errors.New("http.addr is required")
)

// Config is the full runtime configuration.
type Config struct {
	Log        LogConfig
	Retention  RetentionConfig
	Scheduler  SchedulerConfig
	Crawler    CrawlerConfig
	Store      StoreConfig
	HTTP       HTTPConfig
	Profiles   ProfilesConfig
	Keywords   FileConfig
	Publishers FileConfig
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string
}

// RetentionConfig holds the single window used for serving, re-fetch
// decisions and store retention.
type RetentionConfig struct {
	Window time.Duration
}

// SchedulerConfig controls periodic passes.
type SchedulerConfig struct {
	Interval time.Duration
	Enabled  bool
}

// CrawlerConfig tunes discovery and fetching.
type CrawlerConfig struct {
	HomepageTimeout  time.Duration
	ArticleTimeout   time.Duration
	DiscoveryTimeout time.Duration
	RequestDelay     time.Duration
	MaxCandidates    int
	UserAgent        string
}

// StoreConfig selects the article store.
type StoreConfig struct {
	Driver string
	Path   string
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string
}

// ProfilesConfig points at an optional profiles file and restricts the
// active profiles. An empty Enabled list means all.
type ProfilesConfig struct {
	File    string
	Enabled []string
}

// FileConfig points at an optional data file.
type FileConfig struct {
	File string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("retention.window", "24h")
	v.SetDefault("scheduler.interval", "10m")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("crawler.homepage_timeout", "15s")
	v.SetDefault("crawler.article_timeout", "10s")
	v.SetDefault("crawler.discovery_timeout", "5s")
	v.SetDefault("crawler.request_delay", "200ms")
	v.SetDefault("crawler.max_candidates", 60)
	v.SetDefault("crawler.user_agent", "")
	v.SetDefault("store.driver", storage.DriverBolt)
	v.SetDefault("store.path", "data/articles.db")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("profiles.file", "")
	v.SetDefault("profiles.enabled", []string{})
	v.SetDefault("keywords.file", "")
	v.SetDefault("publishers.file", "")
}

// Load reads the configuration. path names an explicit config file; when
// empty, config.yaml is looked up in . and ./config and is optional.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Log: LogConfig{Level: strings.TrimSpace(v.GetString("log.level"))},
		Retention: RetentionConfig{
			Window: v.GetDuration("retention.window"),
		},
		Scheduler: SchedulerConfig{
			Interval: v.GetDuration("scheduler.interval"),
			Enabled:  v.GetBool("scheduler.enabled"),
		},
		Crawler: CrawlerConfig{
			HomepageTimeout:  v.GetDuration("crawler.homepage_timeout"),
			ArticleTimeout:   v.GetDuration("crawler.article_timeout"),
			DiscoveryTimeout: v.GetDuration("crawler.discovery_timeout"),
			RequestDelay:     v.GetDuration("crawler.request_delay"),
			MaxCandidates:    v.GetInt("crawler.max_candidates"),
			UserAgent:        strings.TrimSpace(v.GetString("crawler.user_agent")),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("store.driver"))),
			Path:   strings.TrimSpace(v.GetString("store.path")),
		},
		HTTP: HTTPConfig{Addr: strings.TrimSpace(v.GetString("http.addr"))},
		Profiles: ProfilesConfig{
			File:    strings.TrimSpace(v.GetString("profiles.file")),
			Enabled: splitList(v.Get("profiles.enabled")),
		},
		Keywords:   FileConfig{File: strings.TrimSpace(v.GetString("keywords.file"))},
		Publishers: FileConfig{File: strings.TrimSpace(v.GetString("publishers.file"))},
	}
}

// splitList accepts a YAML list or a comma separated string (the form an
// environment variable takes).
func splitList(raw any) []string {
	var parts []string
	switch val := raw.(type) {
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []any:
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the settings that would otherwise fail late.
func (c Config) Validate() error {
	if c.Retention.Window <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidWindow, c.Retention.Window)
	}
	if c.Scheduler.Interval < time.Second {
		return fmt.Errorf("%w: got %s", ErrInvalidInterval, c.Scheduler.Interval)
	}
	if c.Crawler.HomepageTimeout <= 0 || c.Crawler.ArticleTimeout <= 0 || c.Crawler.DiscoveryTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Crawler.RequestDelay < 0 {
		return ErrInvalidDelay
	}
	switch c.Store.Driver {
	case storage.DriverBolt, storage.DriverSQLite:
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownDriver, c.Store.Driver)
	}
	if c.Store.Path == "" {
		return ErrEmptyStorePath
	}
	if c.HTTP.Addr == "" {
		return ErrEmptyAddr
	}
	return nil
}
