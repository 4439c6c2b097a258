package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	WordPress WordPressConfig `mapstructure:"wordpress"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	// Schedule is the cron expression for recurring imports.
	Schedule string `mapstructure:"schedule"`
}

// WordPressConfig points the importer at the CMS the directory content lives in.
type WordPressConfig struct {
	BaseURL     string   `mapstructure:"base_url"`
	PostTypes   []string `mapstructure:"post_types"`
	PerPage     int      `mapstructure:"per_page"`
	Concurrency int      `mapstructure:"concurrency"`
	// RequestsPerSecond caps the request rate against the CMS.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Timeout           int     `mapstructure:"timeout"`
	// Categories maps a post type to the category of its posts that carry no
	// site_category term.
	Categories      map[string]string `mapstructure:"categories"`
	DefaultCategory string            `mapstructure:"default_category"`
}

// DirectoryConfig tunes the interactive directory pages.
type DirectoryConfig struct {
	PageSize         int     `mapstructure:"page_size"`
	ExcerptLength    int     `mapstructure:"excerpt_length"`
	FocusTolerance   float64 `mapstructure:"focus_tolerance"`
	SingleMarkerZoom int     `mapstructure:"single_marker_zoom"`
	FocusZoom        int     `mapstructure:"focus_zoom"`
	SearchDebounceMS int     `mapstructure:"search_debounce_ms"`
	// CacheTTL is how long site lists and facet options stay cached, in seconds.
	CacheTTL int `mapstructure:"cache_ttl"`
}

func (d DirectoryConfig) SearchDebounce() time.Duration {
	return time.Duration(d.SearchDebounceMS) * time.Millisecond
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, the config file and environment variables,
// in increasing order of precedence.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "sacredsites")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "sacredsites")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.prefix", "sacredsites:")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "site-import")
	v.SetDefault("temporal.schedule", "0 3 * * *")
	v.SetDefault("wordpress.base_url", "")
	v.SetDefault("wordpress.post_types", []string{"sites", "saints"})
	v.SetDefault("wordpress.per_page", 100)
	v.SetDefault("wordpress.concurrency", 4)
	v.SetDefault("wordpress.requests_per_second", 5.0)
	v.SetDefault("wordpress.timeout", 20)
	v.SetDefault("wordpress.categories", map[string]string{
		"sites":  "christian-site",
		"saints": "christian-site",
	})
	v.SetDefault("wordpress.default_category", "christian-site")
	v.SetDefault("directory.page_size", 12)
	v.SetDefault("directory.excerpt_length", 100)
	v.SetDefault("directory.focus_tolerance", 1e-4)
	v.SetDefault("directory.single_marker_zoom", 14)
	v.SetDefault("directory.focus_zoom", 15)
	v.SetDefault("directory.search_debounce_ms", 300)
	v.SetDefault("directory.cache_ttl", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SACREDSITES_DATABASE_HOST → database.host
	v.SetEnvPrefix("SACREDSITES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Directory.PageSize <= 0 {
		errs = append(errs, "directory.page_size must be positive")
	}
	if c.Directory.FocusTolerance <= 0 {
		errs = append(errs, "directory.focus_tolerance must be positive")
	}
	if c.Directory.SearchDebounceMS < 0 {
		errs = append(errs, "directory.search_debounce_ms must not be negative")
	}
	if c.WordPress.PerPage <= 0 || c.WordPress.PerPage > 100 {
		errs = append(errs, fmt.Sprintf("wordpress.per_page must be 1-100, got %d", c.WordPress.PerPage))
	}
	if c.WordPress.Concurrency <= 0 {
		errs = append(errs, "wordpress.concurrency must be positive")
	}
	if c.WordPress.RequestsPerSecond <= 0 {
		errs = append(errs, "wordpress.requests_per_second must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
