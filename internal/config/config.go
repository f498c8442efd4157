package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Crawl  CrawlConfig  `yaml:"crawl" mapstructure:"crawl"`
	Places PlacesConfig `yaml:"places" mapstructure:"places"`
	Input  InputConfig  `yaml:"input" mapstructure:"input"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// CrawlConfig configures website crawling and the missing-data retry loop.
type CrawlConfig struct {
	MaxRetries             int      `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffBase            float64  `yaml:"backoff_base" mapstructure:"backoff_base"`
	TimeoutSecs            int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	PoolWidth              int      `yaml:"pool_width" mapstructure:"pool_width"`
	MaxReconcileIterations int      `yaml:"max_reconcile_iterations" mapstructure:"max_reconcile_iterations"`
	BatchCount             int      `yaml:"batch_count" mapstructure:"batch_count"`
	UserAgent              string   `yaml:"user_agent" mapstructure:"user_agent"`
	Blocklist              []string `yaml:"blocklist" mapstructure:"blocklist"`
	IncludeRootVariant     bool     `yaml:"include_root_variant" mapstructure:"include_root_variant"`
	CacheTTLHours          int      `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// Backoff returns the base backoff as a duration.
func (c CrawlConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffBase * float64(time.Second))
}

// Timeout returns the per-attempt fetch timeout.
func (c CrawlConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// PlacesConfig configures the Google Places and Mapy.cz lookups.
type PlacesConfig struct {
	GoogleKey        string  `yaml:"google_key" mapstructure:"google_key"`
	GoogleBaseURL    string  `yaml:"google_base_url" mapstructure:"google_base_url"`
	MapyKey          string  `yaml:"mapy_key" mapstructure:"mapy_key"`
	MapyBaseURL      string  `yaml:"mapy_base_url" mapstructure:"mapy_base_url"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	PoolWidth        int     `yaml:"pool_width" mapstructure:"pool_width"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// InputConfig names the columns of the database export.
type InputConfig struct {
	Columns ColumnsConfig `yaml:"columns" mapstructure:"columns"`
}

// ColumnsConfig maps logical organization fields to export column headers.
type ColumnsConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Website string `yaml:"website" mapstructure:"website"`
	Phone   string `yaml:"phone" mapstructure:"phone"`
	Email   string `yaml:"email" mapstructure:"email"`
	Address string `yaml:"address" mapstructure:"address"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CONTACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "contact.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("crawl.max_retries", 3)
	v.SetDefault("crawl.backoff_base", 0.3)
	v.SetDefault("crawl.timeout_secs", 10)
	v.SetDefault("crawl.pool_width", 8)
	v.SetDefault("crawl.max_reconcile_iterations", 0)
	v.SetDefault("crawl.batch_count", 4)
	v.SetDefault("crawl.user_agent", "Mozilla/5.0 (compatible; ContactBot/1.0)")
	v.SetDefault("crawl.blocklist", []string{})
	v.SetDefault("crawl.include_root_variant", true)
	v.SetDefault("crawl.cache_ttl_hours", 0)
	v.SetDefault("places.google_key", "")
	v.SetDefault("places.google_base_url", "https://places.googleapis.com/v1")
	v.SetDefault("places.mapy_key", "")
	v.SetDefault("places.mapy_base_url", "https://api.mapy.cz/v1")
	v.SetDefault("places.rate_limit", 5.0)
	v.SetDefault("places.pool_width", 4)
	v.SetDefault("places.failure_threshold", 5)
	v.SetDefault("places.reset_timeout_secs", 30)
	v.SetDefault("input.columns.name", "Nazev")
	v.SetDefault("input.columns.website", "Webova_stranka")
	v.SetDefault("input.columns.phone", "Telefon")
	v.SetDefault("input.columns.email", "E_mail")
	v.SetDefault("input.columns.address", "Adresa")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings required by the given command mode
// ("crawl", "maps", "validate", "run", "serve") and reports every problem found.
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Crawl.MaxRetries < 1 {
		errs = append(errs, "crawl.max_retries must be >= 1")
	}
	if c.Crawl.BackoffBase < 0 {
		errs = append(errs, "crawl.backoff_base must be >= 0")
	}
	if c.Crawl.TimeoutSecs < 1 {
		errs = append(errs, "crawl.timeout_secs must be >= 1")
	}
	if c.Crawl.PoolWidth < 1 || c.Crawl.PoolWidth > 256 {
		errs = append(errs, "crawl.pool_width must be between 1 and 256")
	}
	if c.Crawl.MaxReconcileIterations < 0 {
		errs = append(errs, "crawl.max_reconcile_iterations must be >= 0")
	}
	if c.Crawl.BatchCount < 1 {
		errs = append(errs, "crawl.batch_count must be >= 1")
	}

	cols := c.Input.Columns
	for _, col := range []string{cols.Name, cols.Website, cols.Phone, cols.Email, cols.Address} {
		if strings.TrimSpace(col) == "" {
			errs = append(errs, "input.columns entries must not be empty")
			break
		}
	}

	switch mode {
	case "crawl", "validate":
	case "maps", "run":
		if mode == "maps" && c.Places.GoogleKey == "" {
			errs = append(errs, "places.google_key is required")
		}
		if c.Places.RateLimit <= 0 {
			errs = append(errs, "places.rate_limit must be > 0")
		}
		if c.Places.PoolWidth < 1 {
			errs = append(errs, "places.pool_width must be >= 1")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
