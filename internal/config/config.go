package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultReferenceSource is the published HTS reference table.
const DefaultReferenceSource = "https://hebbkx1anhila5yf.public.blob.vercel-storage.com/HTS-veXApjGVSyYAw8SvClPoLan3qiYSiV.csv"

// Config holds the full application configuration.
type Config struct {
	Reference  ReferenceConfig  `yaml:"reference" mapstructure:"reference"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Country    CountryConfig    `yaml:"country" mapstructure:"country"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// ReferenceConfig configures loading of the tariff reference table.
type ReferenceConfig struct {
	Source           string `yaml:"source" mapstructure:"source"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries       int    `yaml:"max_retries" mapstructure:"max_retries"`
	Charset          string `yaml:"charset" mapstructure:"charset"`
	BreakerFailures  int    `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs int    `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// Timeout returns the per-fetch timeout.
func (r ReferenceConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSecs) * time.Second
}

// FetchConfig configures the HTTP and FTP fetchers.
type FetchConfig struct {
	UserAgent  string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// CountryConfig configures the country-code resolver.
type CountryConfig struct {
	OverridesFile string `yaml:"overrides_file" mapstructure:"overrides_file"`
}

// StoreConfig configures the reference snapshot store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MonitoringConfig configures the background alert checker. Alerts are only
// sent when WebhookURL is set.
type MonitoringConfig struct {
	WebhookURL            string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FallbackRateThreshold float64 `yaml:"fallback_rate_threshold" mapstructure:"fallback_rate_threshold"`
	MinClassifications    int     `yaml:"min_classifications" mapstructure:"min_classifications"`
	CheckIntervalSecs     int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("HTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("reference.source", DefaultReferenceSource)
	v.SetDefault("reference.timeout_secs", 30)
	v.SetDefault("reference.max_retries", 3)
	v.SetDefault("reference.charset", "")
	v.SetDefault("reference.breaker_failures", 3)
	v.SetDefault("reference.breaker_reset_secs", 60)
	v.SetDefault("fetch.user_agent", "hts-classify/1.0")
	v.SetDefault("fetch.rate_per_sec", 5)
	v.SetDefault("country.overrides_file", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "hts.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.fallback_rate_threshold", 0.5)
	v.SetDefault("monitoring.min_classifications", 20)
	v.SetDefault("monitoring.check_interval_secs", 300)

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

// Validate checks the settings required by the given command mode
// ("serve", "classify", "sync" or "reference").
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "classify", "reference":
	case "sync":
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Reference.Source == "" {
		errs = append(errs, "reference.source is required")
	}
	if c.Reference.TimeoutSecs <= 0 {
		errs = append(errs, "reference.timeout_secs must be > 0")
	}
	if c.Reference.MaxRetries < 1 || c.Reference.MaxRetries > 10 {
		errs = append(errs, "reference.max_retries must be between 1 and 10")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
