package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	GeoRSS GeoRSSConfig `yaml:"georss" mapstructure:"georss"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Load   LoadConfig   `yaml:"load" mapstructure:"load"`
	Info   InfoConfig   `yaml:"info" mapstructure:"info"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GeoRSSConfig holds default creation options for new feeds. Options passed
// on the command line take precedence.
type GeoRSSConfig struct {
	Format        string `yaml:"format" mapstructure:"format"`
	GeomDialect   string `yaml:"geom_dialect" mapstructure:"geom_dialect"`
	UseExtensions bool   `yaml:"use_extensions" mapstructure:"use_extensions"`
}

// StoreConfig configures the sink database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// LoadConfig configures feature loading into a store.
type LoadConfig struct {
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
	Schema    string `yaml:"schema" mapstructure:"schema"`
	Table     string `yaml:"table" mapstructure:"table"`
}

// InfoConfig configures the info command.
type InfoConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// Options returns the configured defaults as GeoRSS creation options.
// Empty settings are left out so the driver defaults apply.
func (c GeoRSSConfig) Options() map[string]string {
	opts := map[string]string{"USE_EXTENSIONS": "NO"}
	if c.UseExtensions {
		opts["USE_EXTENSIONS"] = "YES"
	}
	if c.Format != "" {
		opts["FORMAT"] = strings.ToUpper(c.Format)
	}
	if c.GeomDialect != "" {
		opts["GEOM_DIALECT"] = strings.ToUpper(c.GeomDialect)
	}
	return opts
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEORSS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("georss.format", "RSS")
	v.SetDefault("georss.geom_dialect", "SIMPLE")
	v.SetDefault("georss.use_extensions", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "georss.db")
	v.SetDefault("load.batch_size", 5000)
	v.SetDefault("load.schema", "public")
	v.SetDefault("load.table", "georss_features")
	v.SetDefault("info.concurrency", 4)

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

// Validate checks the settings a command mode depends on. Modes: "create",
// "load", "info".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "create":
		switch strings.ToUpper(c.GeoRSS.Format) {
		case "RSS", "ATOM":
		default:
			errs = append(errs, "georss.format must be RSS or ATOM")
		}
		switch strings.ToUpper(c.GeoRSS.GeomDialect) {
		case "SIMPLE", "GML", "W3C_GEO":
		default:
			errs = append(errs, "georss.geom_dialect must be SIMPLE, GML or W3C_GEO")
		}
	case "load":
		switch c.Store.Driver {
		case "postgres":
			if c.Store.DatabaseURL == "" {
				errs = append(errs, "store.database_url is required for the postgres driver")
			}
		case "sqlite":
			if c.Store.SQLitePath == "" {
				errs = append(errs, "store.sqlite_path is required for the sqlite driver")
			}
		default:
			errs = append(errs, "store.driver must be postgres or sqlite")
		}
		if c.Load.BatchSize < 0 || c.Load.BatchSize > 1_000_000 {
			errs = append(errs, "load.batch_size must be between 0 and 1000000 (0 = single COPY)")
		}
		if c.Load.Table == "" {
			errs = append(errs, "load.table is required")
		}
	case "info":
		if c.Info.Concurrency < 1 || c.Info.Concurrency > 64 {
			errs = append(errs, "info.concurrency must be between 1 and 64")
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
