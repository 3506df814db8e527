// Package config loads the application configuration from file and
// environment and initializes the global logger.
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
	City   CityConfig   `yaml:"city" mapstructure:"city"`
	Grid   GridConfig   `yaml:"grid" mapstructure:"grid"`
	Kernel KernelConfig `yaml:"kernel" mapstructure:"kernel"`
	KPI    KPIConfig    `yaml:"kpi" mapstructure:"kpi"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Export ExportConfig `yaml:"export" mapstructure:"export"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// CityConfig describes the city under analysis: its zone geometry and
// the service datasets to load.
type CityConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	// Subdivisions is the path to the zone boundary shapefile.
	Subdivisions  string `yaml:"subdivisions" mapstructure:"subdivisions"`
	ZoneIDField   string `yaml:"zone_id_field" mapstructure:"zone_id_field"`
	ZoneNameField string `yaml:"zone_name_field" mapstructure:"zone_name_field"`
	// SourceURL is the published zone geometry the frontend loads.
	SourceURL string     `yaml:"source_url" mapstructure:"source_url"`
	Zoom      int        `yaml:"zoom" mapstructure:"zoom"`
	Center    [2]float64 `yaml:"center" mapstructure:"center"`
	// Services maps service type name to its dataset settings.
	Services map[string]ServiceConfig `yaml:"services" mapstructure:"services"`
}

// ServiceConfig locates one service registry and calibrates its kernel.
type ServiceConfig struct {
	Path         string  `yaml:"path" mapstructure:"path"`
	URL          string  `yaml:"url" mapstructure:"url"`
	MeanRadiusKM float64 `yaml:"mean_radius_km" mapstructure:"mean_radius_km"`
}

// GridConfig configures the evaluation lattice.
type GridConfig struct {
	StepKM float64 `yaml:"step_km" mapstructure:"step_km"`
}

// KernelConfig configures the distance-decay kernel.
type KernelConfig struct {
	Epsilon float64 `yaml:"epsilon" mapstructure:"epsilon"`
}

// KPIConfig configures zone aggregation.
type KPIConfig struct {
	Norm string `yaml:"norm" mapstructure:"norm"`
}

// FetchConfig configures dataset downloads.
type FetchConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	DataDir     string  `yaml:"data_dir" mapstructure:"data_dir"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// ExportConfig configures the visualization bundle output.
type ExportConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	Precision int    `yaml:"precision" mapstructure:"precision"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the read API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("URBANACCESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("city.zone_id_field", "IDquartiere")
	v.SetDefault("city.zone_name_field", "NIL")
	v.SetDefault("city.zoom", 11)
	v.SetDefault("grid.step_km", 0.25)
	v.SetDefault("kernel.epsilon", 0.001)
	v.SetDefault("kpi.norm", "mean")
	v.SetDefault("fetch.user_agent", "urbanaccess/1.0")
	v.SetDefault("fetch.data_dir", "data")
	v.SetDefault("fetch.rate_per_sec", 2.0)
	v.SetDefault("fetch.burst", 1)
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("export.dir", "viz")
	v.SetDefault("export.precision", 4)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "urbanaccess.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
