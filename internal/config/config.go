package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store StoreConfig `yaml:"store" mapstructure:"store"`
	Data  DataConfig  `yaml:"data" mapstructure:"data"`
	Tiles TilesConfig `yaml:"tiles" mapstructure:"tiles"`
	Log   LogConfig   `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the SQLite database backend.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// DataConfig names the artifact directories. All live under Dir unless
// overridden individually.
type DataConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	RastersDir string `yaml:"rasters_dir" mapstructure:"rasters_dir"`
	VectorsDir string `yaml:"vectors_dir" mapstructure:"vectors_dir"`
	TilesDir   string `yaml:"tiles_dir" mapstructure:"tiles_dir"`
}

// TilesConfig configures the tile pyramid fetcher.
type TilesConfig struct {
	Template    string  `yaml:"template" mapstructure:"template"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	Workers     int     `yaml:"workers" mapstructure:"workers"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	ServePort   int     `yaml:"serve_port" mapstructure:"serve_port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Rasters returns the raster artifact directory.
func (d DataConfig) Rasters() string {
	if d.RastersDir != "" {
		return d.RastersDir
	}
	return filepath.Join(d.Dir, "rasters")
}

// Vectors returns the vector artifact directory.
func (d DataConfig) Vectors() string {
	if d.VectorsDir != "" {
		return d.VectorsDir
	}
	return filepath.Join(d.Dir, "vectors")
}

// Tiles returns the tile cache directory.
func (d DataConfig) Tiles() string {
	if d.TilesDir != "" {
		return d.TilesDir
	}
	return filepath.Join(d.Dir, "tiles")
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".arcsys"))
	}

	// Environment
	v.SetEnvPrefix("ARCSYS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "arcsys.db")
	v.SetDefault("data.dir", "data")
	v.SetDefault("tiles.user_agent", "arcsys-cli/1.0 (offline basemap cache)")
	v.SetDefault("tiles.workers", 8)
	v.SetDefault("tiles.timeout_secs", 5)
	v.SetDefault("tiles.rate_per_sec", 16)
	v.SetDefault("tiles.serve_port", 8765)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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
