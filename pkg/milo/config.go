package milo

import (
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages pipeline configuration using Viper.
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults.
func NewConfig() *Config {
	v := viper.New()

	// Neighbourhood construction parameters
	v.SetDefault("nhood.proportion", 0.1)
	v.SetDefault("nhood.k", 21)
	v.SetDefault("nhood.dimensions", 30)
	v.SetDefault("nhood.refined", true)
	v.SetDefault("nhood.reduced_dim", "PCA")
	v.SetDefault("nhood.random_seed", int64(42))

	// Spatial FDR parameters
	v.SetDefault("fdr.weighting", "k-distance")

	// Performance parameters
	v.SetDefault("performance.num_workers", runtime.NumCPU())

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_progress", true)

	return &Config{v: v}
}

// LoadFromFile loads configuration from file.
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// Getters for neighbourhood construction parameters
func (c *Config) Proportion() float64 { return c.v.GetFloat64("nhood.proportion") }
func (c *Config) K() int              { return c.v.GetInt("nhood.k") }
func (c *Config) Dimensions() int     { return c.v.GetInt("nhood.dimensions") }
func (c *Config) Refined() bool       { return c.v.GetBool("nhood.refined") }
func (c *Config) ReducedDim() string  { return c.v.GetString("nhood.reduced_dim") }
func (c *Config) RandomSeed() int64   { return c.v.GetInt64("nhood.random_seed") }

func (c *Config) Weighting() string { return c.v.GetString("fdr.weighting") }

func (c *Config) NumWorkers() int { return c.v.GetInt("performance.num_workers") }

func (c *Config) LogLevel() string     { return c.v.GetString("logging.level") }
func (c *Config) EnableProgress() bool { return c.v.GetBool("logging.enable_progress") }

// Set allows dynamic configuration changes.
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// CreateLogger creates a zerolog logger based on config.
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "milo").Logger()
}
