package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "WEBSERVER"

var ErrInvalidPort = errors.New("port must be between 0 and 65535")

// Config holds all application configuration.
type Config struct {
	Port           int           `mapstructure:"port"`
	Env            string        `mapstructure:"env"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
	MaxBodyBytes   int           `mapstructure:"max_body_bytes"`
	LogLevel       string        `mapstructure:"log_level"`
}

// Default returns the configuration used when nothing overrides it.
// Read and write timeouts are disabled.
func Default() *Config {
	return &Config{
		Port:           8080,
		Env:            "development",
		MaxHeaderBytes: 1 << 20,
		MaxBodyBytes:   10 << 20,
		LogLevel:       "info",
	}
}

// flag name -> config key
var flagKeys = map[string]string{
	"port":             "port",
	"env":              "env",
	"read-timeout":     "read_timeout",
	"write-timeout":    "write_timeout",
	"max-header-bytes": "max_header_bytes",
	"max-body-bytes":   "max_body_bytes",
	"log-level":        "log_level",
}

// RegisterFlags adds the configuration flags to fs
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Int("port", d.Port, "HTTP server port")
	fs.String("env", d.Env, "Environment (development/production)")
	fs.Duration("read-timeout", d.ReadTimeout, "Deadline for reading a request, 0 disables it")
	fs.Duration("write-timeout", d.WriteTimeout, "Deadline for writing a response, 0 disables it")
	fs.Int("max-header-bytes", d.MaxHeaderBytes, "Maximum size of the request line and headers")
	fs.Int("max-body-bytes", d.MaxBodyBytes, "Maximum declared request body size, 0 disables it")
	fs.String("log-level", d.LogLevel, "Log level (debug/info/warn/error)")
}

// Load builds the configuration from defaults, the optional config file,
// WEBSERVER_* environment variables and flags set on fs, in increasing
// priority. fs may be nil.
func Load(fs *pflag.FlagSet, file string) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("port", d.Port)
	v.SetDefault("env", d.Env)
	v.SetDefault("read_timeout", d.ReadTimeout)
	v.SetDefault("write_timeout", d.WriteTimeout)
	v.SetDefault("max_header_bytes", d.MaxHeaderBytes)
	v.SetDefault("max_body_bytes", d.MaxBodyBytes)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	return nil
}

// Addr returns the listen address for Port
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// IsProduction reports whether Env is "production"
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
