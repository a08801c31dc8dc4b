// Package config provides configuration management for polarstudio using
// Viper for loading from files, environment variables and command-line
// flags.
//
// Settings come from .polarstudio.yml (or the file named by --config or
// POLARSTUDIO_CONFIG_FILE) with POLARSTUDIO_ environment overrides, e.g.
// POLARSTUDIO_SHARE_MAX_URL_LENGTH=4000. The configuration covers the share
// link origin and length limit, codec precision, the studio server, the
// clipboard fallback and logging.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/polarcraft/polarstudio/internal/codec"
	studioerrors "github.com/polarcraft/polarstudio/internal/errors"
	"github.com/polarcraft/polarstudio/internal/logging"
	"github.com/polarcraft/polarstudio/internal/share"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "POLARSTUDIO"

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = ".polarstudio.yml"

// Clipboard fallback modes.
const (
	FallbackOSC52 = "osc52"
	FallbackNone  = "none"
)

type Config struct {
	Share     ShareConfig     `mapstructure:"share" yaml:"share"`
	Codec     CodecConfig     `mapstructure:"codec" yaml:"codec"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Clipboard ClipboardConfig `mapstructure:"clipboard" yaml:"clipboard"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type ShareConfig struct {
	Origin       string `mapstructure:"origin" yaml:"origin"`
	MaxURLLength int    `mapstructure:"max_url_length" yaml:"max_url_length"`
}

type CodecConfig struct {
	Precision     int `mapstructure:"precision" yaml:"precision"`
	MaxComponents int `mapstructure:"max_components" yaml:"max_components"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins,omitempty"`
}

type ClipboardConfig struct {
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Fallback string        `mapstructure:"fallback" yaml:"fallback"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Share: ShareConfig{
			Origin:       "http://localhost:5173",
			MaxURLLength: share.DefaultMaxURLLength,
		},
		Codec: CodecConfig{
			Precision:     codec.DefaultPrecision,
			MaxComponents: codec.DefaultMaxComponents,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Clipboard: ClipboardConfig{
			Timeout:  2 * time.Second,
			Fallback: FallbackOSC52,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers the built-in values with viper so that
// viper.Get and environment overrides see them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("share.origin", d.Share.Origin)
	v.SetDefault("share.max_url_length", d.Share.MaxURLLength)
	v.SetDefault("codec.precision", d.Codec.Precision)
	v.SetDefault("codec.max_components", d.Codec.MaxComponents)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("clipboard.timeout", d.Clipboard.Timeout)
	v.SetDefault("clipboard.fallback", d.Clipboard.Fallback)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// ConfigureEnv enables POLARSTUDIO_ environment overrides on v.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads, defaults and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, studioerrors.NewConfigError(studioerrors.ErrCodeConfigInvalid, "cannot decode configuration").
			WithCause(err)
	}

	// Handle allowed origins given as one comma separated env value
	config.Server.AllowedOrigins = splitList(strings.Join(config.Server.AllowedOrigins, ","))

	config.Share.Origin = strings.TrimRight(strings.TrimSpace(config.Share.Origin), "/")
	config.Clipboard.Fallback = strings.ToLower(strings.TrimSpace(config.Clipboard.Fallback))

	if err := validateConfig(&config); err != nil {
		return nil, studioerrors.NewConfigError(studioerrors.ErrCodeConfigInvalid, "invalid configuration").
			WithCause(err)
	}

	return &config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// CodecOptions returns the encoder/decoder options for this configuration.
func (c *Config) CodecOptions() []codec.Option {
	return []codec.Option{
		codec.WithPrecision(c.Codec.Precision),
		codec.WithMaxComponents(c.Codec.MaxComponents),
	}
}

// ShareBuilder returns a share-link builder for the configured origin.
func (c *Config) ShareBuilder() (*share.Builder, error) {
	return share.NewBuilder(c.Share.Origin,
		share.WithMaxURLLength(c.Share.MaxURLLength),
		share.WithCodecOptions(c.CodecOptions()...),
	)
}

// LoggerConfig returns the logger settings for output.
func (c *Config) LoggerConfig(output io.Writer) (*logging.LoggerConfig, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return &logging.LoggerConfig{
		Level:  level,
		Format: c.Log.Format,
		Output: output,
	}, nil
}

// validateConfig returns the first validation error, if any.
func validateConfig(config *Config) error {
	result := ValidateConfigWithDetails(config)
	if !result.HasErrors() {
		return nil
	}
	first := result.Errors[0]
	return fmt.Errorf("%s: %s", first.Field, first.Message)
}
