package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	studioerrors "github.com/polarcraft/polarstudio/internal/errors"
	"github.com/polarcraft/polarstudio/internal/logging"
)

func TestLoadDefaults(t *testing.T) {
	config, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, Default(), config)
	assert.Equal(t, "http://localhost:5173", config.Share.Origin)
	assert.Equal(t, 2000, config.Share.MaxURLLength)
	assert.Equal(t, 3, config.Codec.Precision)
	assert.Equal(t, 256, config.Codec.MaxComponents)
	assert.Equal(t, 2*time.Second, config.Clipboard.Timeout)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(v *viper.Viper)
		expectError bool
		check       func(t *testing.T, c *Config)
	}{
		{
			name: "custom share settings",
			setup: func(v *viper.Viper) {
				v.Set("share.origin", "https://polarcraft.example/")
				v.Set("share.max_url_length", 4000)
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "https://polarcraft.example", c.Share.Origin)
				assert.Equal(t, 4000, c.Share.MaxURLLength)
			},
		},
		{
			name: "duration from string",
			setup: func(v *viper.Viper) {
				v.Set("clipboard.timeout", "500ms")
				v.Set("clipboard.fallback", "NONE")
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 500*time.Millisecond, c.Clipboard.Timeout)
				assert.Equal(t, FallbackNone, c.Clipboard.Fallback)
			},
		},
		{
			name: "allowed origins list",
			setup: func(v *viper.Viper) {
				v.Set("server.allowed_origins", "localhost:8080, https://polarcraft.example")
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, []string{"localhost:8080", "https://polarcraft.example"}, c.Server.AllowedOrigins)
			},
		},
		{
			name:        "invalid port type",
			setup:       func(v *viper.Viper) { v.Set("server.port", "invalid_port") },
			expectError: true,
		},
		{
			name:        "bad origin",
			setup:       func(v *viper.Viper) { v.Set("share.origin", "javascript:alert(1)") },
			expectError: true,
		},
		{
			name:        "limit below prefix",
			setup:       func(v *viper.Viper) { v.Set("share.max_url_length", 20) },
			expectError: true,
		},
		{
			name:        "precision out of range",
			setup:       func(v *viper.Viper) { v.Set("codec.precision", 9) },
			expectError: true,
		},
		{
			name:        "unknown fallback",
			setup:       func(v *viper.Viper) { v.Set("clipboard.fallback", "xsel") },
			expectError: true,
		},
		{
			name:        "unknown log level",
			setup:       func(v *viper.Viper) { v.Set("log.level", "chatty") },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			tt.setup(v)

			config, err := LoadFrom(v)
			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, config)
				var se *studioerrors.StudioError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, studioerrors.ErrorTypeConfig, se.Type)
				return
			}
			require.NoError(t, err)
			tt.check(t, config)
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("POLARSTUDIO_SHARE_MAX_URL_LENGTH", "3000")
	t.Setenv("POLARSTUDIO_CODEC_PRECISION", "4")

	v := viper.New()
	ConfigureEnv(v)

	config, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 3000, config.Share.MaxURLLength)
	assert.Equal(t, 4, config.Codec.Precision)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(`
share:
  origin: https://polarcraft.example
codec:
  precision: 2
server:
  port: 9090
`), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	config, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "https://polarcraft.example", config.Share.Origin)
	assert.Equal(t, 2, config.Codec.Precision)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, 2000, config.Share.MaxURLLength, "unset keys keep defaults")
}

func TestShareBuilderFromConfig(t *testing.T) {
	config := Default()
	config.Share.MaxURLLength = 1234

	builder, err := config.ShareBuilder()
	require.NoError(t, err)
	assert.Equal(t, 1234, builder.Limit())
	assert.Equal(t, "http://localhost:5173", builder.Origin())
}

func TestLoggerConfig(t *testing.T) {
	config := Default()
	config.Log.Level = "debug"
	config.Log.Format = "json"

	var buf bytes.Buffer
	lc, err := config.LoggerConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, "json", lc.Format)
}

func TestValidateConfigWithDetails(t *testing.T) {
	config := Default()
	config.Share.Origin = "http://polarcraft.example"
	config.Codec.Precision = 1
	config.Server.Port = 80
	config.Server.AllowedOrigins = []string{"localhost:3000", "bad host;"}

	result := ValidateConfigWithDetails(config)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "server.allowed_origins", result.Errors[0].Field)

	fields := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		fields = append(fields, w.Field)
	}
	assert.ElementsMatch(t, []string{"share.origin", "codec.precision", "server.port"}, fields)

	out := result.String()
	assert.Contains(t, out, "Validation errors:")
	assert.Contains(t, out, "Validation warnings:")
}

func TestValidateHostname(t *testing.T) {
	for _, host := range []string{"localhost", "0.0.0.0", "::1", "studio.polarcraft.example"} {
		assert.NoError(t, validateHostname(host), host)
	}
	for _, host := range []string{"bad;host", "-leading", "a b"} {
		assert.Error(t, validateHostname(host), host)
	}
}

func TestWizard(t *testing.T) {
	answers := strings.Join([]string{
		"https://polarcraft.example/",
		"abc",
		"3000",
		"",
		"9000",
		"0.0.0.0",
		"none",
	}, "\n") + "\n"

	var out bytes.Buffer
	config, err := NewConfigWizard(strings.NewReader(answers), &out).Run()
	require.NoError(t, err)

	assert.Equal(t, "https://polarcraft.example", config.Share.Origin)
	assert.Equal(t, 3000, config.Share.MaxURLLength)
	assert.Equal(t, 3, config.Codec.Precision)
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, FallbackNone, config.Clipboard.Fallback)
	assert.Contains(t, out.String(), "Invalid number")
}

func TestWizardEndOfInputKeepsDefaults(t *testing.T) {
	config, err := NewConfigWizard(strings.NewReader(""), &bytes.Buffer{}).Run()
	require.NoError(t, err)
	assert.Equal(t, Default(), config)
}

func TestWriteConfigFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	config := Default()
	config.Share.Origin = "https://polarcraft.example"
	config.Clipboard.Timeout = 750 * time.Millisecond

	require.NoError(t, WriteConfigFile(path, config, false))
	assert.Error(t, WriteConfigFile(path, config, false), "existing file is kept")
	require.NoError(t, WriteConfigFile(path, config, true))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	loaded, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}
