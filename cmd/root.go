// Package cmd provides the polarstudio command-line interface.
//
// Configuration System:
//
//	Settings are read with clear precedence:
//	1. Command-line flags (--config, --log-level, serve --port, ...) - highest priority
//	2. POLARSTUDIO_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (POLARSTUDIO_SHARE_ORIGIN, ...)
//	4. Configuration file (.polarstudio.yml) - lowest priority
//
// Environment Variables:
//
//	POLARSTUDIO_CONFIG_FILE: Path to custom configuration file
//	POLARSTUDIO_SHARE_ORIGIN: Origin share links are built on
//	POLARSTUDIO_SHARE_MAX_URL_LENGTH: Share link length limit
//	POLARSTUDIO_SERVER_PORT: Override server port
//	And every other key following the POLARSTUDIO_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/polarcraft/polarstudio/internal/clipboard"
	"github.com/polarcraft/polarstudio/internal/codec"
	"github.com/polarcraft/polarstudio/internal/config"
	studioerrors "github.com/polarcraft/polarstudio/internal/errors"
	"github.com/polarcraft/polarstudio/internal/logging"
	"github.com/polarcraft/polarstudio/internal/share"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "polarstudio",
	Short: "Build, share and open optical-bench setups",
	Long: `polarstudio turns an optical-bench setup into a compact token that fits in a
share link, and turns shared links back into benches.

Key Features:
  • Compact, versioned bench tokens with default omission
  • Share links checked against the URL length limit
  • Clipboard copy with a terminal fallback
  • Studio server with a live length estimate
  • Jones-calculus detector readings for shared benches

Quick Start:
  polarstudio init                     Write a .polarstudio.yml
  polarstudio share bench.yaml --copy  Build and copy a share link
  polarstudio decode '<link>'          Turn a link back into a bench file
  polarstudio edit bench.yaml          Edit a bench with a live length estimate
  polarstudio serve                    Start the studio server`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .polarstudio.yml, can also use POLARSTUDIO_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig points viper at the config file and enables environment
// overrides. A missing default file is not an error; a file named
// explicitly is read by loadConfig, which reports problems.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(strings.TrimSuffix(config.DefaultFile, ".yml"))
	}

	config.ConfigureEnv(viper.GetViper())
}

// loadConfig reads the config file, if any, and returns the validated
// configuration.
func loadConfig() (*config.Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the command logger. Logs go to stderr so that stdout
// carries only command output.
func newLogger(cfg *config.Config, component string) (logging.Logger, error) {
	lc, err := cfg.LoggerConfig(os.Stderr)
	if err != nil {
		return nil, err
	}
	lc.Component = component
	return logging.NewLogger(lc), nil
}

// newCopier builds the clipboard copier for cfg.
func newCopier(cfg *config.Config, logger logging.Logger, stderr io.Writer) *clipboard.Copier {
	opts := []clipboard.Option{
		clipboard.WithTimeout(cfg.Clipboard.Timeout),
		clipboard.WithLogger(logger),
	}
	if cfg.Clipboard.Fallback == config.FallbackNone {
		opts = append(opts, clipboard.WithSurface(nil))
	} else {
		opts = append(opts, clipboard.WithSurface(clipboard.NewTerminalSurface(stderr)))
	}
	return clipboard.NewCopier(opts...)
}

// readToken accepts a bare token or a full share link.
func readToken(arg string) (codec.Token, error) {
	return share.ParseLink(arg)
}

// userError rewrites token errors into the message a user sees, keeping
// the detailed error for --log-level debug.
func userError(cmd *cobra.Command, logger logging.Logger, err error) error {
	var se *studioerrors.StudioError
	if !errors.As(err, &se) {
		return err
	}
	studioerrors.NewErrorHandler(logger).Handle(contextOf(cmd), err)

	switch se.Type {
	case studioerrors.ErrorTypeFormat, studioerrors.ErrorTypeMalformed, studioerrors.ErrorTypeUnknown:
		return fmt.Errorf("%s (%s)", studioerrors.UserMessage(err, envLanguage()), se.Code)
	default:
		return err
	}
}

// envLanguage matches the POSIX locale, e.g. zh_CN.UTF-8, to a supported
// message language.
func envLanguage() language.Tag {
	locale := os.Getenv("LC_ALL")
	if locale == "" {
		locale = os.Getenv("LANG")
	}
	locale, _, _ = strings.Cut(locale, ".")
	return studioerrors.MatchLanguage(strings.ReplaceAll(locale, "_", "-"))
}

// contextOf returns the command context, or Background when the command
// was run without one.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
