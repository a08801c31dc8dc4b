package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/polarcraft/polarstudio/internal/registry"
	"github.com/polarcraft/polarstudio/internal/share"
)

// ConfigWizard provides an interactive setup experience for a new studio
// deployment.
type ConfigWizard struct {
	reader *bufio.Reader
	out    io.Writer
	config *Config
}

// NewConfigWizard creates a new configuration wizard reading answers from
// in and writing prompts to out.
func NewConfigWizard(in io.Reader, out io.Writer) *ConfigWizard {
	return &ConfigWizard{
		reader: bufio.NewReader(in),
		out:    out,
		config: Default(),
	}
}

// Run executes the interactive configuration wizard
func (w *ConfigWizard) Run() (*Config, error) {
	fmt.Fprintln(w.out, "polarstudio configuration")
	fmt.Fprintln(w.out, "=========================")
	fmt.Fprintln(w.out, "Press enter to keep the value in brackets.")
	fmt.Fprintln(w.out)

	if err := w.configureShare(); err != nil {
		return nil, fmt.Errorf("share configuration failed: %w", err)
	}

	if err := w.configureCodec(); err != nil {
		return nil, fmt.Errorf("codec configuration failed: %w", err)
	}

	if err := w.configureServer(); err != nil {
		return nil, fmt.Errorf("server configuration failed: %w", err)
	}

	w.configureClipboard()

	if err := validateConfig(w.config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Configuration completed.")
	return w.config, nil
}

func (w *ConfigWizard) configureShare() error {
	fmt.Fprintln(w.out, "Share links")
	fmt.Fprintln(w.out, "-----------")

	w.config.Share.Origin = strings.TrimRight(w.askString("Studio origin", w.config.Share.Origin), "/")

	limit, err := w.askInt("Maximum share URL length", w.config.Share.MaxURLLength, 100, 65536)
	if err != nil {
		return err
	}
	w.config.Share.MaxURLLength = limit

	fmt.Fprintln(w.out)
	return nil
}

func (w *ConfigWizard) configureCodec() error {
	precision, err := w.askInt("Decimals kept per number", w.config.Codec.Precision, 0, registry.MaxDecimals)
	if err != nil {
		return err
	}
	w.config.Codec.Precision = precision
	return nil
}

func (w *ConfigWizard) configureServer() error {
	fmt.Fprintln(w.out, "Studio server")
	fmt.Fprintln(w.out, "-------------")

	port, err := w.askInt("Server port", w.config.Server.Port, 1, 65535)
	if err != nil {
		return err
	}
	w.config.Server.Port = port

	w.config.Server.Host = w.askString("Server host", w.config.Server.Host)

	fmt.Fprintln(w.out)
	return nil
}

func (w *ConfigWizard) configureClipboard() {
	w.config.Clipboard.Fallback = w.askChoice(
		"Clipboard fallback",
		[]string{FallbackOSC52, FallbackNone},
		w.config.Clipboard.Fallback,
	)
}

// Helper methods for user interaction

func (w *ConfigWizard) askString(prompt, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprintf(w.out, "%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Fprintf(w.out, "%s: ", prompt)
	}

	input, err := w.reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" || (err != nil && err != io.EOF) {
		return defaultValue
	}

	return input
}

func (w *ConfigWizard) askInt(prompt string, defaultValue, min, max int) (int, error) {
	for {
		fmt.Fprintf(w.out, "%s [%d]: ", prompt, defaultValue)

		input, err := w.reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			return defaultValue, nil
		}

		value, convErr := strconv.Atoi(input)
		switch {
		case convErr != nil:
			fmt.Fprintf(w.out, "Invalid number. Please enter a number between %d and %d.\n", min, max)
		case value < min || value > max:
			fmt.Fprintf(w.out, "Number out of range. Please enter a number between %d and %d.\n", min, max)
		default:
			return value, nil
		}

		if err != nil {
			return 0, fmt.Errorf("%s: no valid answer before end of input", prompt)
		}
	}
}

func (w *ConfigWizard) askChoice(prompt string, choices []string, defaultValue string) string {
	for {
		fmt.Fprintf(w.out, "%s [%s] (options: %s): ", prompt, defaultValue, strings.Join(choices, ", "))

		input, err := w.reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			return defaultValue
		}

		for _, choice := range choices {
			if strings.EqualFold(input, choice) {
				return choice
			}
		}

		fmt.Fprintf(w.out, "Invalid choice. Please select from: %s\n", strings.Join(choices, ", "))
		if err != nil {
			return defaultValue
		}
	}
}

// Marshal renders cfg as a YAML config file.
func Marshal(cfg *Config) ([]byte, error) {
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	header := "# polarstudio configuration\n# Share links point at " + cfg.Share.Origin + share.StudioPath + "\n\n"
	return append([]byte(header), body...), nil
}

// WriteConfigFile writes cfg to filename. An existing file is only
// replaced when overwrite is set.
func WriteConfigFile(filename string, cfg *Config, overwrite bool) error {
	if _, err := os.Stat(filename); err == nil && !overwrite {
		return fmt.Errorf("configuration file %s already exists", filename)
	}

	content, err := Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}

	if err := os.WriteFile(filename, content, 0o644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}
