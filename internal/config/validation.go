package config

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/polarcraft/polarstudio/internal/logging"
	"github.com/polarcraft/polarstudio/internal/registry"
	"github.com/polarcraft/polarstudio/internal/share"
	"github.com/polarcraft/polarstudio/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateShareConfigDetails(&config.Share, result)
	validateCodecConfigDetails(&config.Codec, result)
	validateServerConfigDetails(&config.Server, result)
	validateClipboardConfigDetails(&config.Clipboard, result)
	validateLogConfigDetails(&config.Log, result)

	result.Valid = !result.HasErrors()

	return result
}

// maxSafeURLLength is where browsers and chat clients start truncating.
const maxSafeURLLength = 8000

func validateShareConfigDetails(config *ShareConfig, result *ValidationResult) {
	if err := validation.ValidateShareOrigin(config.Origin); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "share.origin",
			Value:   config.Origin,
			Message: err.Error(),
			Suggestions: []string{
				"Use the address the studio is served from, e.g. https://polarcraft.example",
				"Leave out query strings and fragments",
			},
		})
		return
	}

	if u, err := url.Parse(config.Origin); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:       "share.origin",
			Value:       config.Origin,
			Message:     "share links use plain http on a public host",
			Suggestions: []string{"Use https for links shared outside your machine"},
		})
	}

	prefix := len(config.Origin) + len(share.StudioPath+"?module="+share.Module+"&"+share.SetupParam+"=")
	switch {
	case config.MaxURLLength <= prefix:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "share.max_url_length",
			Value:   config.MaxURLLength,
			Message: fmt.Sprintf("limit %d leaves no room for a token after the %d-character prefix", config.MaxURLLength, prefix),
			Suggestions: []string{
				fmt.Sprintf("The default limit is %d", share.DefaultMaxURLLength),
			},
		})
	case config.MaxURLLength > maxSafeURLLength:
		result.Warnings = append(result.Warnings, ValidationError{
			Field:       "share.max_url_length",
			Value:       config.MaxURLLength,
			Message:     "links this long are truncated by some browsers and chat clients",
			Suggestions: []string{fmt.Sprintf("Keep the limit at or below %d", maxSafeURLLength)},
		})
	}
}

func validateCodecConfigDetails(config *CodecConfig, result *ValidationResult) {
	if config.Precision < 0 || config.Precision > registry.MaxDecimals {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "codec.precision",
			Value:       config.Precision,
			Message:     fmt.Sprintf("precision must be between 0 and %d decimals", registry.MaxDecimals),
			Suggestions: []string{"The default precision of 3 keeps rounding error below 1e-3"},
		})
	} else if config.Precision < 3 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:       "codec.precision",
			Value:       config.Precision,
			Message:     "round trips may drift by more than 1e-3",
			Suggestions: []string{"Use 3 or more decimals for sub-micrometre positions"},
		})
	}

	if config.MaxComponents < 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "codec.max_components",
			Value:       config.MaxComponents,
			Message:     "at least one component must be decodable",
			Suggestions: []string{"The default is 256 components"},
		})
	}
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	// Validate port
	if config.Port < 0 || config.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			Suggestions: []string{
				"Use a port between 1024-65535 for non-privileged access",
				"Port 0 allows system to assign an available port",
			},
		})
	} else if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
			Suggestions: []string{
				"Consider using a port above 1024 for development",
			},
		})
	}

	// Validate host
	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.host",
				Value:   config.Host,
				Message: err.Error(),
				Suggestions: []string{
					"Use 'localhost' for local development",
					"Use '0.0.0.0' to bind to all interfaces",
				},
			})
		}
	}

	for _, origin := range config.AllowedOrigins {
		var err error
		if strings.Contains(origin, "://") {
			err = validation.ValidateURL(origin)
		} else {
			host, _, splitErr := net.SplitHostPort(origin)
			if splitErr != nil {
				host = origin
			}
			err = validateHostname(host)
		}
		if err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:       "server.allowed_origins",
				Value:       origin,
				Message:     err.Error(),
				Suggestions: []string{"List origins as 'https://host' or 'host:port'"},
			})
		}
	}
}

func validateClipboardConfigDetails(config *ClipboardConfig, result *ValidationResult) {
	if config.Timeout < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "clipboard.timeout",
			Value:   config.Timeout,
			Message: "timeout cannot be negative",
		})
	}

	if !contains([]string{FallbackOSC52, FallbackNone}, config.Fallback) {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "clipboard.fallback",
			Value:       config.Fallback,
			Message:     fmt.Sprintf("unknown fallback '%s'", config.Fallback),
			Suggestions: []string{"Available fallbacks: " + FallbackOSC52 + ", " + FallbackNone},
		})
	}
}

func validateLogConfigDetails(config *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "log.level",
			Value:   config.Level,
			Message: err.Error(),
		})
	}

	if !contains([]string{"text", "json"}, config.Format) {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.format",
			Value:       config.Format,
			Message:     fmt.Sprintf("unknown log format '%s'", config.Format),
			Suggestions: []string{"Use 'text' for terminals and 'json' for log collectors"},
		})
	}
}

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func validateHostname(host string) error {
	// Check for dangerous characters
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if net.ParseIP(host) != nil {
		return nil
	}

	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}

	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
