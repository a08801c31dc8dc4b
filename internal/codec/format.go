// Package codec turns a bench into a compact, URL-safe setup token and
// back.
//
// Token layout (format version 1):
//
//	token   = "" | version *( "~" record )
//	record  = tag "_" x "_" y "_" rotation *( "_" key value )
//
// Tags are registry tags ([A-Z][A-Za-z]*), keys are lowercase parameter
// keys and values use the short decimal form of registry.FormatNumber.
// Parameters equal to their kind default are omitted. Every character is
// RFC 3986 unreserved, so tokens need no percent-encoding in a query.
package codec

import "github.com/polarcraft/polarstudio/internal/registry"

// Token is an encoded bench.
type Token string

const (
	// FormatVersion is the newest token format this build writes and reads.
	FormatVersion = 1
	// MinFormatVersion is the oldest token format this build still reads.
	MinFormatVersion = 1

	// RecordSeparator separates the version marker and component records.
	RecordSeparator = '~'
	// FieldSeparator separates fields inside a record.
	FieldSeparator = '_'

	// DefaultPrecision is the number of decimals kept for every number;
	// rounding error is at most 5e-4.
	DefaultPrecision = 3
	// DefaultMaxComponents caps how many records a decoder accepts.
	DefaultMaxComponents = 256
)

type options struct {
	precision     int
	maxComponents int
}

func defaultOptions() options {
	return options{
		precision:     DefaultPrecision,
		maxComponents: DefaultMaxComponents,
	}
}

// Option configures an Encoder, Decoder or Estimator.
type Option func(*options)

// WithPrecision sets the number of decimals written for every number.
// Values are clamped to [0, registry.MaxDecimals].
func WithPrecision(decimals int) Option {
	return func(o *options) {
		if decimals < 0 {
			decimals = 0
		}
		if decimals > registry.MaxDecimals {
			decimals = registry.MaxDecimals
		}
		o.precision = decimals
	}
}

// WithMaxComponents bounds the number of records a decoder accepts.
func WithMaxComponents(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxComponents = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
