// Package share composes studio share links from a bench and checks them
// against the URL length limit.
package share

import (
	"context"
	"net/url"
	"strings"

	"github.com/polarcraft/polarstudio/internal/bench"
	"github.com/polarcraft/polarstudio/internal/codec"
	studioerrors "github.com/polarcraft/polarstudio/internal/errors"
	"github.com/polarcraft/polarstudio/internal/registry"
	"github.com/polarcraft/polarstudio/internal/validation"
)

const (
	// StudioPath is the page a share link opens.
	StudioPath = "/studio"
	// Module is the studio module a share link opens in.
	Module = "design"
	// SetupParam is the query parameter carrying the token.
	SetupParam = "setup"

	// DefaultMaxURLLength is the share-link length above which links are
	// flagged as too long for some browsers and chat clients.
	DefaultMaxURLLength = 2000
	// NearLimitRatio is the share of the limit at which Preview warns.
	NearLimitRatio = 0.9
)

// Link is a built share link together with its length check.
type Link struct {
	URL         string      `json:"url"`
	Token       codec.Token `json:"token"`
	Length      int         `json:"length"`
	Limit       int         `json:"limit"`
	WithinLimit bool        `json:"within_limit"`
}

// Preview is the cheap, estimated length check used for live feedback.
type Preview struct {
	EstimatedLength int  `json:"estimated_length"`
	Limit           int  `json:"limit"`
	WithinLimit     bool `json:"within_limit"`
	NearLimit       bool `json:"near_limit"`
}

// Copier copies text to a clipboard and reports success.
type Copier interface {
	Copy(ctx context.Context, text string) bool
}

// Builder builds share links for one origin. It is safe for concurrent use.
type Builder struct {
	origin    string
	prefix    string
	limit     int
	encoder   *codec.Encoder
	estimator *codec.Estimator
}

type builderConfig struct {
	maxURLLength int
	registry     *registry.Registry
	codecOpts    []codec.Option
}

// Option configures a Builder.
type Option func(*builderConfig)

// WithMaxURLLength sets the share-link length limit.
func WithMaxURLLength(n int) Option {
	return func(c *builderConfig) {
		if n > 0 {
			c.maxURLLength = n
		}
	}
}

// WithRegistry sets the registry the estimator precomputes costs for.
func WithRegistry(reg *registry.Registry) Option {
	return func(c *builderConfig) {
		c.registry = reg
	}
}

// WithCodecOptions passes options to the encoder and estimator.
func WithCodecOptions(opts ...codec.Option) Option {
	return func(c *builderConfig) {
		c.codecOpts = append(c.codecOpts, opts...)
	}
}

// NewBuilder returns a Builder for links on origin, e.g.
// "https://polarcraft.example". A trailing slash is ignored.
func NewBuilder(origin string, opts ...Option) (*Builder, error) {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if err := validation.ValidateShareOrigin(origin); err != nil {
		return nil, studioerrors.NewValidationError(studioerrors.ErrCodeInvalidOrigin, "invalid share origin").
			WithCause(err).
			WithContext("origin", origin)
	}

	cfg := builderConfig{maxURLLength: DefaultMaxURLLength}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Builder{
		origin:    origin,
		prefix:    origin + StudioPath + "?module=" + Module + "&" + SetupParam + "=",
		limit:     cfg.maxURLLength,
		encoder:   codec.NewEncoder(cfg.codecOpts...),
		estimator: codec.NewEstimator(cfg.registry, cfg.codecOpts...),
	}, nil
}

// Origin returns the normalized origin.
func (b *Builder) Origin() string {
	return b.origin
}

// Limit returns the configured share-link length limit.
func (b *Builder) Limit() int {
	return b.limit
}

// PrefixLength is the length of everything in a link before the token.
func (b *Builder) PrefixLength() int {
	return len(b.prefix)
}

// URL returns the share link for s, or "" when the bench is empty.
func (b *Builder) URL(s bench.State) string {
	return b.urlFor(b.encoder.Encode(s))
}

func (b *Builder) urlFor(t codec.Token) string {
	if t == "" {
		return ""
	}
	// Tokens only use unreserved characters and need no escaping.
	return b.prefix + string(t)
}

// Build encodes s and measures the resulting link.
func (b *Builder) Build(s bench.State) Link {
	t := b.encoder.Encode(s)
	u := b.urlFor(t)

	return Link{
		URL:         u,
		Token:       t,
		Length:      len(u),
		Limit:       b.limit,
		WithinLimit: len(u) <= b.limit,
	}
}

// Preview checks s against the limit using the length estimator. The
// estimate never undercounts, so WithinLimit is conservative.
func (b *Builder) Preview(s bench.State) Preview {
	estimated := 0
	if n := b.estimator.Estimate(s); n > 0 {
		estimated = len(b.prefix) + n
	}

	return Preview{
		EstimatedLength: estimated,
		Limit:           b.limit,
		WithinLimit:     estimated <= b.limit,
		NearLimit:       float64(estimated) >= NearLimitRatio*float64(b.limit),
	}
}

// Share builds the link for s and hands it to c. A failed copy does not
// invalidate the link; the caller shows it for manual copying.
func (b *Builder) Share(ctx context.Context, s bench.State, c Copier) (Link, bool) {
	link := b.Build(s)
	if link.URL == "" || c == nil {
		return link, false
	}

	return link, c.Copy(ctx, link.URL)
}

// ParseLink extracts the setup token from a pasted share link. Input that
// is not a URL is taken to be a bare token. The token itself is not
// validated; that is the decoder's job.
func ParseLink(raw string) (codec.Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	if !strings.Contains(raw, "?") && !strings.Contains(raw, "://") {
		return codec.Token(raw), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", studioerrors.NewValidationError(studioerrors.ErrCodeInvalidLink, "link is not a valid URL").
			WithCause(err)
	}

	query := u.Query()
	if !query.Has(SetupParam) {
		return "", studioerrors.NewValidationError(studioerrors.ErrCodeInvalidLink, "link has no setup parameter")
	}

	return codec.Token(query.Get(SetupParam)), nil
}
