package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	studioerrors "github.com/polarcraft/polarstudio/internal/errors"
	"github.com/polarcraft/polarstudio/internal/logging"
)

// DefaultTimeout bounds the platform clipboard write.
const DefaultTimeout = 2 * time.Second

var (
	errNoWriter  = errors.New("no platform clipboard")
	errNoSurface = errors.New("no fallback copy surface")
)

// Copier copies text with the platform writer and, when that fails, the
// synchronous fallback surface.
type Copier struct {
	writer  Writer
	surface Surface
	timeout time.Duration
	logger  logging.Logger
}

// Option configures a Copier.
type Option func(*Copier)

// WithWriter sets the platform path. A nil writer disables it.
func WithWriter(w Writer) Option {
	return func(c *Copier) { c.writer = w }
}

// WithSurface sets the fallback path. A nil surface disables it.
func WithSurface(s Surface) Option {
	return func(c *Copier) { c.surface = s }
}

// WithTimeout bounds the platform write; zero means no bound beyond ctx.
func WithTimeout(d time.Duration) Option {
	return func(c *Copier) { c.timeout = d }
}

// WithLogger sets the logger failures are reported to.
func WithLogger(l logging.Logger) Option {
	return func(c *Copier) { c.logger = l }
}

// NewCopier returns a Copier using the system clipboard and an OSC 52
// terminal fallback on stderr unless overridden.
func NewCopier(opts ...Option) *Copier {
	c := &Copier{
		writer:  SystemWriter{},
		surface: NewTerminalSurface(os.Stderr),
		timeout: DefaultTimeout,
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNopLogger()
	}
	return c
}

// Copy copies text and reports whether it reached a clipboard. It never
// panics; failures are logged.
func (c *Copier) Copy(ctx context.Context, text string) bool {
	if err := c.CopyText(ctx, text); err != nil {
		c.logger.Warn(ctx, err, "Clipboard copy failed")
		return false
	}
	return true
}

// CopyText copies text, returning a ClipboardUnavailable error when both
// paths fail. If ctx ends while the platform write is pending the result
// is discarded and the fallback is not attempted.
func (c *Copier) CopyText(ctx context.Context, text string) error {
	asyncErr := c.writeAsync(ctx, text)
	if asyncErr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return studioerrors.NewClipboardUnavailableError(asyncErr, ctx.Err())
	}

	c.logger.Debug(ctx, "Platform clipboard failed, using fallback", "error", asyncErr.Error())

	fallbackErr := c.fallback(ctx, text)
	if fallbackErr == nil {
		return nil
	}
	return studioerrors.NewClipboardUnavailableError(asyncErr, fallbackErr)
}

func (c *Copier) writeAsync(ctx context.Context, text string) error {
	if c.writer == nil {
		return errNoWriter
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("platform clipboard panicked: %v", r)
			}
		}()
		done <- c.writer.WriteAll(text)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("platform clipboard: %w", ctx.Err())
	}
}

// fallback stages text in a transient field, selects it and copies it.
// The field is removed on every exit path, including panics.
func (c *Copier) fallback(ctx context.Context, text string) (err error) {
	if c.surface == nil {
		return errNoSurface
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fallback copy panicked: %v", r)
		}
	}()

	field, err := c.surface.CreateField(text)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := field.Remove(); rerr != nil {
			c.logger.Warn(ctx, rerr, "Failed to remove clipboard field")
		}
	}()

	if err := field.Select(); err != nil {
		return err
	}
	return c.surface.Copy(field)
}
