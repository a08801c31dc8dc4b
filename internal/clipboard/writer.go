// Package clipboard copies share links to the user's clipboard. It tries
// the platform clipboard first and falls back to a synchronous copy
// through a transient staging field that is always removed afterwards.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned by the system writer when no clipboard
// utility is available (e.g. a headless Linux box without xclip).
var ErrUnsupported = errors.New("platform clipboard not supported")

// Writer is the asynchronous, platform clipboard path.
type Writer interface {
	WriteAll(text string) error
}

// WriterFunc adapts a function to the Writer interface.
type WriterFunc func(text string) error

// WriteAll calls f(text).
func (f WriterFunc) WriteAll(text string) error {
	return f(text)
}

// SystemWriter writes through the operating system clipboard.
type SystemWriter struct{}

// WriteAll implements Writer.
func (SystemWriter) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}
