package clipboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aymanbagabas/go-osc52/v2"
)

// Field is a transient, off-screen holder for the text being copied.
type Field interface {
	// Select marks the whole field content as the copy source.
	Select() error
	// Remove disposes of the field. It is safe to call more than once.
	Remove() error
}

// Surface creates staging fields and runs the synchronous copy command.
type Surface interface {
	CreateField(text string) (Field, error)
	Copy(f Field) error
}

var (
	errNotSelected  = errors.New("clipboard field has no selection")
	errFieldRemoved = errors.New("clipboard field already removed")
	errForeignField = errors.New("clipboard field was not created by this surface")
)

// TerminalSurface stages the text in a private temp file and copies it by
// writing an OSC 52 escape sequence to the terminal, which forwards it to
// the local clipboard even over SSH.
type TerminalSurface struct {
	out io.Writer
	dir string
	env func(string) string
}

// NewTerminalSurface returns a surface that writes escape sequences to
// out, normally os.Stderr so piped stdout stays clean.
func NewTerminalSurface(out io.Writer) *TerminalSurface {
	return &TerminalSurface{out: out, env: os.Getenv}
}

// WithTempDir stages fields in dir instead of the system temp directory.
func (s *TerminalSurface) WithTempDir(dir string) *TerminalSurface {
	s.dir = dir
	return s
}

// CreateField implements Surface.
func (s *TerminalSurface) CreateField(text string) (Field, error) {
	f, err := os.CreateTemp(s.dir, "polarstudio-clip-*")
	if err != nil {
		return nil, fmt.Errorf("creating clipboard field: %w", err)
	}

	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("staging clipboard text: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("staging clipboard text: %w", err)
	}

	return &fileField{path: f.Name()}, nil
}

// Copy implements Surface.
func (s *TerminalSurface) Copy(f Field) error {
	ff, ok := f.(*fileField)
	if !ok {
		return errForeignField
	}
	if s.out == nil {
		return errors.New("no terminal to copy through")
	}

	text, err := ff.selection()
	if err != nil {
		return err
	}

	seq := osc52.New(text)
	switch term := s.env("TERM"); {
	case s.env("TMUX") != "":
		seq = seq.Tmux()
	case strings.HasPrefix(term, "screen"):
		seq = seq.Screen()
	}

	if _, err := seq.WriteTo(s.out); err != nil {
		return fmt.Errorf("writing OSC 52 sequence: %w", err)
	}
	return nil
}

// fileField is a field backed by a temp file.
type fileField struct {
	mu       sync.Mutex
	path     string
	selected string
	ok       bool
	removed  bool
}

func (f *fileField) Select() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.removed {
		return errFieldRemoved
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("selecting clipboard field: %w", err)
	}
	f.selected, f.ok = string(data), true
	return nil
}

func (f *fileField) selection() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.removed {
		return "", errFieldRemoved
	}
	if !f.ok {
		return "", errNotSelected
	}
	return f.selected, nil
}

func (f *fileField) Remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.removed {
		return nil
	}
	f.removed = true
	f.selected, f.ok = "", false
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing clipboard field: %w", err)
	}
	return nil
}
