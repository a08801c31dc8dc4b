package tui

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarcraft/polarstudio/internal/benchfile"
	"github.com/polarcraft/polarstudio/internal/share"
)

type stubCopier struct {
	text string
	ok   bool
}

func (s *stubCopier) Copy(_ context.Context, text string) bool {
	s.text = text
	return s.ok
}

func newEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	b, err := share.NewBuilder("https://polar.example")
	require.NoError(t, err)
	return NewEditor(nil, b, opts...)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(e *Editor, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = e.Update(key(k))
	}
	return cmd
}

func TestAddComponentsUpdatesEstimate(t *testing.T) {
	e := newEditor(t)
	assert.Equal(t, 0, e.Preview().EstimatedLength)

	press(e, "a", "enter")
	s := e.State()
	require.Len(t, s, 1)
	assert.Equal(t, "S", s[0].Kind.Tag)
	assert.Equal(t, "s0", s[0].ID)
	one := e.Preview().EstimatedLength
	assert.Greater(t, one, 0)

	press(e, "a", "down", "enter")
	s = e.State()
	require.Len(t, s, 2)
	assert.Equal(t, "M", s[1].Kind.Tag)
	assert.Equal(t, 50.0, s[1].Position.X)
	assert.Greater(t, e.Preview().EstimatedLength, one)
	assert.Contains(t, e.View(), "Link length")
}

func TestRotateAndDelete(t *testing.T) {
	e := newEditor(t)
	press(e, "a", "enter")

	press(e, "]")
	assert.Equal(t, 15.0, e.State()[0].Rotation)
	press(e, "[", "[")
	assert.Equal(t, 345.0, e.State()[0].Rotation)

	press(e, "d")
	assert.Empty(t, e.State())
	assert.Equal(t, 0, e.Preview().EstimatedLength)
}

func TestEditCommitsValidInput(t *testing.T) {
	e := newEditor(t)
	press(e, "a", "enter", "enter")
	require.Equal(t, modeEdit, e.mode)
	require.Len(t, e.inputs, 6)

	press(e, "backspace", "7", "enter")
	assert.Equal(t, modeList, e.mode)
	assert.Equal(t, 7.0, e.State()[0].Position.X)
	assert.NoError(t, e.err)
}

func TestEditRejectsInvalidInput(t *testing.T) {
	e := newEditor(t)
	press(e, "a", "enter", "enter")

	press(e, "backspace", "x")
	assert.Error(t, e.err)

	press(e, "enter")
	assert.Equal(t, modeEdit, e.mode)

	press(e, "esc")
	assert.Equal(t, modeList, e.mode)
	assert.Equal(t, 0.0, e.State()[0].Position.X)
}

func TestEditRejectsOutOfRangeParam(t *testing.T) {
	e := newEditor(t)
	press(e, "a", "enter", "enter")

	// Focus the wavelength field, after x, y and rotation.
	press(e, "tab", "tab", "tab")
	for range e.inputs[e.focus].Value() {
		press(e, "backspace")
	}
	press(e, "9", "9", "9", "9")
	require.Error(t, e.err)
	assert.Contains(t, e.err.Error(), "wavelength")
}

func TestCopyLink(t *testing.T) {
	copier := &stubCopier{ok: true}
	e := newEditor(t, WithCopier(copier))

	assert.Nil(t, press(e, "c"))
	assert.Equal(t, "Nothing to share.", e.status)

	press(e, "a", "enter")
	cmd := press(e, "c")
	require.NotNil(t, cmd)

	e.Update(cmd())
	assert.Equal(t, "https://polar.example/studio?module=design&setup=1~S_0_0_0", copier.text)
	assert.Equal(t, "Link copied.", e.status)
	assert.Contains(t, e.View(), copier.text)
}

func TestCopyLinkFailureKeepsLink(t *testing.T) {
	e := newEditor(t, WithCopier(&stubCopier{ok: false}))
	press(e, "a", "enter")

	e.Update(press(e, "c")())
	assert.Contains(t, e.status, "Couldn't copy automatically")
	assert.Equal(t, "https://polar.example/studio?module=design&setup=1~S_0_0_0", e.link)
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	e := newEditor(t, WithPath(path))
	press(e, "a", "enter", "]")

	cmd := press(e, "s")
	require.NotNil(t, cmd)
	e.Update(cmd())
	require.NoError(t, e.err)
	assert.Equal(t, "Saved "+path, e.status)

	loaded, err := benchfile.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 15.0, loaded[0].Rotation)
}

func TestSaveWithoutPath(t *testing.T) {
	e := newEditor(t)
	assert.Nil(t, press(e, "s"))
	assert.Contains(t, e.status, "No file")
}

func TestQuit(t *testing.T) {
	e := newEditor(t)
	cmd := press(e, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
