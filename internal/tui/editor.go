// Package tui is the terminal bench editor. Every keystroke re-runs the
// length estimator so the author sees at once whether the share link
// still fits.
package tui

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/polarcraft/polarstudio/internal/bench"
	"github.com/polarcraft/polarstudio/internal/benchfile"
	"github.com/polarcraft/polarstudio/internal/registry"
	"github.com/polarcraft/polarstudio/internal/share"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#3C6FD8")).
			Padding(0, 1)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#3C6FD8"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFC857"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// rotationStep is the angle [ and ] turn the selected component by.
const rotationStep = 15

type mode int

const (
	modeList mode = iota
	modeAddKind
	modeEdit
)

// field is one editable value of the selected component.
type field struct {
	label string
	spec  registry.ParamSpec
	// param is false for position and rotation.
	param bool
}

// Editor is the bubbletea model of the bench editor.
type Editor struct {
	ctx     context.Context
	state   bench.State
	kinds   []*registry.Kind
	builder *share.Builder
	copier  share.Copier
	path    string

	mode       mode
	selected   int
	kindCursor int
	fields     []field
	inputs     []textinput.Model
	focus      int

	preview share.Preview
	link    string
	status  string
	err     error
}

// Option configures an Editor.
type Option func(*Editor)

// WithCopier enables the copy key.
func WithCopier(c share.Copier) Option {
	return func(e *Editor) { e.copier = c }
}

// WithPath sets the file the save key writes to.
func WithPath(path string) Option {
	return func(e *Editor) { e.path = path }
}

// WithRegistry sets the kinds offered by the add key.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Editor) { e.kinds = reg.Kinds() }
}

// WithContext bounds clipboard copies started from the editor.
func WithContext(ctx context.Context) Option {
	return func(e *Editor) { e.ctx = ctx }
}

// NewEditor returns an editor over a copy of s.
func NewEditor(s bench.State, builder *share.Builder, opts ...Option) *Editor {
	e := &Editor{
		ctx:     context.Background(),
		state:   s.Clone(),
		kinds:   registry.Default().Kinds(),
		builder: builder,
	}
	if e.state == nil {
		e.state = bench.State{}
	}
	for _, opt := range opts {
		opt(e)
	}
	e.refresh()
	return e
}

// State returns a copy of the edited bench.
func (e *Editor) State() bench.State {
	return e.state.Clone()
}

// Preview returns the current length estimate, including uncommitted
// edits.
func (e *Editor) Preview() share.Preview {
	return e.preview
}

type copiedMsg struct {
	url string
	ok  bool
}

type savedMsg struct {
	err error
}

// Init implements tea.Model.
func (e *Editor) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (e *Editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return e, tea.Quit
		}
		switch e.mode {
		case modeList:
			return e.updateList(msg)
		case modeAddKind:
			return e.updateAddKind(msg)
		case modeEdit:
			return e.updateEdit(msg)
		}

	case copiedMsg:
		e.link = msg.url
		if msg.ok {
			e.status = "Link copied."
		} else {
			e.status = "Couldn't copy automatically. Select the link and copy it manually."
		}

	case savedMsg:
		e.err = msg.err
		if msg.err == nil {
			e.status = "Saved " + e.path
		}
	}

	return e, nil
}

func (e *Editor) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e.err = nil
	switch msg.String() {
	case "q":
		return e, tea.Quit
	case "up", "k":
		if e.selected > 0 {
			e.selected--
		}
	case "down", "j":
		if e.selected < len(e.state)-1 {
			e.selected++
		}
	case "a":
		e.mode = modeAddKind
		e.kindCursor = 0
	case "d", "delete":
		if len(e.state) > 0 {
			e.state = append(e.state[:e.selected], e.state[e.selected+1:]...)
			if e.selected >= len(e.state) && e.selected > 0 {
				e.selected--
			}
			e.refresh()
		}
	case "[", "]":
		if len(e.state) > 0 {
			step := float64(rotationStep)
			if msg.String() == "[" {
				step = -step
			}
			c := &e.state[e.selected]
			c.Rotation = registry.NormalizeRotation(c.Rotation+step, registry.MaxDecimals)
			e.refresh()
		}
	case "enter", "e":
		if len(e.state) > 0 {
			e.startEdit()
		}
	case "c":
		return e, e.copyLink()
	case "s":
		return e, e.save()
	}
	return e, nil
}

func (e *Editor) updateAddKind(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		e.mode = modeList
	case "up", "k":
		if e.kindCursor > 0 {
			e.kindCursor--
		}
	case "down", "j":
		if e.kindCursor < len(e.kinds)-1 {
			e.kindCursor++
		}
	case "enter":
		k := e.kinds[e.kindCursor]
		id := strings.ToLower(k.Tag) + strconv.Itoa(len(e.state))
		x := 0.0
		if n := len(e.state); n > 0 {
			x = e.state[n-1].Position.X + 50
		}
		e.state = append(e.state, bench.New(id, k, x, 0, 0))
		e.selected = len(e.state) - 1
		e.mode = modeList
		e.refresh()
	}
	return e, nil
}

func (e *Editor) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		e.mode = modeList
		e.inputs = nil
		e.refresh()
		return e, nil
	case "enter":
		c, err := e.candidate()
		if err != nil {
			e.err = err
			return e, nil
		}
		e.state[e.selected] = c
		e.mode = modeList
		e.inputs = nil
		e.err = nil
		e.refresh()
		return e, nil
	case "tab", "shift+tab":
		e.inputs[e.focus].Blur()
		if msg.String() == "tab" {
			e.focus = (e.focus + 1) % len(e.inputs)
		} else {
			e.focus = (e.focus + len(e.inputs) - 1) % len(e.inputs)
		}
		return e, e.inputs[e.focus].Focus()
	}

	var cmd tea.Cmd
	e.inputs[e.focus], cmd = e.inputs[e.focus].Update(msg)

	// Estimate the uncommitted edit so the limit warning tracks typing.
	if c, err := e.candidate(); err == nil {
		s := e.state.Clone()
		s[e.selected] = c
		e.preview = e.builder.Preview(s)
		e.err = nil
	} else {
		e.err = err
	}
	return e, cmd
}

func (e *Editor) startEdit() {
	c := e.state[e.selected]
	e.fields = []field{
		{label: "x", spec: registry.PositionField},
		{label: "y", spec: registry.PositionField},
		{label: "rotation", spec: registry.RotationField},
	}
	values := []float64{c.Position.X, c.Position.Y, c.Rotation}
	for _, p := range c.Kind.Params {
		e.fields = append(e.fields, field{label: p.Name, spec: p, param: true})
		values = append(values, c.Param(p.Name))
	}

	e.inputs = make([]textinput.Model, len(e.fields))
	for i, f := range e.fields {
		ti := textinput.New()
		ti.Prompt = fmt.Sprintf("%-18s", f.label+":")
		ti.Placeholder = fmt.Sprintf("%s..%s", registry.FormatNumber(f.spec.Min, 3), registry.FormatNumber(f.spec.Max, 3))
		ti.CharLimit = 24
		ti.Width = 16
		ti.SetValue(registry.FormatNumber(values[i], registry.MaxDecimals))
		ti.CursorEnd()
		if i == 0 {
			ti.Focus()
		}
		e.inputs[i] = ti
	}
	e.focus = 0
	e.mode = modeEdit
}

// candidate builds the selected component from the edit inputs.
func (e *Editor) candidate() (bench.Component, error) {
	c := e.state[e.selected].Clone()
	if c.Params == nil {
		c.Params = c.Kind.Defaults()
	}

	for i, f := range e.fields {
		text := strings.TrimSpace(e.inputs[i].Value())
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return c, fmt.Errorf("%s: %q is not a number", f.label, text)
		}
		switch {
		case f.label == "rotation":
			c.Rotation = v
		case !f.param:
			if !f.spec.Contains(v) {
				return c, fmt.Errorf("%s must be between %g and %g", f.label, f.spec.Min, f.spec.Max)
			}
			if f.label == "x" {
				c.Position.X = v
			} else {
				c.Position.Y = v
			}
		default:
			if !f.spec.Contains(v) {
				return c, fmt.Errorf("%s must be between %g and %g", f.label, f.spec.Min, f.spec.Max)
			}
			c.Params[f.spec.Name] = v
		}
	}
	return c, nil
}

func (e *Editor) refresh() {
	if e.builder != nil {
		e.preview = e.builder.Preview(e.state)
	}
}

func (e *Editor) copyLink() tea.Cmd {
	if e.builder == nil || len(e.state) == 0 {
		e.status = "Nothing to share."
		return nil
	}
	snapshot := e.state.Clone()
	ctx, builder, copier := e.ctx, e.builder, e.copier
	e.status = "Copying..."

	return func() tea.Msg {
		link, ok := builder.Share(ctx, snapshot, copier)
		return copiedMsg{url: link.URL, ok: ok}
	}
}

func (e *Editor) save() tea.Cmd {
	if e.path == "" {
		e.status = "No file to save to; start the editor with a file argument."
		return nil
	}
	snapshot := e.state.Clone()
	path := e.path

	return func() tea.Msg {
		return savedMsg{err: benchfile.Save(path, snapshot)}
	}
}

// View implements tea.Model.
func (e *Editor) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Polarization Studio"))
	if e.path != "" {
		b.WriteString(" " + e.path)
	}
	b.WriteString("\n\n")

	switch e.mode {
	case modeAddKind:
		b.WriteString("Add a component:\n\n")
		for i, k := range e.kinds {
			line := fmt.Sprintf("%-2s %-14s %s", k.Tag, k.Name, k.Description)
			if i == e.kindCursor {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n" + helpStyle.Render("↑/↓ select • enter add • esc back"))

	case modeEdit:
		c := e.state[e.selected]
		b.WriteString(fmt.Sprintf("Editing %s %s\n\n", kindStyle.Render(c.Kind.Name), c.ID))
		for i, in := range e.inputs {
			b.WriteString(in.View())
			if u := e.fields[i].spec.Unit; u != "" {
				b.WriteString(" " + helpStyle.Render(u))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n" + e.estimateLine() + "\n")
		b.WriteString(helpStyle.Render("tab next field • enter apply • esc cancel"))

	default:
		if len(e.state) == 0 {
			b.WriteString(helpStyle.Render("The bench is empty. Press a to add a component.") + "\n")
		}
		for i, c := range e.state {
			line := fmt.Sprintf("%-6s %-14s (%s, %s) %s°", c.ID, c.Kind.Name,
				registry.FormatNumber(c.Position.X, 3),
				registry.FormatNumber(c.Position.Y, 3),
				registry.FormatNumber(c.Rotation, 3))
			if i == e.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n" + e.estimateLine() + "\n")
		if e.link != "" {
			b.WriteString(e.link + "\n")
		}
		b.WriteString(helpStyle.Render("a add • d delete • enter edit • [/] rotate • c copy link • s save • q quit"))
	}

	if e.err != nil {
		b.WriteString("\n" + errorStyle.Render("Error: "+e.err.Error()))
	}
	if e.status != "" {
		b.WriteString("\n" + e.status)
	}

	return b.String()
}

func (e *Editor) estimateLine() string {
	p := e.preview
	text := fmt.Sprintf("Link length ≤ %d / %d", p.EstimatedLength, p.Limit)
	switch {
	case !p.WithinLimit:
		return errorStyle.Render(text + "  too long for some browsers")
	case p.NearLimit:
		return warnStyle.Render(text + "  close to the limit")
	default:
		return okStyle.Render(text)
	}
}

// Run starts the editor full-screen and returns the edited bench when
// the user quits.
func Run(ctx context.Context, e *Editor) (bench.State, error) {
	e.ctx = ctx
	p := tea.NewProgram(e, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return nil, err
	}
	return e.State(), nil
}
