// Package bench defines the in-memory bench model: an ordered list of
// optical components, each with a kind from the registry, a position,
// an orientation and numeric parameters.
package bench

import (
	"github.com/polarcraft/polarstudio/internal/registry"
)

// Vec2 is a position on the bench in millimetres.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Component is one placed optical element.
type Component struct {
	// ID is an opaque identifier owned by the editor. It does not survive
	// a token round trip.
	ID   string
	Kind *registry.Kind
	// Position in bench-local millimetres.
	Position Vec2
	// Rotation in degrees; encoders normalize it to [0, 360).
	Rotation float64
	// Params maps parameter names to values. Missing names mean default.
	Params map[string]float64
}

// Param returns the named parameter, falling back to the kind default.
func (c Component) Param(name string) float64 {
	if v, ok := c.Params[name]; ok {
		return v
	}
	if c.Kind != nil {
		if p, ok := c.Kind.ParamByName(name); ok {
			return p.Default
		}
	}
	return 0
}

// Clone returns a deep copy.
func (c Component) Clone() Component {
	out := c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return out
}

// State is an ordered bench. Order is significant (insertion / z-order)
// and is preserved by every codec operation.
type State []Component

// Clone returns a deep copy, so a snapshot can be handed to an encoder
// while the editor keeps mutating its own state.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	out := make(State, len(s))
	for i, c := range s {
		out[i] = c.Clone()
	}
	return out
}

// New creates a component of kind k with default parameters.
func New(id string, k *registry.Kind, x, y, rotation float64) Component {
	return Component{
		ID:       id,
		Kind:     k,
		Position: Vec2{X: x, Y: y},
		Rotation: rotation,
		Params:   k.Defaults(),
	}
}
