// Package benchfile reads and writes benches as human-editable YAML or
// JSON documents:
//
//	components:
//	  - id: laser
//	    type: source          # kind name or tag
//	    x: 0
//	    y: 0
//	    rotation: 0
//	    params:
//	      wavelength: 632.8   # parameter name or key
//
// Numbers may be written as integers, floats or numeric strings.
package benchfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/polarcraft/polarstudio/internal/bench"
	studioerrors "github.com/polarcraft/polarstudio/internal/errors"
	"github.com/polarcraft/polarstudio/internal/registry"
	"github.com/polarcraft/polarstudio/internal/validation"
)

// Format is a bench file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown bench format %q (yaml, json)", name)
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Document is the on-disk shape of a bench.
type Document struct {
	Components []Entry `json:"components" yaml:"components"`
}

// Entry is one component as written in a bench file. Numeric fields are
// left untyped so that cast can coerce whatever the author wrote.
type Entry struct {
	ID       string                 `json:"id,omitempty" yaml:"id,omitempty"`
	Type     string                 `json:"type" yaml:"type"`
	X        interface{}            `json:"x,omitempty" yaml:"x,omitempty"`
	Y        interface{}            `json:"y,omitempty" yaml:"y,omitempty"`
	Rotation interface{}            `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Params   map[string]interface{} `json:"params,omitempty" yaml:"params,omitempty"`
}

// Parser converts documents to bench states against a registry.
type Parser struct {
	reg *registry.Registry
}

// NewParser returns a Parser resolving types through reg, or the default
// registry when reg is nil.
func NewParser(reg *registry.Registry) *Parser {
	if reg == nil {
		reg = registry.Default()
	}
	return &Parser{reg: reg}
}

// Parse decodes data with the default registry.
func Parse(data []byte, format Format) (bench.State, error) {
	return NewParser(nil).Parse(data, format)
}

// Load reads a bench file with the default registry.
func Load(path string) (bench.State, error) {
	return NewParser(nil).Load(path)
}

// Load reads and parses the bench file at path.
func (p *Parser) Load(path string) (bench.State, error) {
	if err := validation.ValidateBenchFile(path); err != nil {
		return nil, studioerrors.NewValidationError(studioerrors.ErrCodeValidationFailed, err.Error()).
			WithFile(path)
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		code := studioerrors.ErrCodeInternalError
		if os.IsNotExist(err) {
			code = studioerrors.ErrCodeFileNotFound
		}
		return nil, studioerrors.NewIOError(code, "cannot read bench file", err).WithFile(path)
	}

	state, err := p.Parse(data, format)
	var se *studioerrors.StudioError
	if errors.As(err, &se) {
		return nil, se.WithFile(path)
	}
	return state, err
}

// Parse decodes a document. Unknown component types fail with an
// UnknownComponentType error; every other problem is collected and
// reported as one validation error.
func (p *Parser) Parse(data []byte, format Format) (bench.State, error) {
	var doc Document

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, studioerrors.NewValidationError(studioerrors.ErrCodeValidationFailed, "invalid JSON bench document").
				WithCause(err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, studioerrors.NewValidationError(studioerrors.ErrCodeValidationFailed, "invalid YAML bench document").
				WithCause(err)
		}
	default:
		return nil, fmt.Errorf("unknown bench format %q", format)
	}

	return p.FromDocument(doc)
}

// FromDocument converts a decoded document to a bench state.
func (p *Parser) FromDocument(doc Document) (bench.State, error) {
	var errs studioerrors.ValidationErrorCollection
	state := make(bench.State, 0, len(doc.Components))

	for i, e := range doc.Components {
		field := fmt.Sprintf("components[%d]", i)

		k, ok := p.reg.Resolve(strings.TrimSpace(e.Type))
		if !ok {
			if e.Type == "" {
				errs.AddField(field+".type", e.Type, "component type is required", kindNames(p.reg))
				continue
			}
			return nil, studioerrors.NewUnknownComponentError(i, e.Type)
		}

		c := bench.Component{
			ID:       e.ID,
			Kind:     k,
			Position: bench.Vec2{X: p.number(&errs, field+".x", e.X, registry.PositionField)},
			Params:   k.Defaults(),
		}
		c.Position.Y = p.number(&errs, field+".y", e.Y, registry.PositionField)
		c.Rotation = p.rotation(&errs, field+".rotation", e.Rotation)
		if c.ID == "" {
			c.ID = strings.ToLower(k.Tag) + strconv.Itoa(i)
		}

		seen := make(map[string]string, len(e.Params))
		for name, raw := range e.Params {
			spec, ok := k.ParamByName(name)
			if !ok {
				spec, ok = k.Param(name)
			}
			if !ok {
				errs.AddField(field+".params."+name, raw,
					fmt.Sprintf("%s has no parameter %q", k.Name, name), paramNames(k))
				continue
			}
			if prev, dup := seen[spec.Name]; dup {
				errs.AddField(field+".params."+name, raw,
					fmt.Sprintf("parameter %s is also given as %q", spec.Name, prev))
				continue
			}
			seen[spec.Name] = name
			c.Params[spec.Name] = p.number(&errs, field+".params."+name, raw, spec)
		}

		state = append(state, c)
	}

	if se := errs.ToStudioError(); se != nil {
		return nil, se
	}
	return state, nil
}

func (p *Parser) number(errs *studioerrors.ValidationErrorCollection, field string, raw interface{}, spec registry.ParamSpec) float64 {
	if raw == nil {
		return spec.Default
	}

	v, err := toFloat(raw)
	if err != nil {
		errs.AddField(field, raw, "not a number")
		return spec.Default
	}
	if !spec.Contains(v) {
		errs.AddField(field, raw,
			fmt.Sprintf("%s out of range", spec.Name),
			fmt.Sprintf("use a value between %s and %s %s",
				registry.FormatNumber(spec.Min, registry.MaxDecimals),
				registry.FormatNumber(spec.Max, registry.MaxDecimals),
				spec.Unit))
		return spec.Default
	}
	return v
}

// rotation accepts any finite angle; encoders normalize it.
func (p *Parser) rotation(errs *studioerrors.ValidationErrorCollection, field string, raw interface{}) float64 {
	if raw == nil {
		return 0
	}
	v, err := toFloat(raw)
	if err != nil {
		errs.AddField(field, raw, "not a number")
		return 0
	}
	return v
}

func toFloat(raw interface{}) (float64, error) {
	switch r := raw.(type) {
	case bool:
		return 0, fmt.Errorf("boolean is not a number")
	case json.Number:
		return r.Float64()
	case string:
		raw = strings.TrimSpace(r)
	}

	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("value is not finite")
	}
	return v, nil
}

func kindNames(reg *registry.Registry) string {
	names := make([]string, 0, reg.Len())
	for _, k := range reg.Kinds() {
		names = append(names, k.Name)
	}
	return "use one of: " + strings.Join(names, ", ")
}

func paramNames(k *registry.Kind) string {
	if len(k.Params) == 0 {
		return k.Name + " takes no parameters"
	}
	names := make([]string, 0, len(k.Params))
	for _, p := range k.Params {
		names = append(names, p.Name)
	}
	return "use one of: " + strings.Join(names, ", ")
}

// ToDocument converts a bench state to its file representation. Every
// parameter is written by name.
func ToDocument(s bench.State) Document {
	doc := Document{Components: make([]Entry, 0, len(s))}
	for _, c := range s {
		e := Entry{
			ID:       c.ID,
			Type:     c.Kind.Name,
			X:        c.Position.X,
			Y:        c.Position.Y,
			Rotation: c.Rotation,
		}
		if len(c.Kind.Params) > 0 {
			e.Params = make(map[string]interface{}, len(c.Kind.Params))
			for _, spec := range c.Kind.Params {
				e.Params[spec.Name] = c.Param(spec.Name)
			}
		}
		doc.Components = append(doc.Components, e)
	}
	return doc
}

// Marshal renders s in format.
func Marshal(s bench.State, format Format) ([]byte, error) {
	doc := ToDocument(s)
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unknown bench format %q", format)
	}
}

// Save writes s to path in the format implied by its extension.
func Save(path string, s bench.State) error {
	if err := validation.ValidateBenchFile(path); err != nil {
		return studioerrors.NewValidationError(studioerrors.ErrCodeValidationFailed, err.Error()).
			WithFile(path)
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	data, err := Marshal(s, format)
	if err != nil {
		return studioerrors.NewInternalError(studioerrors.ErrCodeInternalError, "cannot render bench", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return studioerrors.NewIOError(studioerrors.ErrCodeInternalError, "cannot write bench file", err).
			WithFile(path)
	}
	return nil
}
