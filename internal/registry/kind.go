package registry

import (
	"fmt"
	"math"
)

// ParamSpec describes one numeric parameter of a component kind.
type ParamSpec struct {
	// Name is the long name used in bench files and component state.
	Name string
	// Key is the short lowercase key written into tokens.
	Key string
	// Unit is informational ("nm", "deg", "mm", "" for ratios).
	Unit string
	// Min and Max bound the valid range, inclusive.
	Min float64
	Max float64
	// Default is the value assumed when a token omits the parameter.
	Default float64
}

// Clamp forces v into the parameter range. NaN becomes the default.
func (p ParamSpec) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return p.Default
	}
	return math.Min(math.Max(v, p.Min), p.Max)
}

// Contains reports whether v lies inside the parameter range.
func (p ParamSpec) Contains(v float64) bool {
	return v >= p.Min && v <= p.Max
}

// Quantize clamps v and rounds it to decimals without leaving the range.
func (p ParamSpec) Quantize(v float64, decimals int) float64 {
	return QuantizeIn(p.Clamp(v), decimals, p.Min, p.Max)
}

// Format renders v in token form after clamping and rounding.
func (p ParamSpec) Format(v float64, decimals int) string {
	return FormatNumber(p.Quantize(v, decimals), decimals)
}

// Parse reads a token value and checks it against the range.
func (p ParamSpec) Parse(text string) (float64, error) {
	v, err := ParseNumber(text)
	if err != nil {
		return 0, err
	}
	if !p.Contains(v) {
		return 0, fmt.Errorf("%s=%s outside [%s, %s]", p.Name, text,
			FormatNumber(p.Min, MaxDecimals), FormatNumber(p.Max, MaxDecimals))
	}
	return v, nil
}

// Width is the worst-case formatted width of this parameter's value.
func (p ParamSpec) Width(decimals int) int {
	return NumberWidth(p.Min, p.Max, decimals)
}

// PositionField bounds bench coordinates, in millimetres.
var PositionField = ParamSpec{Name: "position", Unit: "mm", Min: -10000, Max: 10000}

// RotationField describes component orientation. The upper bound is
// exclusive: encoders wrap 360 back to 0.
var RotationField = ParamSpec{Name: "rotation", Unit: "deg", Min: 0, Max: 360}

// NormalizeRotation maps any angle into [0, 360) at the given precision.
// NaN and infinities become 0.
func NormalizeRotation(deg float64, decimals int) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	q := Quantize(r, decimals)
	if q >= 360 {
		return 0
	}
	return q
}

// Kind is the capability descriptor of one component type.
type Kind struct {
	// Tag is the short, immutable identifier written into tokens.
	Tag string
	// Name is the human-readable kind name, also accepted in bench files.
	Name string
	// Description is shown in listings.
	Description string
	// Params is ordered; the order fixes the order of params in a record.
	Params []ParamSpec

	byKey  map[string]int
	byName map[string]int
}

func (k *Kind) index() {
	k.byKey = make(map[string]int, len(k.Params))
	k.byName = make(map[string]int, len(k.Params))
	for i, p := range k.Params {
		k.byKey[p.Key] = i
		k.byName[p.Name] = i
	}
}

// Param looks a parameter up by its token key.
func (k *Kind) Param(key string) (ParamSpec, bool) {
	i, ok := k.byKey[key]
	if !ok {
		return ParamSpec{}, false
	}
	return k.Params[i], true
}

// ParamByName looks a parameter up by its long name.
func (k *Kind) ParamByName(name string) (ParamSpec, bool) {
	i, ok := k.byName[name]
	if !ok {
		return ParamSpec{}, false
	}
	return k.Params[i], true
}

// Value returns the value of p in params, falling back to the default.
func (k *Kind) Value(params map[string]float64, p ParamSpec) float64 {
	if v, ok := params[p.Name]; ok {
		return v
	}
	return p.Default
}

// Defaults returns a fresh map with every parameter at its default.
func (k *Kind) Defaults() map[string]float64 {
	out := make(map[string]float64, len(k.Params))
	for _, p := range k.Params {
		out[p.Name] = p.Default
	}
	return out
}

// String returns the kind name.
func (k *Kind) String() string {
	if k == nil {
		return "<nil kind>"
	}
	return k.Name
}

func sameKind(a, b *Kind) bool {
	if a.Tag != b.Tag || a.Name != b.Name || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	return true
}
