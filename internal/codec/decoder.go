package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/polarcraft/polarstudio/internal/bench"
	studioerrors "github.com/polarcraft/polarstudio/internal/errors"
	"github.com/polarcraft/polarstudio/internal/registry"
)

// Decoder parses tokens against a registry. It is safe for concurrent use.
type Decoder struct {
	reg  *registry.Registry
	opts options
}

// NewDecoder returns a Decoder resolving tags through reg, or through
// registry.Default() when reg is nil.
func NewDecoder(reg *registry.Registry, opts ...Option) *Decoder {
	if reg == nil {
		reg = registry.Default()
	}
	return &Decoder{reg: reg, opts: buildOptions(opts)}
}

// Decode parses t. Tokens are untrusted input: every field is validated
// and any failure aborts the whole decode, returning a nil state and one
// of the errors UnsupportedFormatVersion, MalformedToken or
// UnknownComponentType.
func (d *Decoder) Decode(t Token) (bench.State, error) {
	if t == "" {
		return bench.State{}, nil
	}

	versionText, body, hasBody := strings.Cut(string(t), string(RecordSeparator))

	version, err := parseVersion(versionText)
	if err != nil {
		return nil, err
	}
	if version > FormatVersion {
		return nil, studioerrors.NewUnsupportedVersionError(version, FormatVersion)
	}
	if version < MinFormatVersion {
		return nil, studioerrors.NewMalformedTokenError(studioerrors.NoRecord,
			fmt.Sprintf("format version %d is no longer supported", version))
	}

	if !hasBody {
		return bench.State{}, nil
	}

	if n := strings.Count(body, string(RecordSeparator)) + 1; n > d.opts.maxComponents {
		return nil, studioerrors.NewMalformedTokenError(studioerrors.NoRecord,
			fmt.Sprintf("token holds %d components, limit is %d", n, d.opts.maxComponents))
	}

	records := strings.Split(body, string(RecordSeparator))
	state := make(bench.State, 0, len(records))
	for i, rec := range records {
		c, err := d.decodeRecord(i, rec)
		if err != nil {
			return nil, err
		}
		state = append(state, c)
	}

	return state, nil
}

func parseVersion(text string) (int, error) {
	malformed := func() error {
		return studioerrors.NewMalformedTokenError(studioerrors.NoRecord,
			fmt.Sprintf("invalid format version marker %q", truncate(text)))
	}

	if text == "" || len(text) > 6 || text[0] == '0' {
		return 0, malformed()
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return 0, malformed()
		}
	}

	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, malformed()
	}
	return v, nil
}

func (d *Decoder) decodeRecord(index int, rec string) (bench.Component, error) {
	malformed := func(format string, args ...interface{}) (bench.Component, error) {
		return bench.Component{}, studioerrors.NewMalformedTokenError(index, fmt.Sprintf(format, args...))
	}

	if rec == "" {
		return malformed("empty record")
	}

	fields := strings.Split(rec, string(FieldSeparator))
	tag := fields[0]
	if !registry.ValidTag(tag) {
		return malformed("invalid component tag %q", truncate(tag))
	}
	kind, ok := d.reg.Lookup(tag)
	if !ok {
		return bench.Component{}, studioerrors.NewUnknownComponentError(index, tag)
	}

	if len(fields) < 4 {
		return malformed("%s record needs x, y and rotation", kind.Name)
	}

	x, err := registry.PositionField.Parse(fields[1])
	if err != nil {
		return malformed("x: %v", err)
	}
	y, err := registry.PositionField.Parse(fields[2])
	if err != nil {
		return malformed("y: %v", err)
	}
	rotation, err := registry.ParseNumber(fields[3])
	if err != nil {
		return malformed("rotation: %v", err)
	}
	if rotation < 0 || rotation >= 360 {
		return malformed("rotation %s outside [0, 360)", fields[3])
	}

	params := kind.Defaults()
	seen := make(map[string]bool, len(fields)-4)
	for _, field := range fields[4:] {
		key, value := splitParam(field)
		if key == "" {
			return malformed("parameter %q has no key", truncate(field))
		}
		spec, ok := kind.Param(key)
		if !ok {
			return malformed("%s has no parameter %q", kind.Name, key)
		}
		if seen[key] {
			return malformed("parameter %q repeated", key)
		}
		seen[key] = true

		v, err := spec.Parse(value)
		if err != nil {
			return malformed("%v", err)
		}
		params[spec.Name] = v
	}

	return bench.Component{
		ID:       strings.ToLower(tag) + strconv.Itoa(index),
		Kind:     kind,
		Position: bench.Vec2{X: x, Y: y},
		Rotation: rotation,
		Params:   params,
	}, nil
}

// splitParam splits "a45.5" into "a" and "45.5".
func splitParam(field string) (key, value string) {
	i := 0
	for i < len(field) && field[i] >= 'a' && field[i] <= 'z' {
		i++
	}
	return field[:i], field[i:]
}

func truncate(s string) string {
	const limit = 24
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// Decode decodes t against the default registry with default options.
func Decode(t Token) (bench.State, error) {
	return defaultDecoder.Decode(t)
}

var defaultDecoder = NewDecoder(nil)
