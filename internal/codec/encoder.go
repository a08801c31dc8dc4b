package codec

import (
	"strconv"
	"strings"

	"github.com/polarcraft/polarstudio/internal/bench"
	"github.com/polarcraft/polarstudio/internal/registry"
)

// Encoder writes bench states as tokens. It is stateless after
// construction and safe for concurrent use.
type Encoder struct {
	opts options
}

// NewEncoder returns an Encoder.
func NewEncoder(opts ...Option) *Encoder {
	return &Encoder{opts: buildOptions(opts)}
}

// Encode returns the token for s. It never fails: out-of-range values are
// clamped, non-finite values replaced, and parameters the kind does not
// declare are ignored. Every component must carry a non-nil Kind.
func (e *Encoder) Encode(s bench.State) Token {
	if len(s) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(8 + 24*len(s))
	b.WriteString(strconv.Itoa(FormatVersion))

	for _, c := range s {
		b.WriteByte(RecordSeparator)
		e.writeRecord(&b, c)
	}

	return Token(b.String())
}

func (e *Encoder) writeRecord(b *strings.Builder, c bench.Component) {
	d := e.opts.precision
	k := c.Kind

	b.WriteString(k.Tag)
	b.WriteByte(FieldSeparator)
	b.WriteString(registry.PositionField.Format(c.Position.X, d))
	b.WriteByte(FieldSeparator)
	b.WriteString(registry.PositionField.Format(c.Position.Y, d))
	b.WriteByte(FieldSeparator)
	b.WriteString(registry.FormatNumber(registry.NormalizeRotation(c.Rotation, d), d))

	for _, p := range k.Params {
		v, ok := c.Params[p.Name]
		if !ok {
			continue
		}
		q := p.Quantize(v, d)
		if q == p.Quantize(p.Default, d) {
			continue
		}
		b.WriteByte(FieldSeparator)
		b.WriteString(p.Key)
		b.WriteString(registry.FormatNumber(q, d))
	}
}

// Encode encodes s with default options.
func Encode(s bench.State) Token {
	return defaultEncoder.Encode(s)
}

var defaultEncoder = NewEncoder()
