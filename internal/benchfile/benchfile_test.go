package benchfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarcraft/polarstudio/internal/bench"
	"github.com/polarcraft/polarstudio/internal/codec"
	studioerrors "github.com/polarcraft/polarstudio/internal/errors"
	"github.com/polarcraft/polarstudio/internal/registry"
)

func TestLoadTestdata(t *testing.T) {
	state, err := Load(filepath.Join("testdata", "malus.yaml"))
	require.NoError(t, err)
	require.Len(t, state, 3)

	assert.Equal(t, "laser", state[0].ID)
	assert.Equal(t, "S", state[0].Kind.Tag)
	assert.Equal(t, 632.8, state[0].Param("wavelength"))
	assert.Equal(t, 100.0, state[0].Param("intensity"))

	assert.Equal(t, 120.0, state[1].Position.X)
	assert.Equal(t, 60.0, state[1].Param("transmission-axis"))

	assert.Equal(t, "d2", state[2].ID, "missing ids follow the decoder naming")
	assert.Equal(t, "D", state[2].Kind.Tag)

	assert.Equal(t, codec.Token("1~S_0_0_0_w632.8~P_120_0_0_a60~D_240_0_0"), codec.Encode(state))
}

func TestParseCoercesNumbers(t *testing.T) {
	doc := `{"components": [
		{"type": "lens", "x": "12.5", "y": -3, "rotation": 90, "params": {"f": "250"}},
		{"type": "C", "params": {"thickness": 0.5, "optic-axis": 30}}
	]}`

	state, err := Parse([]byte(doc), FormatJSON)
	require.NoError(t, err)
	require.Len(t, state, 2)

	assert.Equal(t, bench.Vec2{X: 12.5, Y: -3}, state[0].Position)
	assert.Equal(t, 90.0, state[0].Rotation)
	assert.Equal(t, 250.0, state[0].Param("focal-length"))
	assert.Equal(t, 0.5, state[1].Param("thickness"))
	assert.Equal(t, 30.0, state[1].Param("optic-axis"))
}

func TestParseUnknownType(t *testing.T) {
	doc := "components:\n  - type: source\n  - type: laserz\n"

	state, err := Parse([]byte(doc), FormatYAML)
	require.Error(t, err)
	assert.Nil(t, state)
	assert.True(t, studioerrors.IsUnknownComponent(err))
	assert.Equal(t, 1, studioerrors.RecordOf(err))
}

func TestParseCollectsValidationErrors(t *testing.T) {
	doc := `
components:
  - type: polarizer
    x: abc
    params:
      transmission-axis: 400
      colour: 3
  - type: source
    params:
      w: 500
      wavelength: 600
  - x: 1
`
	state, err := Parse([]byte(doc), FormatYAML)
	require.Error(t, err)
	assert.Nil(t, state)

	var se *studioerrors.StudioError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, studioerrors.ErrorTypeValidation, se.Type)
	assert.Contains(t, se.Context, "components[0].x")
	assert.Contains(t, se.Context, "components[0].params.transmission-axis")
	assert.Contains(t, se.Context, "components[0].params.colour")
	assert.Contains(t, se.Context, "components[2].type")
	assert.Len(t, se.Context, 5, "duplicate wavelength reported once")
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("components:\n  - type: source\n    colour: red\n"), FormatYAML)
	assert.Error(t, err)

	_, err = Parse([]byte(`{"components": [{"type": "S", "z": 1}]}`), FormatJSON)
	assert.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	state, err := Parse(nil, FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, state)
	assert.Equal(t, codec.Token(""), codec.Encode(state))
}

func TestMarshalRoundTrip(t *testing.T) {
	reg := registry.Default()
	var s bench.State
	for i, k := range reg.Kinds() {
		c := bench.New("", k, float64(i)*10.25, -float64(i), float64(i*15))
		c.ID = k.Name
		for _, p := range k.Params {
			c.Params[p.Name] = p.Max
		}
		s = append(s, c)
	}

	for _, format := range []Format{FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Marshal(s, format)
			require.NoError(t, err)

			back, err := Parse(data, format)
			require.NoError(t, err)
			require.Len(t, back, len(s))
			for i := range s {
				assert.Equal(t, s[i].ID, back[i].ID)
				assert.Same(t, s[i].Kind, back[i].Kind)
				assert.InDelta(t, s[i].Position.X, back[i].Position.X, 1e-9)
				assert.InDelta(t, s[i].Position.Y, back[i].Position.Y, 1e-9)
				assert.InDelta(t, s[i].Rotation, back[i].Rotation, 1e-9)
				assert.Equal(t, s[i].Params, back[i].Params)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.json")
	k, _ := registry.Default().Lookup("W")
	s := bench.State{bench.New("qwp", k, 5, 5, 45)}

	require.NoError(t, Save(path, s))
	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, codec.Encode(s), codec.Encode(back))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	var se *studioerrors.StudioError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, studioerrors.ErrCodeFileNotFound, se.Code)

	_, err = Load("bench.txt")
	assert.Error(t, err)

	_, err = Load("../bench.yaml")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := FormatFromPath("a/b.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("toml")
	assert.Error(t, err)
}
