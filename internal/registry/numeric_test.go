package registry

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		want     string
	}{
		{0, 3, "0"},
		{math.Copysign(0, -1), 3, "0"},
		{-0.0001, 3, "0"},
		{0.5, 3, ".5"},
		{-0.5, 3, "-.5"},
		{10, 3, "10"},
		{45.25, 3, "45.25"},
		{632.8, 3, "632.8"},
		{1.23456, 3, "1.235"},
		{1.23456, 0, "1"},
		{-1000, 2, "-1000"},
		{0.1, 9, ".1"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(tt.v, tt.decimals))
		})
	}
}

func TestParseNumberStrict(t *testing.T) {
	valid := map[string]float64{
		"0": 0, "12": 12, "-3": -3, ".5": 0.5, "-.25": -0.25, "1.5": 1.5, "007": 7,
	}
	for in, want := range valid {
		got, err := ParseNumber(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	invalid := []string{
		"", "-", ".", "1.", "1e3", "+1", "NaN", "Inf", "-Inf", "0x1p3", "1_000", "1.2.3", "--1", " 1", "1 ", "١",
	}
	for _, in := range invalid {
		_, err := ParseNumber(in)
		assert.Error(t, err, "%q should be rejected", in)
	}
}

func TestQuantizeRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 0.0004, 0.0005, 1.0005, 123.4567, -999.9996, 359.9999} {
		q := Quantize(v, 3)
		back, err := ParseNumber(FormatNumber(q, 3))
		require.NoError(t, err)
		assert.Equal(t, q, back, "value %v", v)
		assert.LessOrEqual(t, math.Abs(q-v), 5e-4+1e-12)
	}
}

func TestQuantizeInStaysInRange(t *testing.T) {
	assert.Equal(t, 1.0, QuantizeIn(0.1, 0, 0.1, 50))
	assert.Equal(t, 0.1, QuantizeIn(0.1, 3, 0.1, 50))
	assert.Equal(t, 180.0, QuantizeIn(180.0004, 3, 0, 180))
}

func TestNumberWidthIsUpperBound(t *testing.T) {
	specs := []ParamSpec{PositionField, {Min: 0, Max: 1}, {Min: -180, Max: 180}, {Min: 0.1, Max: 50}}
	for _, spec := range specs {
		for decimals := 0; decimals <= MaxDecimals; decimals++ {
			width := spec.Width(decimals)
			for _, v := range []float64{spec.Min, spec.Max, (spec.Min + spec.Max) / 2, spec.Max - 1e-4, spec.Min + 1.23456789} {
				formatted := spec.Format(v, decimals)
				assert.LessOrEqual(t, len(formatted), width, "%s at %d decimals", formatted, decimals)
			}
		}
	}
}

func TestNormalizeRotation(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeRotation(360, 3))
	assert.Equal(t, 0.0, NormalizeRotation(359.9999, 3))
	assert.Equal(t, 270.0, NormalizeRotation(-90, 3))
	assert.Equal(t, 45.0, NormalizeRotation(765, 3))
	assert.Equal(t, 0.0, NormalizeRotation(math.NaN(), 3))
	assert.Equal(t, 0.0, NormalizeRotation(math.Inf(1), 3))
}

func TestParamSpecParseChecksRange(t *testing.T) {
	p := ParamSpec{Name: "gain", Key: "g", Min: 0, Max: 10, Default: 1}

	v, err := p.Parse("2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	_, err = p.Parse("11")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "outside"))

	assert.Equal(t, 1.0, p.Clamp(math.NaN()))
	assert.Equal(t, 10.0, p.Clamp(math.Inf(1)))
	assert.Equal(t, 0.0, p.Clamp(math.Inf(-1)))
}

func FuzzParseNumber(f *testing.F) {
	for _, seed := range []string{"0", "-.5", "12.75", "1e3", "NaN", ""} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, text string) {
		v, err := ParseNumber(text)
		if err != nil {
			return
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("ParseNumber(%q) accepted non-finite %v", text, v)
		}
		if strings.ContainsAny(text, "eE_+xXpP") {
			t.Fatalf("ParseNumber(%q) accepted non-decimal syntax", text)
		}
	})
}
