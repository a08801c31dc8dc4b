// Package optics evaluates a bench with Jones calculus. The beam follows
// bench order: each source starts a new beam, each element transforms it
// and each detector records and absorbs it. Element angles are the sum of
// the component rotation and its axis parameter.
package optics

import (
	"math"

	"github.com/polarcraft/polarstudio/internal/bench"
)

// CalciteBirefringence is n_o - n_e for calcite.
const CalciteBirefringence = 1.658 - 1.486

// Reading is what one detector sees.
type Reading struct {
	Index       int     `json:"index"`
	ID          string  `json:"id"`
	Intensity   float64 `json:"intensity"`
	Signal      float64 `json:"signal"`
	Orientation float64 `json:"orientation"`
	Ellipticity float64 `json:"ellipticity"`
	Stokes      Stokes  `json:"stokes"`
	// Source is the index of the source that lit the detector, or -1.
	Source int `json:"source"`
}

// Result is the outcome of a trace.
type Result struct {
	Readings []Reading `json:"readings"`
}

type beam struct {
	field      Vector
	wavelength float64
	source     int
	lit        bool
}

// Trace runs every source through the elements that follow it.
func Trace(s bench.State) Result {
	res := Result{Readings: []Reading{}}
	b := beam{source: -1}

	for i, c := range s {
		if c.Kind == nil {
			continue
		}

		switch c.Kind.Tag {
		case "S":
			b = beam{
				field:      Linear(c.Rotation+c.Param("polarization"), c.Param("intensity")),
				wavelength: c.Param("wavelength"),
				source:     i,
				lit:        true,
			}
		case "D":
			res.Readings = append(res.Readings, read(i, c, b))
			b = beam{source: -1}
		default:
			if b.lit {
				b.field = element(c, b.wavelength).Apply(b.field)
			}
		}
	}

	return res
}

func read(i int, c bench.Component, b beam) Reading {
	r := Reading{Index: i, ID: c.ID, Source: b.source}
	if !b.lit {
		return r
	}

	st := StokesOf(b.field)
	r.Stokes = st
	r.Intensity = clean(st[0])
	r.Signal = clean(st[0] * c.Param("gain"))
	r.Orientation = clean(st.Orientation())
	r.Ellipticity = clean(st.Ellipticity())
	return r
}

// element returns the Jones matrix of a non-source, non-detector
// component. Unknown kinds are transparent.
func element(c bench.Component, wavelength float64) Matrix {
	switch c.Kind.Tag {
	case "P":
		return Polarizer(c.Rotation+c.Param("transmission-axis"), c.Param("extinction"))
	case "W":
		return Retarder(c.Rotation+c.Param("fast-axis"), 2*math.Pi*c.Param("retardance"))
	case "C":
		return Retarder(c.Rotation+c.Param("optic-axis"), CrystalPhase(c.Param("thickness"), wavelength))
	case "R":
		return Rotator(c.Param("optical-rotation"))
	case "M":
		return Mirror(c.Param("reflectivity"))
	case "B":
		return Attenuator(1 - c.Param("reflectance"))
	case "F":
		return Attenuator(c.Param("transmittance"))
	default:
		return Identity
	}
}

// CrystalPhase is the o/e phase difference 2π·Δn·d/λ in radians for a
// calcite plate thicknessMM thick at wavelengthNM.
func CrystalPhase(thicknessMM, wavelengthNM float64) float64 {
	if wavelengthNM <= 0 {
		return 0
	}
	return math.Mod(2*math.Pi*CalciteBirefringence*thicknessMM*1e6/wavelengthNM, 2*math.Pi)
}

// clean rounds away floating-point dust so readings print stably.
func clean(v float64) float64 {
	r := math.Round(v*1e9) / 1e9
	if r == 0 {
		return 0
	}
	return r
}
