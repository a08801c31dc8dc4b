package optics

import (
	"math"
	"math/cmplx"
)

// Stokes holds the Stokes parameters S0..S3 of a beam.
type Stokes [4]float64

// StokesOf converts a Jones vector to Stokes parameters.
func StokesOf(v Vector) Stokes {
	ex, ey := v[0], v[1]
	cross := ex * cmplx.Conj(ey)
	ix, iy := sq(cmplx.Abs(ex)), sq(cmplx.Abs(ey))
	return Stokes{ix + iy, ix - iy, 2 * real(cross), 2 * imag(cross)}
}

// Orientation is the azimuth ψ of the polarization ellipse in degrees,
// in [0, 180).
func (s Stokes) Orientation() float64 {
	if s[0] == 0 {
		return 0
	}
	psi := deg(0.5 * math.Atan2(s[2], s[1]))
	if psi < 0 {
		psi += 180
	}
	if psi >= 180-1e-9 {
		psi = 0
	}
	return psi
}

// Ellipticity is the ellipticity angle χ in degrees: 0 for linear, ±45 for
// circular light.
func (s Stokes) Ellipticity() float64 {
	if s[0] == 0 {
		return 0
	}
	x := s[3] / s[0]
	x = math.Max(-1, math.Min(1, x))
	return deg(0.5 * math.Asin(x))
}
