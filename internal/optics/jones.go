package optics

import (
	"math"
	"math/cmplx"
)

// Vector is a Jones vector (Ex, Ey).
type Vector [2]complex128

// Matrix is a 2x2 Jones matrix in row-major order.
type Matrix [2][2]complex128

// Identity leaves a beam unchanged.
var Identity = Matrix{{1, 0}, {0, 1}}

// Linear returns linearly polarized light at angle deg with the given
// intensity.
func Linear(deg, intensity float64) Vector {
	a := math.Sqrt(intensity)
	s, c := math.Sincos(rad(deg))
	return Vector{complex(a*c, 0), complex(a*s, 0)}
}

// Intensity is |Ex|² + |Ey|².
func (v Vector) Intensity() float64 {
	return sq(cmplx.Abs(v[0])) + sq(cmplx.Abs(v[1]))
}

// Apply returns m·v.
func (m Matrix) Apply(v Vector) Vector {
	return Vector{
		m[0][0]*v[0] + m[0][1]*v[1],
		m[1][0]*v[0] + m[1][1]*v[1],
	}
}

// Mul returns m·n.
func (m Matrix) Mul(n Matrix) Matrix {
	var out Matrix
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j]
		}
	}
	return out
}

// Scale multiplies every entry by the real amplitude factor a.
func (m Matrix) Scale(a float64) Matrix {
	f := complex(a, 0)
	return Matrix{{m[0][0] * f, m[0][1] * f}, {m[1][0] * f, m[1][1] * f}}
}

// Rotation is R(θ) = [[cos θ, sin θ], [-sin θ, cos θ]].
func Rotation(deg float64) Matrix {
	s, c := math.Sincos(rad(deg))
	return Matrix{{complex(c, 0), complex(s, 0)}, {complex(-s, 0), complex(c, 0)}}
}

// rotated expresses m, given in its own axis frame, in the lab frame for
// an element whose axis sits at deg: R(-θ)·m·R(θ).
func rotated(m Matrix, deg float64) Matrix {
	return Rotation(-deg).Mul(m).Mul(Rotation(deg))
}

// Polarizer is a linear polarizer with its transmission axis at deg.
// extinction is the amplitude-squared leak along the blocked axis.
func Polarizer(deg, extinction float64) Matrix {
	leak := complex(math.Sqrt(extinction), 0)
	return rotated(Matrix{{1, 0}, {0, leak}}, deg)
}

// Retarder delays the slow axis by phase radians; the fast axis is at deg.
func Retarder(deg, phase float64) Matrix {
	return rotated(Matrix{{1, 0}, {0, cmplx.Exp(complex(0, -phase))}}, deg)
}

// Rotator turns the polarization plane by deg, counter-clockwise.
func Rotator(deg float64) Matrix {
	return Rotation(-deg)
}

// Mirror reflects with power reflectivity r at normal incidence.
func Mirror(r float64) Matrix {
	return Matrix{{1, 0}, {0, -1}}.Scale(math.Sqrt(r))
}

// Attenuator scales power by t without touching polarization.
func Attenuator(t float64) Matrix {
	return Identity.Scale(math.Sqrt(t))
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

func deg(rad float64) float64 { return rad * 180 / math.Pi }

func sq(x float64) float64 { return x * x }
