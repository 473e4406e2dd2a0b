package canvas

import (
	"math"

	"seehuhn.de/go/geom/matrix"
)

// Affine is a 2D affine matrix [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
//
// The layout matches seehuhn.de/go/geom/matrix.Matrix, so values convert
// with a plain type conversion.
type Affine [6]float64

// IdentityAffine is the identity matrix.
var IdentityAffine = Affine(matrix.Identity)

// TranslateAffine returns a translation matrix.
func TranslateAffine(tx, ty float64) Affine {
	return Affine{1, 0, 0, 1, tx, ty}
}

// ScaleAffine returns a scale matrix.
func ScaleAffine(sx, sy float64) Affine {
	return Affine{sx, 0, 0, sy, 0, 0}
}

// RotateAffine returns a counter-clockwise rotation matrix (clockwise on a
// y-down screen) for angle in radians.
func RotateAffine(angle float64) Affine {
	sin, cos := math.Sincos(angle)
	return Affine{cos, sin, -sin, cos, 0, 0}
}

// Mul returns m * c: c is applied first, then m.
func (m Affine) Mul(c Affine) Affine {
	return Affine{
		m[0]*c[0] + m[2]*c[1],
		m[1]*c[0] + m[3]*c[1],
		m[0]*c[2] + m[2]*c[3],
		m[1]*c[2] + m[3]*c[3],
		m[0]*c[4] + m[2]*c[5] + m[4],
		m[1]*c[4] + m[3]*c[5] + m[5],
	}
}

// Det returns the determinant of the linear part.
func (m Affine) Det() float64 {
	return m[0]*m[3] - m[2]*m[1]
}

// Invert returns the inverse of m.
// Returns the identity matrix if m is singular (determinant ≈ 0).
func (m Affine) Invert() Affine {
	det := m.Det()
	if det > -1e-12 && det < 1e-12 {
		return IdentityAffine
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Affine{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// Apply transforms the point (x, y).
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ApplyVec transforms v as a point.
func (m Affine) ApplyVec(v Vec2) Vec2 {
	x, y := m.Apply(v.X, v.Y)
	return Vec2{X: x, Y: y}
}

// ApplyLinear transforms (x, y) as a direction, ignoring translation.
func (m Affine) ApplyLinear(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y, m[1]*x + m[3]*y
}

// ScaleFactor returns the geometric mean scale of m, sqrt(|det|). Used to
// convert screen-space tolerances into local units.
func (m Affine) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m.Det()))
}

// Matrix returns m as a geom matrix.
func (m Affine) Matrix() matrix.Matrix { return matrix.Matrix(m) }

// Mat3 returns m as a column-major mat3x3<f32> with each column padded to
// four floats, the layout WGSL uniform buffers expect.
func (m Affine) Mat3() [12]float32 {
	return [12]float32{
		float32(m[0]), float32(m[1]), 0, 0,
		float32(m[2]), float32(m[3]), 0, 0,
		float32(m[4]), float32(m[5]), 1, 0,
	}
}

// ApproxEqual reports whether every element of m and o differs by at most eps.
func (m Affine) ApproxEqual(o Affine, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > eps {
			return false
		}
	}
	return true
}
