package engine

import (
	"math"

	"github.com/inamate/canvasviewer/internal/document"
)

// Matrix2D represents a 2D affine transformation matrix.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
type Matrix2D [6]float64

func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// Rotate returns a rotation matrix (angle in radians).
func Rotate(radians float64) Matrix2D {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

// Skew returns a skew matrix for angles given in degrees.
func Skew(xDegrees, yDegrees float64) Matrix2D {
	return Matrix2D{
		1, math.Tan(yDegrees * math.Pi / 180),
		math.Tan(xDegrees * math.Pi / 180), 1,
		0, 0,
	}
}

// Multiply multiplies this matrix by another: result = m * other
// This applies 'other' first, then 'm'.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

func (m Matrix2D) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TransformRect transforms a rectangle and returns its axis-aligned bounding box.
func (m Matrix2D) TransformRect(r Rect) Rect {
	x0, y0 := m.TransformPoint(r.X, r.Y)
	x1, y1 := m.TransformPoint(r.X+r.Width, r.Y)
	x2, y2 := m.TransformPoint(r.X+r.Width, r.Y+r.Height)
	x3, y3 := m.TransformPoint(r.X, r.Y+r.Height)

	minX := min(x0, x1, x2, x3)
	minY := min(y0, y1, y2, y3)
	maxX := max(x0, x1, x2, x3)
	maxY := max(y0, y1, y2, y3)

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func (m Matrix2D) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert returns the inverse of the matrix, or Identity if not invertible.
func (m Matrix2D) Invert() Matrix2D {
	det := m.Determinant()
	if det == 0 {
		return Identity()
	}

	invDet := 1.0 / det
	return Matrix2D{
		m[3] * invDet,
		-m[1] * invDet,
		-m[2] * invDet,
		m[0] * invDet,
		(m[2]*m[5] - m[3]*m[4]) * invDet,
		(m[1]*m[4] - m[0]*m[5]) * invDet,
	}
}

// FromTransform composes Translate(x, y) * Rotate(r) * Scale(sx, sy) *
// Translate(-ax, -ay). The anchor (ax, ay) is the rotation/scale center.
func FromTransform(x, y, sx, sy, rDegrees, ax, ay float64) Matrix2D {
	rad := rDegrees * math.Pi / 180.0
	cos := math.Cos(rad)
	sin := math.Sin(rad)

	return Matrix2D{
		cos * sx,
		sin * sx,
		-sin * sy,
		cos * sy,
		x + ax - cos*sx*ax + sin*sy*ay,
		y + ay - sin*sx*ax - cos*sy*ay,
	}
}

// ObjectMatrix maps an object's local box into its parent's space. Rotation,
// scale and skew all pivot on the local origin (the box's top-left corner).
func ObjectMatrix(t document.Transform) Matrix2D {
	m := FromTransform(t.Left, t.Top, t.ScaleX, t.ScaleY, t.Angle, 0, 0)
	if t.SkewX != 0 || t.SkewY != 0 {
		m = m.Multiply(Skew(t.SkewX, t.SkewY))
	}
	return m
}

// Decompose splits the matrix into translate, rotate (radians), x-shear and
// scale so that m = T(tx,ty) * R(theta) * Shear(kx) * S(sx,sy).
func (m Matrix2D) Decompose() (tx, ty, theta, kx, sx, sy float64) {
	sx = math.Hypot(m[0], m[1])
	theta = math.Atan2(m[1], m[0])
	cos, sin := math.Cos(theta), math.Sin(theta)
	c := cos*m[2] + sin*m[3]
	sy = -sin*m[2] + cos*m[3]
	if sy != 0 {
		kx = c / sy
	}
	return m[4], m[5], theta, kx, sx, sy
}

// ToSlice returns the matrix as a float64 slice for JSON serialization.
func (m Matrix2D) ToSlice() []float64 {
	return []float64{m[0], m[1], m[2], m[3], m[4], m[5]}
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func (m Matrix2D) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(m[0]-1) < eps &&
		math.Abs(m[1]) < eps &&
		math.Abs(m[2]) < eps &&
		math.Abs(m[3]-1) < eps &&
		math.Abs(m[4]) < eps &&
		math.Abs(m[5]) < eps
}
