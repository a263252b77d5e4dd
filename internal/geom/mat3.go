package geom

import "math"

// Mat3 is a 3x3 affine matrix stored column-major: M[0..2] is the first
// column, M[6] and M[7] hold the translation.
type Mat3 struct {
	M [9]float64
}

func Identity() Mat3 {
	return Mat3{M: [9]float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}}
}

// ScaleRotTrans builds T*R*S: points are scaled, then rotated by rot
// radians, then translated.
func ScaleRotTrans(scale Vec2, rot float64, trans Vec2) Mat3 {
	s, c := math.Sincos(rot)
	return Mat3{M: [9]float64{
		scale.X * c, scale.X * s, 0,
		-scale.Y * s, scale.Y * c, 0,
		trans.X, trans.Y, 1,
	}}
}

// Mul returns a*b, the transform that applies b first and then a.
func (a Mat3) Mul(b Mat3) Mat3 {
	var r Mat3
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a.M[k*3+row] * b.M[col*3+k]
			}
			r.M[col*3+row] = sum
		}
	}
	return r
}

// TransformPoint applies the full transform, translation included.
func (a Mat3) TransformPoint(p Vec2) Vec2 {
	return Vec2{
		a.M[0]*p.X + a.M[3]*p.Y + a.M[6],
		a.M[1]*p.X + a.M[4]*p.Y + a.M[7],
	}
}

// TransformVector applies the linear part only.
func (a Mat3) TransformVector(v Vec2) Vec2 {
	return Vec2{
		a.M[0]*v.X + a.M[3]*v.Y,
		a.M[1]*v.X + a.M[4]*v.Y,
	}
}

// Inverse returns the inverse of an affine matrix. A singular matrix yields
// the identity.
func (a Mat3) Inverse() Mat3 {
	m := a.M
	det := m[0]*m[4] - m[3]*m[1]
	if det == 0 {
		return Identity()
	}
	inv := 1 / det
	r := Mat3{M: [9]float64{
		m[4] * inv, -m[1] * inv, 0,
		-m[3] * inv, m[0] * inv, 0,
		0, 0, 1,
	}}
	r.M[6] = -(r.M[0]*m[6] + r.M[3]*m[7])
	r.M[7] = -(r.M[1]*m[6] + r.M[4]*m[7])
	return r
}

// Translation returns the position component.
func (a Mat3) Translation() Vec2 { return Vec2{a.M[6], a.M[7]} }

// Rotation returns the rotation of the first basis vector, in radians.
func (a Mat3) Rotation() float64 { return math.Atan2(a.M[1], a.M[0]) }

// ScaleFactors returns the lengths of the two basis vectors.
func (a Mat3) ScaleFactors() Vec2 {
	return Vec2{math.Hypot(a.M[0], a.M[1]), math.Hypot(a.M[3], a.M[4])}
}

func (a Mat3) ApproxEqual(b Mat3, eps float64) bool {
	for i := range a.M {
		if math.Abs(a.M[i]-b.M[i]) > eps {
			return false
		}
	}
	return true
}
