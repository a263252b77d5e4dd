// Package geom provides the 2D vector and affine matrix math used by the
// transform hierarchy.
package geom

import "math"

// Epsilon is the default tolerance for approximate comparisons.
const Epsilon = 1e-9

type Vec2 struct {
	X, Y float64
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Mul(o Vec2) Vec2      { return Vec2{v.X * o.X, v.Y * o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Atan2() float64       { return math.Atan2(v.Y, v.X) }

// Rotate rotates v counter-clockwise by rot radians.
func (v Vec2) Rotate(rot float64) Vec2 {
	s, c := math.Sincos(rot)
	return Vec2{c*v.X - s*v.Y, s*v.X + c*v.Y}
}

// ApproxEqual compares component-wise within eps.
func (v Vec2) ApproxEqual(o Vec2, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps
}
