package core

import "math"

// Vec2 is a point or offset in the mind map plane. The same type serves
// world coordinates (unbounded canvas units) and screen coordinates (pixels);
// Viewport converts between the two.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale returns v multiplied by k.
func (v Vec2) Scale(k float64) Vec2 {
	return Vec2{X: v.X * k, Y: v.Y * k}
}

// Div returns v divided by k. Callers guarantee k != 0.
func (v Vec2) Div(k float64) Vec2 {
	return Vec2{X: v.X / k, Y: v.Y / k}
}

// Norm returns the Euclidean length of the vector.
func (v Vec2) Norm() float64 {
	return math.Hypot(v.X, v.Y)
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec2) DistanceTo(other Vec2) float64 {
	return v.Sub(other).Norm()
}

// Angle returns the direction of v in radians, measured from +X towards +Y.
// Screen Y grows downwards, so -π/2 points at 12 o'clock.
func (v Vec2) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Polar returns the point at the given angle and distance from v.
func (v Vec2) Polar(angle, distance float64) Vec2 {
	return Vec2{
		X: v.X + distance*math.Cos(angle),
		Y: v.Y + distance*math.Sin(angle),
	}
}

// ApproxEqual reports whether both components differ by at most eps.
func (v Vec2) ApproxEqual(other Vec2, eps float64) bool {
	return math.Abs(v.X-other.X) <= eps && math.Abs(v.Y-other.Y) <= eps
}
