package core

import (
	"math"
	"testing"
)

func TestVec2Arithmetic(t *testing.T) {
	a := Vec2{X: 3, Y: 4}
	b := Vec2{X: 1, Y: -2}

	if got := a.Add(b); got != (Vec2{X: 4, Y: 2}) {
		t.Errorf("Add = %+v", got)
	}
	if got := a.Sub(b); got != (Vec2{X: 2, Y: 6}) {
		t.Errorf("Sub = %+v", got)
	}
	if got := a.Scale(2); got != (Vec2{X: 6, Y: 8}) {
		t.Errorf("Scale = %+v", got)
	}
	if got := a.Div(2); got != (Vec2{X: 1.5, Y: 2}) {
		t.Errorf("Div = %+v", got)
	}
	if got := a.Norm(); got != 5 {
		t.Errorf("Norm = %v, want 5", got)
	}
	if got := a.DistanceTo(Vec2{}); got != 5 {
		t.Errorf("DistanceTo = %v, want 5", got)
	}
}

func TestVec2PolarAngleRoundTrip(t *testing.T) {
	origin := Vec2{X: 2000, Y: 1500}
	for _, angle := range []float64{-math.Pi / 2, 0, math.Pi / 4, 3 * math.Pi / 4, -3 * math.Pi / 4} {
		p := origin.Polar(angle, 1200)
		delta := p.Sub(origin)
		if math.Abs(delta.Angle()-angle) > 1e-9 {
			t.Errorf("angle %v round-tripped to %v", angle, delta.Angle())
		}
		if math.Abs(delta.Norm()-1200) > 1e-9 {
			t.Errorf("distance for angle %v = %v, want 1200", angle, delta.Norm())
		}
	}
}
