package core

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidViewport is returned when scale bounds or zoom factor are unusable.
var ErrInvalidViewport = errors.New("invalid viewport options")

const (
	DefaultMinScale     = 0.1
	DefaultMaxScale     = 2.0
	DefaultZoomFactor   = 1.2
	DefaultInitialScale = 0.8
)

// ViewportOptions bounds the scale and sets the zoom step.
type ViewportOptions struct {
	MinScale   float64
	MaxScale   float64
	ZoomFactor float64
}

// DefaultViewportOptions returns the standard [0.1, 2.0] range with a 1.2 step.
func DefaultViewportOptions() ViewportOptions {
	return ViewportOptions{
		MinScale:   DefaultMinScale,
		MaxScale:   DefaultMaxScale,
		ZoomFactor: DefaultZoomFactor,
	}
}

// Validate rejects bounds that would allow a zero or negative scale.
func (o ViewportOptions) Validate() error {
	if o.MinScale <= 0 {
		return fmt.Errorf("%w: min scale must be > 0, got %v", ErrInvalidViewport, o.MinScale)
	}
	if o.MaxScale < o.MinScale {
		return fmt.Errorf("%w: max scale %v below min scale %v", ErrInvalidViewport, o.MaxScale, o.MinScale)
	}
	if o.ZoomFactor <= 1 {
		return fmt.Errorf("%w: zoom factor must be > 1, got %v", ErrInvalidViewport, o.ZoomFactor)
	}
	return nil
}

// Viewport maps world coordinates onto the screen:
//
//	screen = world*Scale + Pan + Origin
//
// Origin is the container's top-left corner in client coordinates.
type Viewport struct {
	Pan    Vec2
	Scale  float64
	Origin Vec2

	opts ViewportOptions
}

// NewViewport returns the pre-reset viewport: no pan at scale 0.8. Invalid
// options fall back to the defaults.
func NewViewport(opts ViewportOptions) Viewport {
	if opts.Validate() != nil {
		opts = DefaultViewportOptions()
	}
	v := Viewport{opts: opts}
	v.SetScale(DefaultInitialScale)
	return v
}

// Options returns the bounds this viewport clamps against.
func (v *Viewport) Options() ViewportOptions {
	if v.opts.Validate() != nil {
		return DefaultViewportOptions()
	}
	return v.opts
}

// SetScale clamps s into [MinScale, MaxScale].
func (v *Viewport) SetScale(s float64) {
	o := v.Options()
	switch {
	case math.IsNaN(s) || s < o.MinScale:
		s = o.MinScale
	case s > o.MaxScale:
		s = o.MaxScale
	}
	v.Scale = s
}

func (v *Viewport) ZoomIn() {
	v.SetScale(v.Scale * v.Options().ZoomFactor)
}

func (v *Viewport) ZoomOut() {
	v.SetScale(v.Scale / v.Options().ZoomFactor)
}

// ScreenToWorld converts a client point to world space.
func (v *Viewport) ScreenToWorld(p Vec2) Vec2 {
	return p.Sub(v.Origin).Sub(v.Pan).Div(v.scale())
}

// WorldToScreen converts a world point to client space.
func (v *Viewport) WorldToScreen(w Vec2) Vec2 {
	return w.Scale(v.scale()).Add(v.Pan).Add(v.Origin)
}

// Reset applies the density band framing for nodeCount nodes.
func (v *Viewport) Reset(nodeCount int) {
	band := Band(nodeCount)
	v.Pan = band.ViewPan
	v.SetScale(band.ViewScale)
}

func (v *Viewport) scale() float64 {
	if v.Scale <= 0 {
		return v.Options().MinScale
	}
	return v.Scale
}
