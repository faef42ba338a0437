package core

// DensityBand groups every constant that steps with node count. Layout radii,
// angular padding, initial view framing and the rendering surface all change
// at the same discrete thresholds so the first view always frames the whole
// radial layout.
type DensityBand struct {
	// MaxNodes is the inclusive upper node count for this band; 0 means
	// unbounded.
	MaxNodes int

	BaseRadius  float64
	RingSpacing float64
	// Padding is the angular gap in radians reserved after every node in a ring.
	Padding float64

	ViewPan   Vec2
	ViewScale float64

	// Surface is the rendered canvas size; MinSurface its minimum extent.
	Surface    Vec2
	MinSurface Vec2
}

var densityBands = []DensityBand{
	{
		MaxNodes:    8,
		BaseRadius:  1600,
		RingSpacing: 800,
		Padding:     0.25,
		ViewPan:     Vec2{X: -500, Y: -400},
		ViewScale:   0.4,
		Surface:     Vec2{X: 2500, Y: 2500},
		MinSurface:  Vec2{X: 3000, Y: 2500},
	},
	{
		MaxNodes:    12,
		BaseRadius:  1800,
		RingSpacing: 900,
		Padding:     0.3,
		ViewPan:     Vec2{X: -700, Y: -500},
		ViewScale:   0.3,
		Surface:     Vec2{X: 3000, Y: 3000},
		MinSurface:  Vec2{X: 3500, Y: 3000},
	},
	{
		MaxNodes:    20,
		BaseRadius:  2000,
		RingSpacing: 1000,
		Padding:     0.4,
		ViewPan:     Vec2{X: -900, Y: -600},
		ViewScale:   0.25,
		Surface:     Vec2{X: 3500, Y: 3500},
		MinSurface:  Vec2{X: 4000, Y: 3500},
	},
	{
		BaseRadius:  2200,
		RingSpacing: 1100,
		Padding:     0.4,
		ViewPan:     Vec2{X: -1100, Y: -700},
		ViewScale:   0.2,
		Surface:     Vec2{X: 3500, Y: 3500},
		MinSurface:  Vec2{X: 4000, Y: 3500},
	},
}

// Band returns the density band for nodeCount top-level nodes.
func Band(nodeCount int) DensityBand {
	for _, b := range densityBands {
		if b.MaxNodes == 0 || nodeCount <= b.MaxNodes {
			return b
		}
	}
	return densityBands[len(densityBands)-1]
}

// RingRadius returns the radius of ring index ring for this band.
func (b DensityBand) RingRadius(ring int) float64 {
	return b.BaseRadius + float64(ring)*b.RingSpacing
}
