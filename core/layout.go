package core

import "math"

// CanvasCenter is the world position of the root topic; every ring is laid
// out around it.
var CanvasCenter = Vec2{X: 2000, Y: 1500}

const (
	// ChildRadius is the base distance unit for expanded children.
	ChildRadius = 800.0
	// ChildAngleOffset separates the summary and keyword children from the
	// center→parent ray.
	ChildAngleOffset = math.Pi / 4

	summaryDistanceFactor = 1.5
	keywordDistanceFactor = 1.5
	emojiDistanceFactor   = 2.2

	defaultSectors = 8
	denseSectors   = 12
	denseThreshold = 12
)

// SectorsPerRing returns how many nodes share one ring.
func SectorsPerRing(nodeCount int) int {
	if nodeCount > denseThreshold {
		return min(denseSectors, nodeCount)
	}
	return min(defaultSectors, nodeCount)
}

// RingsNeeded returns the number of concentric rings used for nodeCount nodes.
func RingsNeeded(nodeCount int) int {
	if nodeCount <= 0 {
		return 0
	}
	sectors := SectorsPerRing(nodeCount)
	return (nodeCount + sectors - 1) / sectors
}

// LayoutTopLevel places nodeCount topic nodes on rings around CanvasCenter.
// Node i's position depends only on (i, nodeCount); the first node of each
// ring sits at 12 o'clock and the rest follow clockwise.
func LayoutTopLevel(nodeCount int) []Vec2 {
	if nodeCount <= 0 {
		return []Vec2{}
	}

	band := Band(nodeCount)
	sectors := SectorsPerRing(nodeCount)
	rings := RingsNeeded(nodeCount)

	positions := make([]Vec2, 0, nodeCount)
	placed := 0
	for ring := 0; ring < rings && placed < nodeCount; ring++ {
		radius := band.RingRadius(ring)
		inRing := min(sectors, nodeCount-placed)

		usable := 2*math.Pi - float64(inRing)*band.Padding
		step := usable / float64(inRing)

		for i := 0; i < inRing; i++ {
			angle := float64(i)*(step+band.Padding) - math.Pi/2
			positions = append(positions, Vec2{
				X: CanvasCenter.X + radius*math.Cos(angle),
				Y: CanvasCenter.Y + radius*math.Sin(angle),
			})
			placed++
		}
	}
	return positions
}

// ChildPositions holds the three derived child points of an expanded node.
type ChildPositions struct {
	Summary   Vec2
	Keyphrase Vec2
	Emoji     Vec2
}

// LayoutChildren computes the fixed three-point star around parent. The
// summary and keyword children sit ±45° off the center→parent ray at
// 1.5×ChildRadius; the emoji child continues along the ray at 2.2×ChildRadius.
func LayoutChildren(parent, center Vec2) ChildPositions {
	theta := parent.Sub(center).Angle()
	return ChildPositions{
		Summary:   parent.Polar(theta+ChildAngleOffset, ChildRadius*summaryDistanceFactor),
		Keyphrase: parent.Polar(theta-ChildAngleOffset, ChildRadius*keywordDistanceFactor),
		Emoji:     parent.Polar(theta, ChildRadius*emojiDistanceFactor),
	}
}
