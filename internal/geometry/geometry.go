package geometry

import "math"

// Point is a location in world space: a single coordinate plane spanning
// all pages laid out side by side, so page i occupies x in [i*W, (i+1)*W).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ToWorld converts a page-local point into world space. pageIndex may be
// fractional during mid-gesture interpolation; the result is the linear
// blend and callers must not assume an integral page origin.
func ToWorld(local Point, pageIndex, pageWidth float64) Point {
	return Point{X: local.X + pageIndex*pageWidth, Y: local.Y}
}

// ToLocal is the inverse of ToWorld.
func ToLocal(world Point, pageIndex, pageWidth float64) Point {
	return Point{X: world.X - pageIndex*pageWidth, Y: world.Y}
}

const (
	// connectorLead is the fixed vertical travel leaving the origin anchor.
	connectorLead = 40.0
	// connectorRadius is the nominal corner radius before clamping.
	connectorRadius = 20.0
)

// Path is a right-angle connector path with rounded corners. Points holds
// the polyline corners including both endpoints; CornerRadius is the
// effective radius after clamping, 0 for a straight line.
type Path struct {
	Points       []Point
	CornerRadius float64
}

// Start returns the exact first point of the path.
func (p Path) Start() Point {
	return p.Points[0]
}

// End returns the exact last point of the path.
func (p Path) End() Point {
	return p.Points[len(p.Points)-1]
}

// ConnectorPath builds the connector between two world points: a vertical
// lead of up to connectorLead units toward to.Y, a horizontal run to to.X,
// then a vertical tail to to.Y. The corner radius is clamped so it never
// exceeds half of any leg; degenerate legs collapse to a straight line.
// Deterministic: equal inputs always produce equal paths.
func ConnectorPath(from, to Point) Path {
	dx := to.X - from.X
	dy := to.Y - from.Y
	if dx == 0 || dy == 0 {
		return Path{Points: []Point{from, to}}
	}

	lead := connectorLead
	if math.Abs(dy) < lead {
		lead = math.Abs(dy)
	}
	elbowY := from.Y + math.Copysign(lead, dy)

	points := []Point{from, {X: from.X, Y: elbowY}, {X: to.X, Y: elbowY}}
	if elbowY != to.Y {
		points = append(points, to)
	}

	radius := connectorRadius
	for i := 1; i < len(points); i++ {
		leg := legLength(points[i-1], points[i])
		if half := leg / 2; half < radius {
			radius = half
		}
	}

	return Path{Points: points, CornerRadius: radius}
}

func legLength(a, b Point) float64 {
	return math.Abs(b.X-a.X) + math.Abs(b.Y-a.Y)
}
