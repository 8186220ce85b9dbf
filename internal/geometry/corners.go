package geometry

import (
	"errors"
	"math"
	"sort"
)

// ErrNoQuadrilateral indicates that the detected lines do not contain two
// near-horizontal and two near-vertical lines with four finite pairwise
// intersections.
var ErrNoQuadrilateral = errors.New("no quadrilateral found")

// DefaultClusterTolerance is the orientation window, in degrees, used to
// split lines into horizontal and vertical families when inferring a
// surface's corners.
const DefaultClusterTolerance = 30.0

// Quad holds four corners in canonical order: top-left, top-right,
// bottom-right, bottom-left.
type Quad [4]Point

// FindQuadrilateral infers a four-corner surface boundary from detected
// line segments.
//
// Lines are split into a near-horizontal and a near-vertical family (within
// DefaultClusterTolerance degrees of their axis). The extremal member of
// each family bounds the surface: topmost and bottommost horizontals by
// mean Y, leftmost and rightmost verticals by mean X. The four pairwise
// intersections of those boundary lines, ordered canonically, form the
// result.
//
// Interior lines (door frames, shelves, tile joints) are ignored by
// construction since only the extremal lines participate. Returns
// ErrNoQuadrilateral when either family has fewer than two members or any
// boundary pair is near-parallel.
func FindQuadrilateral(lines []Line) (Quad, error) {
	horizontal := FilterByOrientation(lines, AxisHorizontal, DefaultClusterTolerance)
	vertical := FilterByOrientation(lines, AxisVertical, DefaultClusterTolerance)

	if len(horizontal) < 2 || len(vertical) < 2 {
		return Quad{}, ErrNoQuadrilateral
	}

	sort.Slice(horizontal, func(i, j int) bool {
		return midpointY(horizontal[i]) < midpointY(horizontal[j])
	})
	sort.Slice(vertical, func(i, j int) bool {
		return midpointX(vertical[i]) < midpointX(vertical[j])
	})

	top := horizontal[0]
	bottom := horizontal[len(horizontal)-1]
	left := vertical[0]
	right := vertical[len(vertical)-1]

	corners := make([]Point, 0, 4)
	for _, h := range []Line{top, bottom} {
		for _, v := range []Line{left, right} {
			p, ok := intersect(h, v)
			if !ok {
				return Quad{}, ErrNoQuadrilateral
			}
			corners = append(corners, p)
		}
	}

	return orderCorners([4]Point{corners[0], corners[1], corners[2], corners[3]}), nil
}

func midpointY(l Line) float64 { return float64(l.Y1+l.Y2) / 2 }
func midpointX(l Line) float64 { return float64(l.X1+l.X2) / 2 }

// intersect computes the intersection of two infinite lines given by
// segment endpoints. Returns false when the lines are parallel within
// floating tolerance.
func intersect(a, b Line) (Point, bool) {
	x1, y1 := float64(a.X1), float64(a.Y1)
	x2, y2 := float64(a.X2), float64(a.Y2)
	x3, y3 := float64(b.X1), float64(b.Y1)
	x4, y4 := float64(b.X2), float64(b.Y2)

	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if math.Abs(denom) < 1e-10 {
		return Point{}, false
	}

	t := ((x1-x3)*(y3-y4) - (y1-y3)*(x3-x4)) / denom
	return Point{
		X: int(math.Round(x1 + t*(x2-x1))),
		Y: int(math.Round(y1 + t*(y2-y1))),
	}, true
}

// orderCorners sorts four points into TL, TR, BR, BL order: the two
// smallest-Y points form the top pair, then X decides left from right
// within each pair.
func orderCorners(pts [4]Point) Quad {
	sorted := pts[:]
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	top := []Point{sorted[0], sorted[1]}
	bottom := []Point{sorted[2], sorted[3]}
	if top[0].X > top[1].X {
		top[0], top[1] = top[1], top[0]
	}
	if bottom[0].X > bottom[1].X {
		bottom[0], bottom[1] = bottom[1], bottom[0]
	}

	return Quad{top[0], top[1], bottom[1], bottom[0]}
}
