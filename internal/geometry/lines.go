package geometry

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Axis selects a line orientation for filtering.
type Axis int

const (
	// AxisHorizontal selects lines whose direction is near 0 or 180 degrees.
	AxisHorizontal Axis = iota
	// AxisVertical selects lines whose direction is near 90 degrees.
	AxisVertical
)

// Line is a detected line segment in both polar and Cartesian form.
//
// Rho and Theta are derived from the endpoints: Theta is the angle of the
// line's normal in [0, pi), and Rho the signed perpendicular distance from
// the origin, so that Rho = X1*cos(Theta) + Y1*sin(Theta) holds within
// floating tolerance. The parametric form never degenerates for vertical
// lines, unlike slope-intercept.
//
// Lines are pure values; they keep no reference to the edge map that
// produced them.
type Line struct {
	Rho   float64 `json:"rho"`
	Theta float64 `json:"theta"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
}

// Length returns the Euclidean length of the segment in pixels.
func (l Line) Length() float64 {
	dx := float64(l.X2 - l.X1)
	dy := float64(l.Y2 - l.Y1)
	return math.Sqrt(dx*dx + dy*dy)
}

// DirectionDegrees returns the segment's direction angle in [0, 180).
// A horizontal segment reports ~0, a vertical one ~90.
func (l Line) DirectionDegrees() float64 {
	deg := math.Atan2(float64(l.Y2-l.Y1), float64(l.X2-l.X1)) * 180 / math.Pi
	for deg < 0 {
		deg += 180
	}
	for deg >= 180 {
		deg -= 180
	}
	return deg
}

// LineOptions controls the Hough line detector.
type LineOptions struct {
	// RhoResolution is the distance resolution of the accumulator in pixels.
	RhoResolution float64
	// ThetaResolution is the angle resolution of the accumulator in radians.
	ThetaResolution float64
	// VoteThreshold is the minimum accumulator count for a line candidate.
	VoteThreshold int
	// MinLength is the minimum segment length in pixels.
	MinLength int
	// MaxGap is the largest gap (along the line) bridged within one segment.
	MaxGap int
	// MaxLines caps the number of returned segments, strongest first.
	MaxLines int
}

// DefaultLineOptions returns the detector defaults used by the pipeline:
// 1px distance and 1 degree angle resolution, 100-vote threshold, 100px
// minimum length, 10px maximum gap, at most 50 lines.
func DefaultLineOptions() LineOptions {
	return LineOptions{
		RhoResolution:   1,
		ThetaResolution: math.Pi / 180,
		VoteThreshold:   100,
		MinLength:       100,
		MaxGap:          10,
		MaxLines:        50,
	}
}

// DetectLines extracts line segments from a binary edge map using a Hough
// accumulator.
//
// Edge pixels (value > 127) vote into a (rho, theta) accumulator; cells
// clearing VoteThreshold that are also local maxima in a 5x5 accumulator
// neighborhood become candidates, so a single physical edge yields a single
// line rather than a cluster of near-identical ones. For each candidate the
// segment endpoints come from scanning edge pixels along the line for the
// longest run whose internal gaps stay within MaxGap; runs shorter than
// MinLength are dropped.
//
// Returns an empty (non-nil) slice when nothing clears the threshold;
// callers must handle the empty case, it is not an error.
func DetectLines(edges *image.Gray, opts LineOptions) []Line {
	lines := []Line{}
	if edges == nil {
		return lines
	}
	bounds := edges.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return lines
	}
	if opts.RhoResolution <= 0 || opts.ThetaResolution <= 0 {
		return lines
	}

	// Collect edge pixels in 0-based coordinates.
	points := make([]Point, 0, 1024)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y > 127 {
				points = append(points, Point{X: x, Y: y})
			}
		}
	}
	if len(points) == 0 {
		return lines
	}

	maxDist := math.Sqrt(float64(width*width + height*height))
	numThetas := int(math.Round(math.Pi / opts.ThetaResolution))
	if numThetas < 1 {
		numThetas = 1
	}
	numRhos := int(2*maxDist/opts.RhoResolution) + 1

	cosTable := make([]float64, numThetas)
	sinTable := make([]float64, numThetas)
	for t := 0; t < numThetas; t++ {
		angle := float64(t) * opts.ThetaResolution
		cosTable[t] = math.Cos(angle)
		sinTable[t] = math.Sin(angle)
	}

	acc := make([][]int, numRhos)
	for i := range acc {
		acc[i] = make([]int, numThetas)
	}

	for _, p := range points {
		for t := 0; t < numThetas; t++ {
			rho := float64(p.X)*cosTable[t] + float64(p.Y)*sinTable[t]
			rhoIdx := int((rho + maxDist) / opts.RhoResolution)
			if rhoIdx >= 0 && rhoIdx < numRhos {
				acc[rhoIdx][t]++
			}
		}
	}

	type peak struct {
		rhoIdx, thetaIdx, votes int
	}
	peaks := make([]peak, 0)

	for r := 0; r < numRhos; r++ {
		for t := 0; t < numThetas; t++ {
			votes := acc[r][t]
			if votes < opts.VoteThreshold {
				continue
			}
			// Tie-break: only the strongest cell in a 5x5 neighborhood
			// survives, so one physical edge reports one line.
			isMax := true
			for dr := -2; dr <= 2 && isMax; dr++ {
				for dt := -2; dt <= 2 && isMax; dt++ {
					if dr == 0 && dt == 0 {
						continue
					}
					nr := r + dr
					nt := t + dt
					if nr < 0 || nr >= numRhos || nt < 0 || nt >= numThetas {
						continue
					}
					if acc[nr][nt] > votes {
						isMax = false
					}
				}
			}
			if isMax {
				peaks = append(peaks, peak{rhoIdx: r, thetaIdx: t, votes: votes})
			}
		}
	}

	sort.Slice(peaks, func(i, j int) bool { return peaks[i].votes > peaks[j].votes })

	maxLines := opts.MaxLines
	if maxLines <= 0 {
		maxLines = 50
	}

	for _, pk := range peaks {
		if len(lines) >= maxLines {
			break
		}

		cosT := cosTable[pk.thetaIdx]
		sinT := sinTable[pk.thetaIdx]
		rho := float64(pk.rhoIdx)*opts.RhoResolution - maxDist

		segment, ok := traceSegment(points, cosT, sinT, rho, opts)
		if !ok {
			continue
		}
		lines = append(lines, segment)
	}

	return lines
}

// traceSegment scans the edge pixels lying on a Hough candidate line for the
// longest run with internal gaps no larger than MaxGap, and converts that
// run into a Line value with endpoint-derived polar parameters.
func traceSegment(points []Point, cosT, sinT, rho float64, opts LineOptions) (Line, bool) {
	tol := 2 * opts.RhoResolution
	if tol < 2 {
		tol = 2
	}

	type projected struct {
		p Point
		t float64
	}
	onLine := make([]projected, 0, 64)
	for _, p := range points {
		dist := math.Abs(float64(p.X)*cosT + float64(p.Y)*sinT - rho)
		if dist < tol {
			// Coordinate along the line direction (-sin, cos).
			onLine = append(onLine, projected{p: p, t: -float64(p.X)*sinT + float64(p.Y)*cosT})
		}
	}
	if len(onLine) < 2 {
		return Line{}, false
	}

	sort.Slice(onLine, func(i, j int) bool { return onLine[i].t < onLine[j].t })

	bestStart, bestEnd := 0, 0
	bestSpan := 0.0
	runStart := 0
	for i := 1; i <= len(onLine); i++ {
		if i == len(onLine) || onLine[i].t-onLine[i-1].t > float64(opts.MaxGap) {
			span := onLine[i-1].t - onLine[runStart].t
			if span > bestSpan {
				bestSpan = span
				bestStart, bestEnd = runStart, i-1
			}
			runStart = i
		}
	}
	if bestSpan < float64(opts.MinLength) {
		return Line{}, false
	}

	start := onLine[bestStart].p
	end := onLine[bestEnd].p
	theta, segRho := polarFromEndpoints(start, end)

	return Line{
		Rho:   segRho,
		Theta: theta,
		X1:    start.X,
		Y1:    start.Y,
		X2:    end.X,
		Y2:    end.Y,
	}, true
}

// polarFromEndpoints derives the normal angle theta in [0, pi) and the
// signed distance rho from a segment's endpoints, preserving the invariant
// rho = x1*cos(theta) + y1*sin(theta).
func polarFromEndpoints(a, b Point) (theta, rho float64) {
	phi := math.Atan2(float64(b.Y-a.Y), float64(b.X-a.X))
	theta = phi + math.Pi/2
	for theta < 0 {
		theta += math.Pi
	}
	for theta >= math.Pi {
		theta -= math.Pi
	}
	rho = float64(a.X)*math.Cos(theta) + float64(a.Y)*math.Sin(theta)
	return theta, rho
}

// FilterByOrientation returns the subset of lines whose direction lies
// within toleranceDegrees of the given axis. Horizontal means a direction
// near 0/180 degrees, vertical near 90.
func FilterByOrientation(lines []Line, axis Axis, toleranceDegrees float64) []Line {
	filtered := make([]Line, 0, len(lines))
	for _, l := range lines {
		deg := l.DirectionDegrees()
		switch axis {
		case AxisHorizontal:
			if deg <= toleranceDegrees || deg >= 180-toleranceDegrees {
				filtered = append(filtered, l)
			}
		case AxisVertical:
			if math.Abs(deg-90) <= toleranceDegrees {
				filtered = append(filtered, l)
			}
		}
	}
	return filtered
}

// DrawLines renders line segments onto a copy of an image. The input is
// never modified.
func DrawLines(img image.Image, lines []Line, c color.Color) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	for _, l := range lines {
		drawSegment(out, l.X1+bounds.Min.X, l.Y1+bounds.Min.Y, l.X2+bounds.Min.X, l.Y2+bounds.Min.Y, c)
	}
	return out
}

// drawSegment draws a line with Bresenham's algorithm.
func drawSegment(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy

	for {
		if image.Pt(x1, y1).In(img.Bounds()) {
			img.Set(x1, y1, c)
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
