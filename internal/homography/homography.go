package homography

import (
	"errors"
	"math"
	"math/rand"
)

var (
	// ErrInsufficientPoints indicates fewer than four point correspondences.
	ErrInsufficientPoints = errors.New("at least 4 point correspondences required")
	// ErrDegenerateTransform indicates collinear or coincident points that
	// admit no invertible perspective transform.
	ErrDegenerateTransform = errors.New("degenerate transform")
)

// Point is a 2D coordinate with subpixel precision.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Matrix is a 3x3 planar projective transform in row-major order with the
// bottom-right element normalized to 1.
type Matrix [9]float64

// Method selects the estimation strategy.
type Method int

const (
	// MethodExact solves the direct linear transform from exactly the first
	// four correspondences.
	MethodExact Method = iota
	// MethodRANSAC samples four-point subsets and keeps the transform with
	// the largest consensus set. With exactly four points it degrades to
	// MethodExact.
	MethodRANSAC
)

// ransacIterations and ransacInlierThreshold tune the consensus search.
// 3px of reprojection error tolerates corner jitter from line quantization
// without admitting outliers.
const (
	ransacIterations      = 500
	ransacInlierThreshold = 3.0
)

// Estimate computes the homography H mapping src points onto dst points, so
// that H.Apply(src[i]) ~ dst[i].
//
// Returns ErrInsufficientPoints for fewer than four correspondences and
// ErrDegenerateTransform when the points are collinear or otherwise admit
// no solution. The RANSAC search uses a fixed seed, so estimation is
// reproducible for identical inputs.
func Estimate(src, dst []Point, method Method) (Matrix, error) {
	if len(src) < 4 || len(dst) < 4 || len(src) != len(dst) {
		return Matrix{}, ErrInsufficientPoints
	}

	if method == MethodExact || len(src) == 4 {
		return solveDLT(src[:4], dst[:4])
	}

	rng := rand.New(rand.NewSource(1))
	var best Matrix
	bestInliers := -1
	found := false

	for iter := 0; iter < ransacIterations; iter++ {
		idx := rng.Perm(len(src))[:4]
		sampleSrc := []Point{src[idx[0]], src[idx[1]], src[idx[2]], src[idx[3]]}
		sampleDst := []Point{dst[idx[0]], dst[idx[1]], dst[idx[2]], dst[idx[3]]}

		h, err := solveDLT(sampleSrc, sampleDst)
		if err != nil {
			continue
		}

		inliers := 0
		for i := range src {
			p := h.Apply(src[i])
			dx := p.X - dst[i].X
			dy := p.Y - dst[i].Y
			if math.Sqrt(dx*dx+dy*dy) < ransacInlierThreshold {
				inliers++
			}
		}
		if inliers > bestInliers {
			bestInliers = inliers
			best = h
			found = true
		}
	}

	if !found {
		return Matrix{}, ErrDegenerateTransform
	}
	return best, nil
}

// solveDLT computes the 8 free parameters of the homography from four
// correspondences via Gaussian elimination with partial pivoting.
func solveDLT(src, dst []Point) (Matrix, error) {
	// Two equations per correspondence in the unknowns h0..h7 (h8 = 1).
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y
		a[2*i] = [9]float64{sx, sy, 1, 0, 0, 0, -dx * sx, -dx * sy, dx}
		a[2*i+1] = [9]float64{0, 0, 0, sx, sy, 1, -dy * sx, -dy * sy, dy}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return Matrix{}, ErrDegenerateTransform
		}
		a[col], a[pivot] = a[pivot], a[col]

		for row := 0; row < 8; row++ {
			if row == col {
				continue
			}
			factor := a[row][col] / a[col][col]
			for k := col; k < 9; k++ {
				a[row][k] -= factor * a[col][k]
			}
		}
	}

	var m Matrix
	for i := 0; i < 8; i++ {
		m[i] = a[i][8] / a[i][i]
	}
	m[8] = 1
	return m, nil
}

// Apply transforms a point through the homography, performing the
// perspective divide. A point on the transform's vanishing line maps to
// +/-Inf coordinates; callers sampling images must bounds-check.
func (m Matrix) Apply(p Point) Point {
	w := m[6]*p.X + m[7]*p.Y + m[8]
	return Point{
		X: (m[0]*p.X + m[1]*p.Y + m[2]) / w,
		Y: (m[3]*p.X + m[4]*p.Y + m[5]) / w,
	}
}

// Invert returns the inverse transform via the adjugate. Returns
// ErrDegenerateTransform when the determinant is numerically zero.
func (m Matrix) Invert() (Matrix, error) {
	det := m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
	if math.Abs(det) < 1e-12 {
		return Matrix{}, ErrDegenerateTransform
	}

	adj := Matrix{
		m[4]*m[8] - m[5]*m[7], m[2]*m[7] - m[1]*m[8], m[1]*m[5] - m[2]*m[4],
		m[5]*m[6] - m[3]*m[8], m[0]*m[8] - m[2]*m[6], m[2]*m[3] - m[0]*m[5],
		m[3]*m[7] - m[4]*m[6], m[1]*m[6] - m[0]*m[7], m[0]*m[4] - m[1]*m[3],
	}

	var inv Matrix
	scale := adj[8] / det
	if scale != 0 {
		// Renormalize so the bottom-right element is 1 again.
		for i := range adj {
			inv[i] = adj[i] / det / scale
		}
	} else {
		for i := range adj {
			inv[i] = adj[i] / det
		}
	}
	return inv, nil
}
