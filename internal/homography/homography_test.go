package homography

import (
	"errors"
	"math"
	"testing"
)

func TestEstimate_InsufficientPoints(t *testing.T) {
	three := []Point{{0, 0}, {1, 0}, {1, 1}}
	if _, err := Estimate(three, three, MethodExact); !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("3 points: got %v, want ErrInsufficientPoints", err)
	}
	if _, err := Estimate(nil, nil, MethodRANSAC); !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("no points: got %v, want ErrInsufficientPoints", err)
	}
}

func TestEstimate_Collinear(t *testing.T) {
	src := []Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}}
	dst := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if _, err := Estimate(src, dst, MethodExact); !errors.Is(err, ErrDegenerateTransform) {
		t.Errorf("collinear source: got %v, want ErrDegenerateTransform", err)
	}
}

func TestEstimate_MapsCorrespondences(t *testing.T) {
	src := []Point{{0, 0}, {511, 0}, {511, 511}, {0, 511}}
	dst := []Point{{100, 50}, {700, 80}, {680, 500}, {120, 520}}

	h, err := Estimate(src, dst, MethodExact)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	for i := range src {
		p := h.Apply(src[i])
		if math.Abs(p.X-dst[i].X) > 0.5 || math.Abs(p.Y-dst[i].Y) > 0.5 {
			t.Errorf("point %d: Apply(%v) = %v, want %v", i, src[i], p, dst[i])
		}
	}
}

func TestEstimate_IdentityFromAlignedPoints(t *testing.T) {
	pts := []Point{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	h, err := Estimate(pts, pts, MethodExact)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	want := Matrix{1, 0, 0, 0, 1, 0, 0, 0, 1}
	for i := range h {
		if math.Abs(h[i]-want[i]) > 1e-9 {
			t.Errorf("element %d: got %.12f, want %.0f", i, h[i], want[i])
		}
	}
}

func TestEstimate_RANSACRejectsOutliers(t *testing.T) {
	// A known transform with clean correspondences plus two gross outliers.
	truth, err := Estimate(
		[]Point{{0, 0}, {200, 0}, {200, 200}, {0, 200}},
		[]Point{{10, 20}, {230, 15}, {240, 210}, {5, 220}},
		MethodExact,
	)
	if err != nil {
		t.Fatalf("setup transform failed: %v", err)
	}

	src := []Point{
		{0, 0}, {200, 0}, {200, 200}, {0, 200},
		{50, 50}, {150, 50}, {100, 150}, {60, 120},
		{30, 170}, {170, 30},
	}
	dst := make([]Point, len(src))
	for i, p := range src {
		dst[i] = truth.Apply(p)
	}
	dst[4] = Point{X: dst[4].X + 80, Y: dst[4].Y - 60}
	dst[7] = Point{X: dst[7].X - 100, Y: dst[7].Y + 90}

	h, err := Estimate(src, dst, MethodRANSAC)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	// Inlier correspondences must map accurately despite the outliers.
	for _, i := range []int{0, 1, 2, 3, 5, 6, 8, 9} {
		p := h.Apply(src[i])
		if math.Abs(p.X-dst[i].X) > 1.0 || math.Abs(p.Y-dst[i].Y) > 1.0 {
			t.Errorf("inlier %d: got %v, want %v", i, p, dst[i])
		}
	}
}

func TestInvert_RoundTrip(t *testing.T) {
	h, err := Estimate(
		[]Point{{0, 0}, {300, 0}, {300, 300}, {0, 300}},
		[]Point{{40, 30}, {320, 60}, {310, 340}, {20, 310}},
		MethodExact,
	)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	inv, err := h.Invert()
	if err != nil {
		t.Fatalf("Invert failed: %v", err)
	}

	for _, p := range []Point{{10, 10}, {150, 80}, {250, 290}} {
		back := inv.Apply(h.Apply(p))
		if math.Abs(back.X-p.X) > 1e-6 || math.Abs(back.Y-p.Y) > 1e-6 {
			t.Errorf("round trip of %v drifted to %v", p, back)
		}
	}
}

func TestInvert_Singular(t *testing.T) {
	singular := Matrix{1, 2, 3, 2, 4, 6, 0, 0, 1}
	if _, err := singular.Invert(); !errors.Is(err, ErrDegenerateTransform) {
		t.Errorf("singular matrix: got %v, want ErrDegenerateTransform", err)
	}
}
