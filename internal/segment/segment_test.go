package segment

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/rs/zerolog"

	"github.com/renderease/surface-tools/internal/geometry"
)

// roomImage draws a dark rectangle outline on a light background, the
// minimal photograph of a wall.
func roomImage(w, h, x1, y1, x2, y2 int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{200, 200, 200, 255})
		}
	}
	thick := func(x, y int) {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				img.Set(x+dx, y+dy, color.RGBA{20, 20, 20, 255})
			}
		}
	}
	for x := x1; x <= x2; x++ {
		thick(x, y1)
		thick(x, y2)
	}
	for y := y1; y <= y2; y++ {
		thick(x1, y)
		thick(x2, y)
	}
	return img
}

// fakePredictor scripts Predictor behavior for fallback tests.
type fakePredictor struct {
	mask       *image.Gray
	confidence float64
	err        error
	gotPrompt  *geometry.Point
	closed     bool
}

func (f *fakePredictor) Predict(img image.Image, surface Surface, prompt *geometry.Point) (*Prediction, error) {
	f.gotPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return &Prediction{Mask: f.mask, Confidence: f.confidence}, nil
}

func (f *fakePredictor) Close() error {
	f.closed = true
	return nil
}

func newTestEngine() *Engine {
	return NewEngine(zerolog.Nop())
}

func TestSegment_GeometricQuadrilateral(t *testing.T) {
	img := roomImage(800, 600, 100, 60, 700, 500)

	res, err := newTestEngine().Segment(img, MethodGeometric, Options{Surface: SurfaceWall})
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	if res.Method != MethodGeometric || res.Requested != MethodGeometric {
		t.Errorf("provenance: method=%s requested=%s", res.Method, res.Requested)
	}
	if res.Corners == nil {
		t.Fatalf("no corners found, warnings: %v", res.Warnings)
	}
	if res.Confidence != confidenceQuad {
		t.Errorf("confidence: got %v, want %v", res.Confidence, confidenceQuad)
	}
	// Mask interior set, exterior clear.
	if res.Mask.GrayAt(400, 300).Y != 255 {
		t.Error("mask interior not set")
	}
	if res.Mask.GrayAt(20, 20).Y != 0 {
		t.Error("mask exterior set")
	}
	// Corners near the drawn rectangle.
	want := geometry.Quad{{X: 100, Y: 60}, {X: 700, Y: 60}, {X: 700, Y: 500}, {X: 100, Y: 500}}
	for i, c := range res.Corners {
		dx, dy := c.X-want[i].X, c.Y-want[i].Y
		if dx < -6 || dx > 6 || dy < -6 || dy > 6 {
			t.Errorf("corner %d: got %v, want within 6px of %v", i, c, want[i])
		}
	}
}

func TestSegment_GeometricFallbackOnFeaturelessImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}

	res, err := newTestEngine().Segment(img, MethodGeometric, Options{Surface: SurfaceFloor})
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if res.Corners != nil {
		t.Error("featureless image reported corners")
	}
	if res.Confidence != confidenceFallback {
		t.Errorf("confidence: got %v, want %v", res.Confidence, confidenceFallback)
	}
	if len(res.Warnings) == 0 {
		t.Error("fallback left no warnings")
	}
	// Last resort is an all-foreground mask.
	if res.Coverage != 1 {
		t.Errorf("coverage: got %v, want 1", res.Coverage)
	}
	if res.Mask.GrayAt(100, 140).Y != 255 || res.Mask.GrayAt(100, 20).Y != 255 {
		t.Error("full-image mask has unset pixels")
	}
}

func TestSegment_SemanticUsesModel(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 20; y < 80; y++ {
		for x := 10; x < 90; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	fake := &fakePredictor{mask: mask, confidence: 0.84}

	engine := newTestEngine().WithSemantic(fake)
	res, err := engine.Segment(roomImage(100, 100, 10, 10, 90, 90), MethodSemantic, Options{Surface: SurfaceWall})
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	if res.Method != MethodSemantic || res.Requested != MethodSemantic {
		t.Errorf("provenance: method=%s requested=%s", res.Method, res.Requested)
	}
	if res.Confidence != 0.84 {
		t.Errorf("confidence: got %v, want model's 0.84", res.Confidence)
	}
	if res.Mask.GrayAt(50, 50).Y != 255 {
		t.Error("model mask pixel lost")
	}
	if res.Corners == nil {
		t.Error("mask bounds missing from result")
	}
}

// A wall mask bleeding to the frame edge gets clipped to the wall band.
func TestSegment_SemanticClipsToSurfaceBand(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 100, 100))
	for i := range mask.Pix {
		mask.Pix[i] = 255
	}
	fake := &fakePredictor{mask: mask, confidence: 0.9}

	engine := newTestEngine().WithSemantic(fake)
	res, err := engine.Segment(roomImage(100, 100, 10, 10, 90, 90), MethodSemantic, Options{Surface: SurfaceWall})
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if res.Mask.GrayAt(50, 2).Y != 0 || res.Mask.GrayAt(50, 98).Y != 0 {
		t.Error("mask rows outside the wall band survived")
	}
	if res.Mask.GrayAt(50, 50).Y != 255 {
		t.Error("mask rows inside the wall band lost")
	}
}

func TestSegment_FallbackProvenance(t *testing.T) {
	img := roomImage(400, 300, 50, 40, 350, 260)

	tests := []struct {
		name   string
		engine *Engine
	}{
		{"model not configured", newTestEngine()},
		{"model errors", newTestEngine().WithSemantic(&fakePredictor{err: errors.New("session crashed")})},
		{"model returns nil mask", newTestEngine().WithSemantic(&fakePredictor{mask: nil})},
		{"model returns empty mask", newTestEngine().WithSemantic(
			&fakePredictor{mask: image.NewGray(image.Rect(0, 0, 400, 300))})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.engine.Segment(img, MethodSemantic, Options{Surface: SurfaceWall})
			if err != nil {
				t.Fatalf("Segment failed: %v", err)
			}
			if res.Requested != MethodSemantic {
				t.Errorf("requested: got %s, want semantic", res.Requested)
			}
			if res.Method != MethodGeometric {
				t.Errorf("method: got %s, want geometric fallback", res.Method)
			}
			if len(res.Warnings) == 0 {
				t.Error("fallback recorded no warning")
			}
			if res.Mask == nil || res.Coverage == 0 {
				t.Error("fallback produced no usable mask")
			}
		})
	}
}

func TestSegment_PromptablePlacesDefaultPrompt(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 200, 100))
	for y := 60; y < 100; y++ {
		for x := 0; x < 200; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	fake := &fakePredictor{mask: mask, confidence: 0.7}

	engine := newTestEngine().WithPromptable(fake)
	_, err := engine.Segment(roomImage(200, 100, 10, 10, 190, 90), MethodPromptable, Options{Surface: SurfaceFloor})
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	if fake.gotPrompt == nil {
		t.Fatal("no prompt passed to the model")
	}
	// Floor band is rows 60..100; prompt at its vertical center.
	if fake.gotPrompt.X != 100 || fake.gotPrompt.Y != 80 {
		t.Errorf("default prompt: got %v, want (100, 80)", *fake.gotPrompt)
	}
}

func TestSegment_ExplicitPromptWins(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 100, 100))
	mask.SetGray(50, 50, color.Gray{Y: 255})
	fake := &fakePredictor{mask: mask, confidence: 0.7}

	engine := newTestEngine().WithPromptable(fake)
	prompt := &geometry.Point{X: 33, Y: 44}
	_, err := engine.Segment(roomImage(100, 100, 5, 5, 95, 95), MethodPromptable,
		Options{Surface: SurfaceWall, Prompt: prompt})
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if fake.gotPrompt != prompt {
		t.Error("explicit prompt not forwarded")
	}
}

func TestSegment_InvalidInput(t *testing.T) {
	if _, err := newTestEngine().Segment(nil, MethodGeometric, Options{}); !errors.Is(err, ErrNoImage) {
		t.Errorf("nil image: got %v, want ErrNoImage", err)
	}
	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if _, err := newTestEngine().Segment(empty, MethodGeometric, Options{}); !errors.Is(err, ErrNoImage) {
		t.Errorf("empty image: got %v, want ErrNoImage", err)
	}
	if _, err := newTestEngine().Segment(roomImage(50, 50, 5, 5, 45, 45), "magic", Options{}); err == nil {
		t.Error("unknown method accepted")
	}
}

func TestEngine_CloseClosesModels(t *testing.T) {
	sem := &fakePredictor{}
	pro := &fakePredictor{}
	engine := newTestEngine().WithSemantic(sem).WithPromptable(pro)
	if err := engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !sem.closed || !pro.closed {
		t.Error("Close did not reach all models")
	}
}
