package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	imagingx "github.com/renderease/surface-tools/internal/imaging"
	"github.com/renderease/surface-tools/internal/segment"
	"github.com/renderease/surface-tools/internal/texture"
)

// writeRoomPNG renders a photograph-like scene: a light room with a dark
// wall outline from (x1,y1) to (x2,y2).
func writeRoomPNG(t *testing.T, path string, w, h, x1, y1, x2, y2 int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{205, 200, 195, 255})
		}
	}
	dark := color.RGBA{25, 25, 25, 255}
	for x := x1; x <= x2; x++ {
		for d := -1; d <= 1; d++ {
			img.Set(x, y1+d, dark)
			img.Set(x, y2+d, dark)
		}
	}
	for y := y1; y <= y2; y++ {
		for d := -1; d <= 1; d++ {
			img.Set(x1+d, y, dark)
			img.Set(x2+d, y, dark)
		}
	}
	if err := imagingx.SavePNG(path, img); err != nil {
		t.Fatalf("writing room image: %v", err)
	}
}

func loadGray(t *testing.T, path string) *image.Gray {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}
	gray := image.NewGray(img.Bounds())
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if r>>8 > 127 {
				gray.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return gray
}

func newTestOrchestrator(t *testing.T, dir string) *Orchestrator {
	t.Helper()
	return New(Config{
		OutputDir:         dir,
		SaveIntermediates: true,
		Logger:            zerolog.Nop(),
	})
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "room.png")
	writeRoomPNG(t, imagePath, 800, 600, 100, 50, 700, 500)

	o := newTestOrchestrator(t, dir)
	defer o.Close()

	record, err := o.Run(context.Background(), Job{
		ImagePath: imagePath,
		Texture:   &texture.Params{Material: texture.Brick, Seed: 11},
		Method:    segment.MethodGeometric,
		Surface:   segment.SurfaceWall,
	})
	if err != nil {
		t.Fatalf("Run failed: %v (record: %+v)", err, record)
	}

	if record.Stage != StageDone {
		t.Errorf("stage: got %s, want done", record.Stage)
	}
	if record.Method != segment.MethodGeometric || record.Requested != segment.MethodGeometric {
		t.Errorf("provenance: method=%s requested=%s", record.Method, record.Requested)
	}
	if record.Corners == nil {
		t.Fatalf("no corners recorded, warnings: %v", record.Warnings)
	}
	// The wall fills 600x450 of the 800x600 frame.
	if record.Coverage < 0.5 || record.Coverage > 0.65 {
		t.Errorf("coverage: got %.3f, want in [0.5, 0.65]", record.Coverage)
	}
	if record.Material != "brick" {
		t.Errorf("material: got %q, want brick", record.Material)
	}
	if len(record.Timings) < 4 {
		t.Errorf("timings: got %d stages, want >= 4", len(record.Timings))
	}

	// Output artifacts on disk.
	if _, err := os.Stat(record.OutputPath); err != nil {
		t.Errorf("output image missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, record.ID+".json")); err != nil {
		t.Errorf("run record missing: %v", err)
	}

	// The persisted mask must agree with the drawn wall.
	mask := loadGray(t, record.MaskPath)
	inter, union := 0, 0
	for y := 0; y < 600; y++ {
		for x := 0; x < 800; x++ {
			inWall := x >= 100 && x <= 700 && y >= 50 && y <= 500
			inMask := mask.GrayAt(x, y).Y == 255
			if inWall && inMask {
				inter++
			}
			if inWall || inMask {
				union++
			}
		}
	}
	if iou := float64(inter) / float64(union); iou < 0.7 {
		t.Errorf("mask IoU with drawn wall: got %.3f, want >= 0.7", iou)
	}

	// Composited output differs from the base inside the wall, matches
	// outside it.
	f, err := os.Open(record.OutputPath)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()
	out, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	r, _, _, _ := out.At(400, 300).RGBA()
	if r>>8 == 205 {
		t.Error("wall interior pixel unchanged by compositing")
	}
	r, g, b, _ := out.At(20, 20).RGBA()
	if r>>8 != 205 || g>>8 != 200 || b>>8 != 195 {
		t.Error("pixel outside the wall was altered")
	}
}

func TestRun_TextureFromFile(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "room.png")
	writeRoomPNG(t, imagePath, 400, 300, 50, 40, 350, 260)

	texImg, err := texture.Generate(texture.Params{Material: texture.Wood, Width: 128, Height: 128, Seed: 3})
	if err != nil {
		t.Fatalf("generating texture: %v", err)
	}
	texPath := filepath.Join(dir, "wood.png")
	if err := imagingx.SavePNG(texPath, texImg); err != nil {
		t.Fatalf("saving texture: %v", err)
	}

	o := newTestOrchestrator(t, dir)
	defer o.Close()

	record, err := o.Run(context.Background(), Job{ImagePath: imagePath, TexturePath: texPath})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if record.TexturePath != texPath {
		t.Errorf("texture path not recorded: %q", record.TexturePath)
	}
}

func TestRun_MissingImage(t *testing.T) {
	dir := t.TempDir()
	o := newTestOrchestrator(t, dir)
	defer o.Close()

	record, err := o.Run(context.Background(), Job{
		ImagePath: filepath.Join(dir, "nope.png"),
		Texture:   &texture.Params{Material: texture.Tile, Seed: 1},
	})
	if err == nil {
		t.Fatal("missing image accepted")
	}
	if record.Stage != StageFailed || record.Error == "" {
		t.Errorf("failure not recorded: %+v", record)
	}
}

// A featureless photo has no corners; the run still completes by warping
// onto the mask's bounding box and says so in the record.
func TestRun_CornerlessFallback(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "flat.png")
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	if err := imagingx.SavePNG(imagePath, img); err != nil {
		t.Fatalf("saving image: %v", err)
	}

	o := newTestOrchestrator(t, dir)
	defer o.Close()

	record, err := o.Run(context.Background(), Job{
		ImagePath: imagePath,
		Texture:   &texture.Params{Material: texture.Tile, Seed: 1},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if record.Corners != nil {
		t.Error("featureless image reported corners")
	}
	if len(record.Warnings) == 0 {
		t.Error("fallback path left no warnings")
	}
	if record.Stage != StageDone {
		t.Errorf("stage: got %s, want done", record.Stage)
	}
}

func TestRun_SemanticFallsBackWithoutModel(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "room.png")
	writeRoomPNG(t, imagePath, 400, 300, 50, 40, 350, 260)

	o := newTestOrchestrator(t, dir)
	defer o.Close()

	record, err := o.Run(context.Background(), Job{
		ImagePath: imagePath,
		Texture:   &texture.Params{Material: texture.Marble, Seed: 2},
		Method:    segment.MethodSemantic,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if record.Requested != segment.MethodSemantic {
		t.Errorf("requested: got %s, want semantic", record.Requested)
	}
	if record.Method != segment.MethodGeometric {
		t.Errorf("method: got %s, want geometric fallback", record.Method)
	}
	if len(record.Warnings) == 0 {
		t.Error("fallback left no warning in the record")
	}
}

func TestRunBatch_OrderAndIsolation(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "room.png")
	writeRoomPNG(t, good, 400, 300, 50, 40, 350, 260)

	o := New(Config{OutputDir: dir, Workers: 2, Logger: zerolog.Nop()})
	defer o.Close()

	jobs := []Job{
		{ImagePath: good, Texture: &texture.Params{Material: texture.Wood, Seed: 1}},
		{ImagePath: filepath.Join(dir, "missing.png"), Texture: &texture.Params{Material: texture.Wood, Seed: 1}},
		{ImagePath: good, Texture: &texture.Params{Material: texture.Tile, Seed: 2}},
	}

	results := o.RunBatch(context.Background(), jobs)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, res := range results {
		if res.Index != i {
			t.Errorf("result %d carries index %d", i, res.Index)
		}
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("good jobs failed: %v, %v", results[0].Err, results[2].Err)
	}
	if results[1].Err == nil {
		t.Error("bad job succeeded")
	}
}

func TestRunBatch_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(Config{OutputDir: dir, Logger: zerolog.Nop()})
	defer o.Close()

	results := o.RunBatch(ctx, []Job{
		{ImagePath: filepath.Join(dir, "a.png")},
		{ImagePath: filepath.Join(dir, "b.png")},
	})
	for i, res := range results {
		if res.Err == nil {
			t.Errorf("result %d: cancelled batch reported success", i)
		}
	}
}
