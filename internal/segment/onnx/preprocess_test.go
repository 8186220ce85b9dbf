package onnx

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestToCHW_LayoutAndNormalization(t *testing.T) {
	// Solid mid-gray so every pixel of a channel carries the same value.
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}

	size := 8
	data := toCHW(img, size)
	if len(data) != 3*size*size {
		t.Fatalf("tensor length: got %d, want %d", len(data), 3*size*size)
	}

	v := float32(128) / 255
	for c := 0; c < 3; c++ {
		want := (v - chwMean[c]) / chwStd[c]
		got := data[c*size*size]
		if math.Abs(float64(got-want)) > 0.02 {
			t.Errorf("channel %d: got %f, want %f", c, got, want)
		}
	}
}

func TestMaskFromScores_ThresholdAndScale(t *testing.T) {
	// 4x4 score plane, positive only in the top-left 2x2 block.
	scores := []float32{
		1, 1, -1, -1,
		1, 1, -1, -1,
		-1, -1, -1, -1,
		-1, -1, -1, -1,
	}

	mask := maskFromScores(scores, 4, 4, 16, 16)
	if mask.Bounds().Dx() != 16 || mask.Bounds().Dy() != 16 {
		t.Fatalf("dimensions: got %dx%d, want 16x16", mask.Bounds().Dx(), mask.Bounds().Dy())
	}
	if mask.GrayAt(2, 2).Y != 255 {
		t.Error("positive region not set after upscale")
	}
	if mask.GrayAt(12, 12).Y != 0 {
		t.Error("negative region set after upscale")
	}
	for _, v := range mask.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("non-binary mask value %d", v)
		}
	}
}

func TestMaskFromScores_NoScaling(t *testing.T) {
	scores := []float32{1, -1, -1, 1}
	mask := maskFromScores(scores, 2, 2, 2, 2)
	if mask.GrayAt(0, 0).Y != 255 || mask.GrayAt(1, 1).Y != 255 {
		t.Error("positive pixels missing")
	}
	if mask.GrayAt(1, 0).Y != 0 || mask.GrayAt(0, 1).Y != 0 {
		t.Error("negative pixels set")
	}
}

func TestNewSemanticModel_MissingFile(t *testing.T) {
	if _, err := NewSemanticModel("/nonexistent/model.onnx", ""); err == nil {
		t.Error("missing model file accepted")
	}
}

func TestNewPromptableModel_MissingFile(t *testing.T) {
	if _, err := NewPromptableModel("/nonexistent/enc.onnx", "/nonexistent/dec.onnx", ""); err == nil {
		t.Error("missing model files accepted")
	}
}
