package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestDominantColors_TwoTone(t *testing.T) {
	// 3/4 red, 1/4 blue.
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if x < 30 {
				img.Set(x, y, color.RGBA{240, 0, 0, 255})
			} else {
				img.Set(x, y, color.RGBA{0, 0, 240, 255})
			}
		}
	}

	result, err := DominantColors(img, 2, nil)
	if err != nil {
		t.Fatalf("DominantColors failed: %v", err)
	}
	if len(result.Colors) != 2 {
		t.Fatalf("got %d colors, want 2", len(result.Colors))
	}

	if result.Colors[0].Hex != "#F00000" {
		t.Errorf("dominant color: got %s, want #F00000", result.Colors[0].Hex)
	}
	if result.Colors[0].Percentage < 70 || result.Colors[0].Percentage > 80 {
		t.Errorf("dominant percentage: got %.1f, want ~75", result.Colors[0].Percentage)
	}
	if result.Colors[1].Hex != "#0000F0" {
		t.Errorf("secondary color: got %s, want #0000F0", result.Colors[1].Hex)
	}
}

func TestDominantColors_Region(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if y < 10 {
				img.Set(x, y, color.RGBA{16, 16, 16, 255})
			} else {
				img.Set(x, y, color.RGBA{224, 224, 224, 255})
			}
		}
	}

	result, err := DominantColors(img, 1, &Region{X1: 0, Y1: 10, X2: 20, Y2: 20})
	if err != nil {
		t.Fatalf("DominantColors failed: %v", err)
	}
	if len(result.Colors) != 1 || result.Colors[0].Hex != "#E0E0E0" {
		t.Fatalf("region analysis returned %+v, want only #E0E0E0", result.Colors)
	}
}

func TestDominantColors_InvalidInputs(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))

	if _, err := DominantColors(nil, 3, nil); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("nil image: got %v, want ErrInvalidParameter", err)
	}
	if _, err := DominantColors(img, 0, nil); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero count: got %v, want ErrInvalidParameter", err)
	}
	if _, err := DominantColors(img, 3, &Region{X1: 50, Y1: 50, X2: 60, Y2: 60}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("out-of-bounds region: got %v, want ErrInvalidParameter", err)
	}
}
