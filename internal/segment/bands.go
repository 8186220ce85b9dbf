package segment

import (
	"image"

	"github.com/renderease/surface-tools/internal/geometry"
)

// surfaceBand returns the vertical pixel range [y0, y1) where a surface of
// the given kind plausibly appears in an interior photograph: walls occupy
// the middle of the frame, floors the lower part, ceilings the upper part.
func surfaceBand(surface Surface, height int) (y0, y1 int) {
	switch surface {
	case SurfaceFloor:
		return int(0.6 * float64(height)), height
	case SurfaceCeiling:
		return 0, int(0.4 * float64(height))
	default: // wall
		return int(0.1 * float64(height)), int(0.9 * float64(height))
	}
}

// fullMask builds an all-foreground mask, the last-resort output when
// neither geometry nor a model yields anything.
func fullMask(width, height int) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, width, height))
	for i := range mask.Pix {
		mask.Pix[i] = 255
	}
	return mask
}

// clipToBand zeroes model-mask rows outside the surface band, discarding
// confident but implausible pixels (a "wall" mask bleeding onto the floor).
// The result is a fresh mask anchored at the origin.
func clipToBand(mask *image.Gray, surface Surface) *image.Gray {
	bounds := mask.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	y0, y1 := surfaceBand(surface, height)

	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := y0; y < y1; y++ {
		for x := 0; x < width; x++ {
			if mask.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y > 127 {
				out.Pix[out.PixOffset(x, y)] = 255
			}
		}
	}
	return out
}

// defaultPrompt places a point prompt at the horizontal center of the
// surface band, the most likely spot for the target surface.
func defaultPrompt(img image.Image, surface Surface) *geometry.Point {
	bounds := img.Bounds()
	y0, y1 := surfaceBand(surface, bounds.Dy())
	return &geometry.Point{X: bounds.Dx() / 2, Y: (y0 + y1) / 2}
}
