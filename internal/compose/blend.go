package compose

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// ErrInvalidParameter indicates options or inputs outside their valid
// range, testable with errors.Is.
var ErrInvalidParameter = errors.New("invalid parameter")

// DefaultFeatherRadius is the mask softening applied when a caller wants
// seam-free compositing but has no radius preference.
const DefaultFeatherRadius = 5.0

// Options controls texture compositing.
type Options struct {
	// Alpha is the texture opacity in [0, 1]. 0 returns the base unchanged,
	// 1 replaces masked pixels entirely.
	Alpha float64
	// FeatherRadius softens the mask boundary with a Gaussian blur of this
	// radius in pixels. 0 keeps a hard edge.
	FeatherRadius float64
	// Brightness pre-adjusts the texture before blending, in [-1, 1]
	// relative change. 0 leaves the texture as-is.
	Brightness float64
}

// Blend composites a texture over a base image wherever the mask is set.
//
// The texture is resized to the base dimensions when they differ. Each
// pixel's effective weight is the product of the mask weight (binary, or
// continuous after feathering), Alpha, and the texture's own alpha, so
// transparent texture regions never overwrite the base even inside the
// mask. With Alpha 0 the result is a bit-exact copy of the base; with
// Alpha 1, a fully set mask, and an opaque texture, masked pixels are
// bit-exact texture.
func Blend(base, texture image.Image, mask *image.Gray, opts Options) (*image.RGBA, error) {
	if base == nil || texture == nil || mask == nil {
		return nil, fmt.Errorf("%w: base, texture and mask are required", ErrInvalidParameter)
	}
	if opts.Alpha < 0 || opts.Alpha > 1 {
		return nil, fmt.Errorf("%w: alpha %v outside [0, 1]", ErrInvalidParameter, opts.Alpha)
	}
	if opts.FeatherRadius < 0 {
		return nil, fmt.Errorf("%w: feather radius %v is negative", ErrInvalidParameter, opts.FeatherRadius)
	}
	if opts.Brightness < -1 || opts.Brightness > 1 {
		return nil, fmt.Errorf("%w: brightness %v outside [-1, 1]", ErrInvalidParameter, opts.Brightness)
	}

	baseRGBA := cloneRGBA(base)
	width := baseRGBA.Bounds().Dx()
	height := baseRGBA.Bounds().Dy()

	if mask.Bounds().Dx() != width || mask.Bounds().Dy() != height {
		return nil, fmt.Errorf("%w: mask %dx%d does not match base %dx%d",
			ErrInvalidParameter, mask.Bounds().Dx(), mask.Bounds().Dy(), width, height)
	}

	if opts.Alpha == 0 {
		return baseRGBA, nil
	}

	tex := texture
	if tex.Bounds().Dx() != width || tex.Bounds().Dy() != height {
		tex = imaging.Resize(tex, width, height, imaging.Lanczos)
	}
	if opts.Brightness != 0 {
		tex = adjust.Brightness(tex, opts.Brightness)
	}
	texRGBA := cloneRGBA(tex)

	weights := maskWeights(mask, opts.FeatherRadius)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			w := weights[y*width+x]
			if w == 0 {
				continue
			}
			off := baseRGBA.PixOffset(x, y)
			texA := float64(texRGBA.Pix[off+3]) / 255
			eff := w * opts.Alpha * texA
			if eff == 0 {
				continue
			}
			for c := 0; c < 4; c++ {
				b := float64(baseRGBA.Pix[off+c])
				t := float64(texRGBA.Pix[off+c])
				baseRGBA.Pix[off+c] = uint8(b + (t-b)*eff + 0.5)
			}
		}
	}
	return baseRGBA, nil
}

// maskWeights converts a binary mask into per-pixel blend weights in
// [0, 1], Gaussian-feathered at the boundary when radius > 0.
func maskWeights(mask *image.Gray, radius float64) []float64 {
	bounds := mask.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	weights := make([]float64, width*height)

	if radius == 0 {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if mask.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y > 127 {
					weights[y*width+x] = 1
				}
			}
		}
		return weights
	}

	soft := blur.Gaussian(mask, radius)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := soft.At(x+soft.Bounds().Min.X, y+soft.Bounds().Min.Y).RGBA()
			weights[y*width+x] = float64(r>>8) / 255
		}
	}
	return weights
}

// cloneRGBA copies any image into a fresh RGBA anchored at the origin.
func cloneRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
	return out
}
