package homography

import (
	"image"
	"image/draw"
)

// Warp projects a texture through the homography into a width x height
// output image using inverse mapping: each destination pixel is traced back
// through the inverted transform and bilinearly sampled from the texture.
// Destination pixels whose preimage falls outside the texture stay fully
// transparent.
//
// The homography must map texture coordinates to destination coordinates.
// Returns ErrDegenerateTransform when it cannot be inverted.
func Warp(texture image.Image, m Matrix, width, height int) (*image.RGBA, error) {
	inv, err := m.Invert()
	if err != nil {
		return nil, err
	}

	src := toRGBA(texture)
	srcW := src.Bounds().Dx()
	srcH := src.Bounds().Dy()

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := inv.Apply(Point{X: float64(x), Y: float64(y)})
			if p.X < 0 || p.Y < 0 || p.X > float64(srcW-1) || p.Y > float64(srcH-1) {
				continue
			}
			r, g, b, a := bilinearSample(src, p.X, p.Y)
			off := out.PixOffset(x, y)
			out.Pix[off] = r
			out.Pix[off+1] = g
			out.Pix[off+2] = b
			out.Pix[off+3] = a
		}
	}
	return out, nil
}

// Rectify extracts a perspective-distorted quadrilateral from an image into
// a fronto-parallel width x height view. Corners are given in top-left,
// top-right, bottom-right, bottom-left order.
//
// The inverse use of Warp: instead of projecting a flat texture into the
// scene, it pulls a scene region out flat, which is how surface previews
// and texture swatches are sampled from photographs.
func Rectify(img image.Image, corners [4]Point, width, height int) (*image.RGBA, error) {
	target := []Point{
		{X: 0, Y: 0},
		{X: float64(width - 1), Y: 0},
		{X: float64(width - 1), Y: float64(height - 1)},
		{X: 0, Y: float64(height - 1)},
	}

	// Maps output coordinates directly onto the source quad, so no
	// inversion is needed in the sampling loop.
	back, err := Estimate(target, corners[:], MethodExact)
	if err != nil {
		return nil, err
	}

	src := toRGBA(img)
	srcW := src.Bounds().Dx()
	srcH := src.Bounds().Dy()

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := back.Apply(Point{X: float64(x), Y: float64(y)})
			if p.X < 0 || p.Y < 0 || p.X > float64(srcW-1) || p.Y > float64(srcH-1) {
				continue
			}
			r, g, b, a := bilinearSample(src, p.X, p.Y)
			off := out.PixOffset(x, y)
			out.Pix[off] = r
			out.Pix[off+1] = g
			out.Pix[off+2] = b
			out.Pix[off+3] = a
		}
	}
	return out, nil
}

// bilinearSample interpolates the four pixels surrounding a subpixel
// coordinate. The coordinate must lie within [0, w-1] x [0, h-1].
func bilinearSample(img *image.RGBA, x, y float64) (r, g, b, a uint8) {
	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	y1 := y0 + 1
	maxX := img.Bounds().Dx() - 1
	maxY := img.Bounds().Dy() - 1
	if x1 > maxX {
		x1 = maxX
	}
	if y1 > maxY {
		y1 = maxY
	}
	fx := x - float64(x0)
	fy := y - float64(y0)

	o00 := img.PixOffset(x0+img.Bounds().Min.X, y0+img.Bounds().Min.Y)
	o10 := img.PixOffset(x1+img.Bounds().Min.X, y0+img.Bounds().Min.Y)
	o01 := img.PixOffset(x0+img.Bounds().Min.X, y1+img.Bounds().Min.Y)
	o11 := img.PixOffset(x1+img.Bounds().Min.X, y1+img.Bounds().Min.Y)

	for c := 0; c < 4; c++ {
		top := lerp(float64(img.Pix[o00+c]), float64(img.Pix[o10+c]), fx)
		bot := lerp(float64(img.Pix[o01+c]), float64(img.Pix[o11+c]), fx)
		v := uint8(lerp(top, bot, fy) + 0.5)
		switch c {
		case 0:
			r = v
		case 1:
			g = v
		case 2:
			b = v
		case 3:
			a = v
		}
	}
	return r, g, b, a
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// toRGBA converts any image to RGBA, reusing the buffer when it already is
// one anchored at the origin.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == image.Pt(0, 0) {
		return rgba
	}
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
	return out
}
