package geometry

import (
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/effect"
)

// DilateEdges thickens a binary edge map by morphological dilation and
// re-thresholds the result back to a strict 0/255 map. Used by the mask
// fallback to close small gaps in broken contours before region filling.
func DilateEdges(edges *image.Gray, radius float64) *image.Gray {
	bounds := edges.Bounds()
	dilated := effect.Dilate(edges, radius)

	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, _, _, _ := dilated.At(x+dilated.Bounds().Min.X, y+dilated.Bounds().Min.Y).RGBA()
			if r>>8 > 127 {
				out.Pix[out.PixOffset(x, y)] = 255
			}
		}
	}
	return out
}

// LargestRegionMask finds the largest 8-connected foreground component of a
// binary image and returns it filled row by row: for every row touched by
// the component, all pixels between its leftmost and rightmost member are
// set. This converts a (possibly hollow) contour into a solid region mask.
//
// Returns false when the image has no foreground pixels.
func LargestRegionMask(bin *image.Gray) (*image.Gray, bool) {
	bounds := bin.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, false
	}

	labels := make([]int, width*height)
	nextLabel := 1
	bestLabel := 0
	bestSize := 0

	isSet := func(x, y int) bool {
		return bin.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y > 127
	}

	for sy := 0; sy < height; sy++ {
		for sx := 0; sx < width; sx++ {
			if !isSet(sx, sy) || labels[sy*width+sx] != 0 {
				continue
			}

			label := nextLabel
			nextLabel++
			size := 0
			queue := []Point{{X: sx, Y: sy}}
			labels[sy*width+sx] = label

			for len(queue) > 0 {
				p := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				size++

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						nx, ny := p.X+dx, p.Y+dy
						if nx < 0 || nx >= width || ny < 0 || ny >= height {
							continue
						}
						if labels[ny*width+nx] == 0 && isSet(nx, ny) {
							labels[ny*width+nx] = label
							queue = append(queue, Point{X: nx, Y: ny})
						}
					}
				}
			}

			if size > bestSize {
				bestSize = size
				bestLabel = label
			}
		}
	}

	if bestLabel == 0 {
		return nil, false
	}

	// Row-span fill of the winning component.
	minX := make([]int, height)
	maxX := make([]int, height)
	for y := 0; y < height; y++ {
		minX[y] = -1
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if labels[y*width+x] != bestLabel {
				continue
			}
			if minX[y] < 0 || x < minX[y] {
				minX[y] = x
			}
			if x > maxX[y] {
				maxX[y] = x
			}
		}
	}

	mask := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		if minX[y] < 0 {
			continue
		}
		for x := minX[y]; x <= maxX[y]; x++ {
			mask.Pix[mask.PixOffset(x, y)] = 255
		}
	}
	return mask, true
}

// FillQuad rasterizes a quadrilateral into a binary mask of the given
// dimensions using even-odd scanline filling. Corners outside the image are
// clipped, not rejected, so a quad inferred from lines running past the
// frame still yields a usable mask.
func FillQuad(width, height int, q Quad) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return mask
	}

	for y := 0; y < height; y++ {
		sy := float64(y) + 0.5
		xs := make([]float64, 0, 4)
		for i := 0; i < 4; i++ {
			a := q[i]
			b := q[(i+1)%4]
			ay, by := float64(a.Y), float64(b.Y)
			if (ay <= sy && by > sy) || (by <= sy && ay > sy) {
				t := (sy - ay) / (by - ay)
				xs = append(xs, float64(a.X)+t*float64(b.X-a.X))
			}
		}
		sort.Float64s(xs)

		for i := 0; i+1 < len(xs); i += 2 {
			x1 := int(math.Ceil(xs[i] - 0.5))
			x2 := int(math.Floor(xs[i+1] - 0.5))
			if x1 < 0 {
				x1 = 0
			}
			if x2 >= width {
				x2 = width - 1
			}
			for x := x1; x <= x2; x++ {
				mask.Pix[mask.PixOffset(x, y)] = 255
			}
		}
	}
	return mask
}

// MaskBounds returns the axis-aligned bounding box of a mask's foreground
// as a Quad in canonical corner order. Returns false for an empty mask.
func MaskBounds(mask *image.Gray) (Quad, bool) {
	bounds := mask.Bounds()
	minX, minY := math.MaxInt32, math.MaxInt32
	maxX, maxY := -1, -1

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			if mask.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y > 127 {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	if maxX < 0 {
		return Quad{}, false
	}
	return Quad{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}, true
}

// MaskCoverage reports the fraction of mask pixels that are foreground,
// in [0, 1]. A zero-area mask reports 0.
func MaskCoverage(mask *image.Gray) float64 {
	bounds := mask.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}
	set := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if mask.GrayAt(x, y).Y > 127 {
				set++
			}
		}
	}
	return float64(set) / float64(total)
}
