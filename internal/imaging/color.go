package imaging

import (
	"fmt"
	"image"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// ColorFrequency represents a color and its occurrence frequency in an image.
type ColorFrequency struct {
	Hex        string   `json:"hex"`        // Hex color "#RRGGBB" (quantized)
	Percentage float64  `json:"percentage"` // Percentage of pixels with this color (0-100)
	RGB        RGBColor `json:"rgb"`        // RGB components (quantized)
}

// DominantColorsResult contains the most frequently occurring colors in an
// image, sorted by frequency in descending order.
type DominantColorsResult struct {
	Colors []ColorFrequency `json:"colors"`
}

// Region represents a rectangular region within an image.
// (X1, Y1) is the inclusive top-left corner, (X2, Y2) the exclusive
// bottom-right corner.
type Region struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// DominantColors extracts the N most common colors from an image or region.
//
// The main consumer is texture base-color matching: sampling the dominant
// color of a detected surface lets a synthesized texture inherit the room's
// existing tone.
//
// RGB components are quantized into 16-unit buckets so near-identical shades
// group together; the reported hex value is the bucket floor. If the image
// has fewer distinct buckets than requested, fewer results are returned.
func DominantColors(img image.Image, count int, region *Region) (*DominantColorsResult, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidParameter)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", ErrInvalidParameter)
	}
	bounds := img.Bounds()
	if region != nil {
		bounds = bounds.Intersect(image.Rect(region.X1, region.Y1, region.X2, region.Y2))
		if bounds.Empty() {
			return nil, fmt.Errorf("%w: region outside image bounds", ErrInvalidParameter)
		}
	}

	colorCounts := make(map[string]int)
	totalPixels := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			r8 := uint8((r >> 8) / 16 * 16)
			g8 := uint8((g >> 8) / 16 * 16)
			b8 := uint8((b >> 8) / 16 * 16)
			key := fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)
			colorCounts[key]++
			totalPixels++
		}
	}

	colors := make([]ColorFrequency, 0, len(colorCounts))
	for hex, cnt := range colorCounts {
		c, err := colorful.Hex(hex)
		if err != nil {
			continue
		}
		r8, g8, b8 := c.RGB255()
		colors = append(colors, ColorFrequency{
			Hex:        hex,
			Percentage: float64(cnt) / float64(totalPixels) * 100,
			RGB:        RGBColor{R: r8, G: g8, B: b8},
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})

	if len(colors) > count {
		colors = colors[:count]
	}

	return &DominantColorsResult{Colors: colors}, nil
}
