package segment

import (
	"image"

	"github.com/renderease/surface-tools/internal/geometry"
	"github.com/renderease/surface-tools/internal/imaging"
)

// Confidence levels reported by the geometric strategy, ordered by how
// much structure actually supported the mask.
const (
	confidenceQuad     = 0.9
	confidenceContour  = 0.5
	confidenceFallback = 0.1
)

// geometric infers a surface mask from edge and line structure.
//
// Preferred path: Canny edges, Hough lines, four-corner inference, filled
// quadrilateral. When no quadrilateral exists the edges are dilated and the
// largest connected region is filled instead. When even that produces
// nothing a full-image mask is returned with minimal confidence, so
// downstream compositing still has something to work with and the result's
// warnings say why.
func (e *Engine) geometric(img image.Image, opts Options) *Result {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	low, high := opts.EdgeLow, opts.EdgeHigh
	if low == 0 && high == 0 {
		low, high = 50, 150
	}
	lineOpts := opts.Lines
	if lineOpts == (geometry.LineOptions{}) {
		lineOpts = geometry.DefaultLineOptions()
	}

	res := &Result{Method: MethodGeometric}

	edges, err := imaging.DetectEdges(img, low, high)
	if err != nil {
		res.Warnings = append(res.Warnings, "edge detection failed: "+err.Error())
		res.Mask = fullMask(width, height)
		res.Confidence = confidenceFallback
		res.Coverage = 1
		return res
	}

	lines := geometry.DetectLines(edges, lineOpts)
	quad, err := geometry.FindQuadrilateral(lines)
	if err == nil {
		res.Mask = geometry.FillQuad(width, height, quad)
		res.Corners = &quad
		res.Confidence = confidenceQuad
		res.Coverage = geometry.MaskCoverage(res.Mask)
		if res.Coverage > 0 {
			e.log.Debug().Int("lines", len(lines)).Float64("coverage", res.Coverage).
				Msg("surface quadrilateral found")
			return res
		}
		// A quad that rasterizes to nothing (all corners off-frame on one
		// side) is no better than no quad.
		res.Corners = nil
	}

	res.Warnings = append(res.Warnings, "no surface quadrilateral, using contour region")
	dilated := geometry.DilateEdges(edges, 2)
	if mask, ok := geometry.LargestRegionMask(dilated); ok {
		if cov := geometry.MaskCoverage(mask); cov > 0 {
			res.Mask = mask
			res.Confidence = confidenceContour
			res.Coverage = cov
			e.log.Debug().Float64("coverage", cov).Msg("surface from largest edge region")
			return res
		}
	}

	res.Warnings = append(res.Warnings, "no usable contour region, using full-image mask")
	res.Mask = fullMask(width, height)
	res.Confidence = confidenceFallback
	res.Coverage = 1
	return res
}
