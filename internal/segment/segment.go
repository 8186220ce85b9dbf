package segment

import (
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog"

	"github.com/renderease/surface-tools/internal/geometry"
)

// ErrNoImage indicates a nil or zero-area input image.
var ErrNoImage = errors.New("no image to segment")

// Method names a segmentation strategy.
type Method string

const (
	// MethodGeometric infers the surface from edge and line structure
	// alone. Always available.
	MethodGeometric Method = "geometric"
	// MethodSemantic uses a semantic segmentation model to classify
	// surface pixels.
	MethodSemantic Method = "semantic"
	// MethodPromptable uses a promptable segmentation model driven by a
	// point prompt on the target surface.
	MethodPromptable Method = "promptable"
)

// Surface names the kind of surface being sought. It steers both the
// model-mask band heuristics and the prompt placement.
type Surface string

const (
	SurfaceWall    Surface = "wall"
	SurfaceFloor   Surface = "floor"
	SurfaceCeiling Surface = "ceiling"
)

// Prediction is the output of an external segmentation model.
type Prediction struct {
	// Mask marks surface pixels with values > 127. Same dimensions as the
	// input image.
	Mask *image.Gray
	// Corners optionally carries a surface quadrilateral when the model
	// provides one; most models only produce a mask.
	Corners *geometry.Quad
	// Confidence is the model's own score in [0, 1].
	Confidence float64
}

// Predictor is an external segmentation model. Implementations must return
// an empty (not nil) mask rather than an error when no surface is present;
// errors are reserved for the model itself failing.
type Predictor interface {
	Predict(img image.Image, surface Surface, prompt *geometry.Point) (*Prediction, error)
	Close() error
}

// Options tunes a segmentation request.
type Options struct {
	// Surface being sought. Defaults to SurfaceWall.
	Surface Surface
	// EdgeLow and EdgeHigh are the hysteresis thresholds for the geometric
	// path. Zero values select 50 and 150.
	EdgeLow, EdgeHigh int
	// Lines tunes the geometric path's line detector. A zero value selects
	// geometry.DefaultLineOptions.
	Lines geometry.LineOptions
	// Prompt overrides the automatic prompt point for MethodPromptable.
	Prompt *geometry.Point
}

// Result is the outcome of a segmentation request.
type Result struct {
	// Mask marks surface pixels with 255, anchored at (0,0) with the input
	// dimensions.
	Mask *image.Gray
	// Corners holds the surface quadrilateral when one was found; nil when
	// a coarser fallback produced the mask.
	Corners *geometry.Quad
	// Confidence in [0, 1].
	Confidence float64
	// Coverage is the mask's foreground fraction.
	Coverage float64
	// Requested is the method the caller asked for; Method is the one that
	// actually produced the mask. They differ when a model was unavailable
	// or returned nothing usable.
	Requested Method
	Method    Method
	// Warnings records each fallback taken, in order.
	Warnings []string
}

// Engine dispatches segmentation requests across the available strategies.
// The geometric strategy is built in; model-backed strategies are attached
// with WithSemantic and WithPromptable and silently fall back to geometric
// when missing or failing, recording the substitution in the result.
type Engine struct {
	log        zerolog.Logger
	semantic   Predictor
	promptable Predictor
}

// NewEngine returns an engine with only the geometric strategy.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// WithSemantic attaches a semantic segmentation model.
func (e *Engine) WithSemantic(p Predictor) *Engine {
	e.semantic = p
	return e
}

// WithPromptable attaches a promptable segmentation model.
func (e *Engine) WithPromptable(p Predictor) *Engine {
	e.promptable = p
	return e
}

// Close releases any attached models.
func (e *Engine) Close() error {
	var first error
	for _, p := range []Predictor{e.semantic, e.promptable} {
		if p == nil {
			continue
		}
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Segment produces a surface mask with the requested method, falling back
// to the geometric strategy when a model-backed method cannot deliver.
// Fallbacks are not errors: the result's Method and Warnings record what
// actually happened, and errors are reserved for unusable input.
func (e *Engine) Segment(img image.Image, method Method, opts Options) (*Result, error) {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, ErrNoImage
	}
	if opts.Surface == "" {
		opts.Surface = SurfaceWall
	}

	switch method {
	case MethodGeometric, "":
		res := e.geometric(img, opts)
		res.Requested = MethodGeometric
		return res, nil
	case MethodSemantic:
		return e.modelBacked(img, method, e.semantic, opts), nil
	case MethodPromptable:
		return e.modelBacked(img, method, e.promptable, opts), nil
	default:
		return nil, fmt.Errorf("unknown segmentation method %q", method)
	}
}

// modelBacked runs a predictor and degrades to the geometric strategy on
// any shortfall: missing model, model error, or an empty mask.
func (e *Engine) modelBacked(img image.Image, method Method, p Predictor, opts Options) *Result {
	fallback := func(reason string) *Result {
		e.log.Warn().Str("method", string(method)).Str("reason", reason).
			Msg("model unavailable, using geometric segmentation")
		res := e.geometric(img, opts)
		res.Requested = method
		res.Warnings = append([]string{reason}, res.Warnings...)
		return res
	}

	if p == nil {
		return fallback(string(method) + " model not configured")
	}

	prompt := opts.Prompt
	if method == MethodPromptable && prompt == nil {
		prompt = defaultPrompt(img, opts.Surface)
	}

	pred, err := p.Predict(img, opts.Surface, prompt)
	if err != nil {
		return fallback(string(method) + " model failed: " + err.Error())
	}
	if pred == nil || pred.Mask == nil {
		return fallback(string(method) + " model returned no mask")
	}

	mask := clipToBand(pred.Mask, opts.Surface)
	coverage := geometry.MaskCoverage(mask)
	if coverage == 0 {
		return fallback(string(method) + " model found no surface pixels")
	}

	res := &Result{
		Mask:       mask,
		Corners:    pred.Corners,
		Confidence: pred.Confidence,
		Coverage:   coverage,
		Requested:  method,
		Method:     method,
	}
	if res.Corners == nil {
		if quad, ok := geometry.MaskBounds(mask); ok {
			res.Corners = &quad
		}
	}
	return res
}
