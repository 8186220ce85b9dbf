package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/renderease/surface-tools/internal/compose"
	"github.com/renderease/surface-tools/internal/geometry"
	"github.com/renderease/surface-tools/internal/homography"
	imagingx "github.com/renderease/surface-tools/internal/imaging"
	"github.com/renderease/surface-tools/internal/segment"
	"github.com/renderease/surface-tools/internal/segment/onnx"
	"github.com/renderease/surface-tools/internal/texture"
)

// ErrNoSurfaceFound indicates that segmentation produced an empty mask, so
// there is nothing to retexture.
var ErrNoSurfaceFound = errors.New("no surface found")

// Stage names one phase of a run. The terminal stages are StageDone and
// StageFailed.
type Stage string

const (
	StageLoading     Stage = "loading_inputs"
	StageSegmenting  Stage = "segmenting"
	StageHomography  Stage = "estimating_homography"
	StageWarping     Stage = "warping"
	StageCompositing Stage = "compositing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Config configures an Orchestrator. The zero value is usable: results go
// to the working directory, textures composite fully opaque with a hard
// mask edge, and only the geometric strategy is available.
type Config struct {
	// OutputDir receives composited images and run records.
	OutputDir string
	// SaveIntermediates additionally writes the surface mask and warped
	// texture next to each output.
	SaveIntermediates bool

	// Alpha is the texture opacity in (0, 1]. 0 selects 1.
	Alpha float64
	// FeatherRadius softens the mask edge during compositing.
	// 0 selects compose.DefaultFeatherRadius.
	FeatherRadius float64
	// Brightness pre-adjusts the texture, in [-1, 1].
	Brightness float64

	// EdgeLow and EdgeHigh tune the geometric strategy's edge detector.
	EdgeLow, EdgeHigh int
	// Lines tunes its line detector.
	Lines geometry.LineOptions

	// Workers bounds batch concurrency. 0 selects 4.
	Workers int

	// Model paths for the optional ONNX-backed strategies. Empty paths
	// leave the strategy unattached.
	SemanticModelPath      string
	PromptableEncoderPath  string
	PromptableDecoderPath  string
	OnnxLibraryPath        string

	// Logger receives structured stage logs.
	Logger zerolog.Logger
}

// Job describes one compositing request.
type Job struct {
	// ImagePath is the photograph to retexture.
	ImagePath string
	// TexturePath is an image file to composite. Leave empty to generate
	// one from Texture instead.
	TexturePath string
	// Texture generates a procedural swatch when TexturePath is empty.
	Texture *texture.Params
	// Method selects the segmentation strategy; empty means geometric.
	Method segment.Method
	// Surface being retextured; empty means wall.
	Surface segment.Surface
	// Prompt optionally pins the promptable strategy's point prompt.
	Prompt *geometry.Point
}

// StageTiming records how long one stage took.
type StageTiming struct {
	Stage    Stage `json:"stage"`
	Millis   int64 `json:"millis"`
}

// RunRecord is the persistent account of one run, written as a JSON
// sidecar next to the output image.
type RunRecord struct {
	ID          string          `json:"id"`
	ImagePath   string          `json:"image_path"`
	TexturePath string          `json:"texture_path,omitempty"`
	Material    string          `json:"material,omitempty"`

	Requested  segment.Method  `json:"requested_method"`
	Method     segment.Method  `json:"method"`
	Surface    segment.Surface `json:"surface"`
	Confidence float64         `json:"confidence"`
	Coverage   float64         `json:"coverage"`
	Corners    *geometry.Quad  `json:"corners,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`

	Stage      Stage         `json:"stage"`
	Error      string        `json:"error,omitempty"`
	OutputPath string        `json:"output_path,omitempty"`
	MaskPath   string        `json:"mask_path,omitempty"`
	WarpedPath string        `json:"warped_path,omitempty"`
	Timings    []StageTiming `json:"timings"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Orchestrator runs the full surface retexturing pipeline: load, segment,
// estimate homography, warp, composite, persist.
type Orchestrator struct {
	cfg    Config
	log    zerolog.Logger
	cache  *imagingx.ImageCache
	engine *segment.Engine
}

// New builds an orchestrator. Configured ONNX models that fail to open are
// logged and skipped; the affected strategies then fall back to geometric
// at run time.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		log:    cfg.Logger,
		cache:  imagingx.NewImageCache(),
		engine: segment.NewEngine(cfg.Logger),
	}

	if cfg.SemanticModelPath != "" {
		model, err := onnx.NewSemanticModel(cfg.SemanticModelPath, cfg.OnnxLibraryPath)
		if err != nil {
			o.log.Warn().Err(err).Str("model", cfg.SemanticModelPath).
				Msg("semantic model unavailable")
		} else {
			o.engine.WithSemantic(model)
		}
	}
	if cfg.PromptableEncoderPath != "" && cfg.PromptableDecoderPath != "" {
		model, err := onnx.NewPromptableModel(cfg.PromptableEncoderPath, cfg.PromptableDecoderPath, cfg.OnnxLibraryPath)
		if err != nil {
			o.log.Warn().Err(err).Str("encoder", cfg.PromptableEncoderPath).
				Msg("promptable model unavailable")
		} else {
			o.engine.WithPromptable(model)
		}
	}
	return o
}

// Close releases attached models.
func (o *Orchestrator) Close() error {
	return o.engine.Close()
}

// Engine exposes the segmentation engine for callers that need a mask
// without running the full pipeline.
func (o *Orchestrator) Engine() *segment.Engine {
	return o.engine
}

// Run executes one job end to end. The returned record is non-nil even on
// failure and carries the failure stage, the error text, and the timings of
// every stage that ran.
func (o *Orchestrator) Run(ctx context.Context, job Job) (*RunRecord, error) {
	record := &RunRecord{
		ID:        uuid.NewString(),
		ImagePath: job.ImagePath,
		StartedAt: time.Now(),
	}
	log := o.log.With().Str("run_id", record.ID).Str("image", job.ImagePath).Logger()

	err := o.execute(ctx, job, record, log)
	record.FinishedAt = time.Now()
	if err != nil {
		record.Stage = StageFailed
		record.Error = err.Error()
		log.Error().Err(err).Msg("run failed")
	} else {
		record.Stage = StageDone
		log.Info().Str("output", record.OutputPath).
			Float64("coverage", record.Coverage).Msg("run complete")
	}

	if werr := o.writeRecord(record); werr != nil {
		log.Warn().Err(werr).Msg("could not persist run record")
	}
	return record, err
}

func (o *Orchestrator) execute(ctx context.Context, job Job, record *RunRecord, log zerolog.Logger) error {
	timed := func(stage Stage, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := fn()
		elapsed := time.Since(start)
		record.Timings = append(record.Timings, StageTiming{Stage: stage, Millis: elapsed.Milliseconds()})
		log.Debug().Str("stage", string(stage)).Dur("elapsed", elapsed).Err(err).Msg("stage finished")
		return err
	}

	var base image.Image
	var tex image.Image
	if err := timed(StageLoading, func() error {
		var err error
		base, err = o.cache.Load(job.ImagePath)
		if err != nil {
			return fmt.Errorf("loading image: %w", err)
		}
		tex, err = o.loadTexture(job, record)
		return err
	}); err != nil {
		return err
	}

	var seg *segment.Result
	if err := timed(StageSegmenting, func() error {
		var err error
		seg, err = o.engine.Segment(base, job.Method, segment.Options{
			Surface: job.Surface,
			EdgeLow: o.cfg.EdgeLow,
			EdgeHigh: o.cfg.EdgeHigh,
			Lines:   o.cfg.Lines,
			Prompt:  job.Prompt,
		})
		if err != nil {
			return err
		}
		if seg.Coverage == 0 {
			return ErrNoSurfaceFound
		}
		record.Requested = seg.Requested
		record.Method = seg.Method
		record.Surface = job.Surface
		if record.Surface == "" {
			record.Surface = segment.SurfaceWall
		}
		record.Confidence = seg.Confidence
		record.Coverage = seg.Coverage
		record.Corners = seg.Corners
		record.Warnings = seg.Warnings
		return nil
	}); err != nil {
		return err
	}

	// The warp target: the detected corners, or the mask's bounding
	// quadrilateral when segmentation fell back to a corner-less mask.
	quad := seg.Corners
	if quad == nil {
		bounds, ok := geometry.MaskBounds(seg.Mask)
		if !ok {
			return ErrNoSurfaceFound
		}
		quad = &bounds
		record.Warnings = append(record.Warnings, "no corners, warping onto mask bounding box")
	}

	var h homography.Matrix
	if err := timed(StageHomography, func() error {
		texBounds := tex.Bounds()
		src := []homography.Point{
			{X: 0, Y: 0},
			{X: float64(texBounds.Dx() - 1), Y: 0},
			{X: float64(texBounds.Dx() - 1), Y: float64(texBounds.Dy() - 1)},
			{X: 0, Y: float64(texBounds.Dy() - 1)},
		}
		dst := make([]homography.Point, 4)
		for i, c := range quad {
			dst[i] = homography.Point{X: float64(c.X), Y: float64(c.Y)}
		}
		var err error
		h, err = homography.Estimate(src, dst, homography.MethodExact)
		return err
	}); err != nil {
		return fmt.Errorf("estimating homography: %w", err)
	}

	var overlay image.Image
	if err := timed(StageWarping, func() error {
		warped, err := homography.Warp(tex, h, base.Bounds().Dx(), base.Bounds().Dy())
		if err != nil {
			return err
		}
		overlay = warped
		return nil
	}); err != nil {
		return fmt.Errorf("warping texture: %w", err)
	}

	var out *image.RGBA
	if err := timed(StageCompositing, func() error {
		alpha := o.cfg.Alpha
		if alpha == 0 {
			alpha = 1
		}
		feather := o.cfg.FeatherRadius
		if feather == 0 {
			feather = compose.DefaultFeatherRadius
		}
		var err error
		out, err = compose.Blend(base, overlay, seg.Mask, compose.Options{
			Alpha:         alpha,
			FeatherRadius: feather,
			Brightness:    o.cfg.Brightness,
		})
		return err
	}); err != nil {
		return err
	}

	record.OutputPath = filepath.Join(o.cfg.OutputDir, record.ID+".png")
	if err := imagingx.SavePNG(record.OutputPath, out); err != nil {
		return fmt.Errorf("saving output: %w", err)
	}
	if o.cfg.SaveIntermediates {
		record.MaskPath = filepath.Join(o.cfg.OutputDir, record.ID+"_mask.png")
		if err := imagingx.SavePNG(record.MaskPath, seg.Mask); err != nil {
			return fmt.Errorf("saving mask: %w", err)
		}
		record.WarpedPath = filepath.Join(o.cfg.OutputDir, record.ID+"_warped.png")
		if err := imagingx.SavePNG(record.WarpedPath, overlay); err != nil {
			return fmt.Errorf("saving warped texture: %w", err)
		}
	}
	return nil
}

// loadTexture resolves the job's texture: a file when TexturePath is set,
// otherwise a generated swatch sized to a sensible default.
func (o *Orchestrator) loadTexture(job Job, record *RunRecord) (image.Image, error) {
	if job.TexturePath != "" {
		record.TexturePath = job.TexturePath
		img, err := imaging.Open(job.TexturePath)
		if err != nil {
			return nil, fmt.Errorf("loading texture: %w", err)
		}
		return img, nil
	}
	if job.Texture == nil {
		return nil, fmt.Errorf("job needs a texture path or texture params")
	}

	params := *job.Texture
	if params.Width == 0 {
		params.Width = 512
	}
	if params.Height == 0 {
		params.Height = 512
	}
	record.Material = string(params.Material)
	img, err := texture.Generate(params)
	if err != nil {
		return nil, fmt.Errorf("generating texture: %w", err)
	}
	return img, nil
}

// writeRecord persists the run record as a JSON sidecar.
func (o *Orchestrator) writeRecord(record *RunRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(o.cfg.OutputDir, record.ID+".json")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
