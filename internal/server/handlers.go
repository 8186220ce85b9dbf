package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"

	"github.com/renderease/surface-tools/internal/geometry"
	"github.com/renderease/surface-tools/internal/imaging"
	"github.com/renderease/surface-tools/internal/pipeline"
	"github.com/renderease/surface-tools/internal/segment"
	"github.com/renderease/surface-tools/internal/texture"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "surface_segment").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Surface Operations
	case "surface_segment":
		return s.handleSurfaceSegment(args)
	case "surface_apply_texture":
		return s.handleSurfaceApplyTexture(args)
	case "pipeline_run":
		return s.handlePipelineRun(args)

	// Texture Operations
	case "texture_generate":
		return s.handleTextureGenerate(args)

	// Analysis Operations
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)
	case "image_detect_lines":
		return s.handleImageDetectLines(args)
	case "image_dominant_colors":
		return s.handleImageDominantColors(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// encodePNGBase64 renders an image to base64-encoded PNG for inline
// transport.
func encodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// === Surface Operation Handlers ===

type surfaceSegmentArgs struct {
	Path    string `json:"path"`
	Method  string `json:"method"`
	Surface string `json:"surface"`
	PromptX *int   `json:"prompt_x"`
	PromptY *int   `json:"prompt_y"`
}

func (s *Server) handleSurfaceSegment(args json.RawMessage) (interface{}, error) {
	var a surfaceSegmentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	opts := segment.Options{Surface: segment.Surface(a.Surface)}
	if a.PromptX != nil && a.PromptY != nil {
		opts.Prompt = &geometry.Point{X: *a.PromptX, Y: *a.PromptY}
	}

	res, err := s.orch.Engine().Segment(img, segment.Method(a.Method), opts)
	if err != nil {
		return nil, err
	}

	maskB64, err := encodePNGBase64(res.Mask)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"method":           res.Method,
		"requested_method": res.Requested,
		"confidence":       res.Confidence,
		"coverage":         res.Coverage,
		"corners":          res.Corners,
		"warnings":         res.Warnings,
		"mask_png_base64":  maskB64,
	}, nil
}

type applyTextureArgs struct {
	Path        string `json:"path"`
	TexturePath string `json:"texture_path"`
	Material    string `json:"material"`
	BaseColor   string `json:"base_color"`
	Seed        int64  `json:"seed"`
	Method      string `json:"method"`
	Surface     string `json:"surface"`
}

// toJob converts tool arguments into a pipeline job.
func (a applyTextureArgs) toJob() pipeline.Job {
	job := pipeline.Job{
		ImagePath:   a.Path,
		TexturePath: a.TexturePath,
		Method:      segment.Method(a.Method),
		Surface:     segment.Surface(a.Surface),
	}
	if a.TexturePath == "" {
		job.Texture = &texture.Params{
			Material:  texture.Material(a.Material),
			BaseColor: a.BaseColor,
			Seed:      a.Seed,
		}
	}
	return job
}

func (s *Server) handleSurfaceApplyTexture(args json.RawMessage) (interface{}, error) {
	var a applyTextureArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	record, err := s.orch.Run(context.Background(), a.toJob())
	if err != nil {
		return nil, err
	}
	return record, nil
}

type pipelineRunArgs struct {
	Jobs []applyTextureArgs `json:"jobs"`
}

func (s *Server) handlePipelineRun(args json.RawMessage) (interface{}, error) {
	var a pipelineRunArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Jobs) == 0 {
		return nil, fmt.Errorf("no jobs given")
	}

	jobs := make([]pipeline.Job, len(a.Jobs))
	for i, j := range a.Jobs {
		jobs[i] = j.toJob()
	}

	results := s.orch.RunBatch(context.Background(), jobs)
	out := make([]map[string]interface{}, len(results))
	succeeded := 0
	for i, res := range results {
		entry := map[string]interface{}{"index": res.Index}
		if res.Err != nil {
			entry["error"] = res.Err.Error()
		} else {
			succeeded++
		}
		if res.Record != nil {
			entry["record"] = res.Record
		}
		out[i] = entry
	}
	return map[string]interface{}{
		"total":     len(results),
		"succeeded": succeeded,
		"results":   out,
	}, nil
}

// === Texture Operation Handlers ===

type textureGenerateArgs struct {
	Material  string `json:"material"`
	BaseColor string `json:"base_color"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Seed      int64  `json:"seed"`
	SavePath  string `json:"save_path"`
}

func (s *Server) handleTextureGenerate(args json.RawMessage) (interface{}, error) {
	var a textureGenerateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Width == 0 {
		a.Width = 512
	}
	if a.Height == 0 {
		a.Height = 512
	}

	img, err := texture.Generate(texture.Params{
		Material:  texture.Material(a.Material),
		BaseColor: a.BaseColor,
		Width:     a.Width,
		Height:    a.Height,
		Seed:      a.Seed,
	})
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{
		"material": a.Material,
		"width":    a.Width,
		"height":   a.Height,
	}
	if a.SavePath != "" {
		if err := imaging.SavePNG(a.SavePath, img); err != nil {
			return nil, err
		}
		result["saved_to"] = a.SavePath
	}
	b64, err := encodePNGBase64(img)
	if err != nil {
		return nil, err
	}
	result["png_base64"] = b64
	return result, nil
}

// === Analysis Operation Handlers ===

type edgeDetectArgs struct {
	Path          string `json:"path"`
	LowThreshold  int    `json:"low_threshold"`
	HighThreshold int    `json:"high_threshold"`
}

func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a edgeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.LowThreshold == 0 && a.HighThreshold == 0 {
		a.LowThreshold, a.HighThreshold = 50, 150
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	edges, err := imaging.DetectEdges(img, a.LowThreshold, a.HighThreshold)
	if err != nil {
		return nil, err
	}

	b64, err := encodePNGBase64(edges)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"width":            edges.Bounds().Dx(),
		"height":           edges.Bounds().Dy(),
		"low_threshold":    a.LowThreshold,
		"high_threshold":   a.HighThreshold,
		"edges_png_base64": b64,
	}, nil
}

type detectLinesArgs struct {
	Path          string `json:"path"`
	VoteThreshold int    `json:"vote_threshold"`
	MinLength     int    `json:"min_length"`
	MaxGap        int    `json:"max_gap"`
}

func (s *Server) handleImageDetectLines(args json.RawMessage) (interface{}, error) {
	var a detectLinesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	edges, err := imaging.DetectEdges(img, 50, 150)
	if err != nil {
		return nil, err
	}

	opts := geometry.DefaultLineOptions()
	if a.VoteThreshold > 0 {
		opts.VoteThreshold = a.VoteThreshold
	}
	if a.MinLength > 0 {
		opts.MinLength = a.MinLength
	}
	if a.MaxGap > 0 {
		opts.MaxGap = a.MaxGap
	}

	lines := geometry.DetectLines(edges, opts)
	type lineResult struct {
		geometry.Line
		LengthPx  float64 `json:"length"`
		Direction float64 `json:"direction_degrees"`
	}
	out := make([]lineResult, len(lines))
	for i, l := range lines {
		out[i] = lineResult{Line: l, LengthPx: l.Length(), Direction: l.DirectionDegrees()}
	}
	return map[string]interface{}{
		"count": len(out),
		"lines": out,
	}, nil
}

type dominantColorsArgs struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
	X1    *int   `json:"x1"`
	Y1    *int   `json:"y1"`
	X2    *int   `json:"x2"`
	Y2    *int   `json:"y2"`
}

func (s *Server) handleImageDominantColors(args json.RawMessage) (interface{}, error) {
	var a dominantColorsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 5
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var region *imaging.Region
	if a.X1 != nil && a.Y1 != nil && a.X2 != nil && a.Y2 != nil {
		region = &imaging.Region{X1: *a.X1, Y1: *a.Y1, X2: *a.X2, Y2: *a.Y2}
	}
	return imaging.DominantColors(img, a.Count, region)
}
