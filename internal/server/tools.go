package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the shared schema fragment for image path arguments.
func pathProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Surface Operations
		{
			Name:        "surface_segment",
			Description: "Detect a wall, floor, or ceiling surface in a photograph. Returns the surface mask as base64 PNG plus corners, coverage, confidence, and the segmentation method actually used.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the photograph"),
					"method": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"geometric", "semantic", "promptable"},
						"description": "Segmentation strategy. Default geometric; model-backed strategies fall back to geometric when unavailable.",
					},
					"surface": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"wall", "floor", "ceiling"},
						"description": "Surface to find. Default wall.",
					},
					"prompt_x": map[string]interface{}{
						"type":        "integer",
						"description": "Optional prompt point X for the promptable strategy",
					},
					"prompt_y": map[string]interface{}{
						"type":        "integer",
						"description": "Optional prompt point Y for the promptable strategy",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "surface_apply_texture",
			Description: "Run the full retexturing pipeline on a photograph: segment the surface, warp the texture into its perspective, and composite. Returns the run record including the output path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the photograph"),
					"texture_path": map[string]interface{}{
						"type":        "string",
						"description": "Texture image to apply. Omit to generate one from material.",
					},
					"material": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"wood", "marble", "tile", "brick", "concrete", "carpet"},
						"description": "Procedural material, used when texture_path is omitted",
					},
					"base_color": map[string]interface{}{
						"type":        "string",
						"description": "Base color for a generated material, as #RRGGBB",
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Seed for a generated material. 0 picks one from the clock.",
					},
					"method": map[string]interface{}{
						"type": "string",
						"enum": []string{"geometric", "semantic", "promptable"},
					},
					"surface": map[string]interface{}{
						"type": "string",
						"enum": []string{"wall", "floor", "ceiling"},
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "pipeline_run",
			Description: "Run the retexturing pipeline over multiple photographs concurrently. Each job is independent; per-job failures are reported without aborting the batch.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"jobs": map[string]interface{}{
						"type":        "array",
						"description": "Jobs to run",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"path":         pathProperty("Absolute path to the photograph"),
								"texture_path": map[string]interface{}{"type": "string"},
								"material":     map[string]interface{}{"type": "string"},
								"base_color":   map[string]interface{}{"type": "string"},
								"seed":         map[string]interface{}{"type": "integer"},
								"method":       map[string]interface{}{"type": "string"},
								"surface":      map[string]interface{}{"type": "string"},
							},
							"required": []string{"path"},
						},
					},
				},
				"required": []string{"jobs"},
			},
		},

		// Texture Operations
		{
			Name:        "texture_generate",
			Description: "Generate a procedural material swatch (wood, marble, tile, brick, concrete, carpet) and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"material": map[string]interface{}{
						"type": "string",
						"enum": []string{"wood", "marble", "tile", "brick", "concrete", "carpet"},
					},
					"base_color": map[string]interface{}{
						"type":        "string",
						"description": "Base color as #RRGGBB. Omit for the material default.",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Width in pixels. Default 512.",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Height in pixels. Default 512.",
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Seed for reproducible output. 0 picks one from the clock.",
					},
					"save_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to also save the swatch as PNG",
					},
				},
				"required": []string{"material"},
			},
		},

		// Analysis Operations
		{
			Name:        "image_edge_detect",
			Description: "Run Canny edge detection on an image and return the binary edge map as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"low_threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Weak edge threshold. Default 50.",
					},
					"high_threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Strong edge threshold. Default 150.",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_detect_lines",
			Description: "Detect line segments in an image with a Hough transform. Returns each line's endpoints, polar parameters, and orientation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"vote_threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum accumulator votes. Default 100.",
					},
					"min_length": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum segment length in pixels. Default 100.",
					},
					"max_gap": map[string]interface{}{
						"type":        "integer",
						"description": "Largest bridged gap in pixels. Default 10.",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dominant_colors",
			Description: "Extract the dominant colors of an image or region, with hex values and coverage percentages.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to return. Default 5.",
					},
					"x1": map[string]interface{}{"type": "integer", "description": "Optional region left edge"},
					"y1": map[string]interface{}{"type": "integer", "description": "Optional region top edge"},
					"x2": map[string]interface{}{"type": "integer", "description": "Optional region right edge (exclusive)"},
					"y2": map[string]interface{}{"type": "integer", "description": "Optional region bottom edge (exclusive)"},
				},
				"required": []string{"path"},
			},
		},
	}
}
