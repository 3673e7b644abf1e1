package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// minAreaProperty is shared by every tool that runs kernel growth.
var minAreaProperty = map[string]interface{}{
	"type":        "integer",
	"description": "Minimum seed component area in pixels. Smaller seeds are dropped. Default from server config (10).",
	"minimum":     0,
}

// shapeProperty describes a (kernels, height, width) triple.
var shapeProperty = map[string]interface{}{
	"type":        "array",
	"description": "Logical shape [kernels, height, width] of the flat buffer, row-major.",
	"items":       map[string]interface{}{"type": "integer", "minimum": 1},
	"minItems":    3,
	"maxItems":    3,
}

// renderProperties are shared by tools that return a rendered label image.
var renderProperties = map[string]interface{}{
	"format": map[string]interface{}{
		"type":        "string",
		"enum":        []string{"png", "webp"},
		"description": "Output image format. Default from server config (png).",
	},
	"scale": map[string]interface{}{
		"type":        "integer",
		"description": "Integer upscale factor for the rendered image (nearest-neighbour). Default 1.",
		"minimum":     1,
	},
	"background": map[string]interface{}{
		"type":        "string",
		"description": "Hex color for unlabelled cells, e.g. #000000. Default black.",
	},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Kernel Growth
		{
			Name: "pse_grow",
			Description: "Grow text regions from a stack of binary kernel masks. The last kernel seeds the regions; " +
				"each earlier (larger) kernel bounds one growth round. Returns a label grid where 0 is unlabelled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"data": map[string]interface{}{
						"type":        "array",
						"description": "Flat integer buffer of kernels*height*width values; non-zero is foreground.",
						"items":       map[string]interface{}{"type": "integer"},
					},
					"shape":    shapeProperty,
					"min_area": minAreaProperty,
				},
				"required": []string{"data", "shape"},
			},
		},
		{
			Name:        "pse_grow_scores",
			Description: "Binarize per-kernel probability maps at a threshold, then grow text regions as pse_grow does.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"scores": map[string]interface{}{
						"type":        "array",
						"description": "Flat buffer of kernels*height*width scores in 0-1.",
						"items":       map[string]interface{}{"type": "number"},
					},
					"shape": shapeProperty,
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Scores at or above this are foreground. Default from server config (0.5).",
					},
					"min_area": minAreaProperty,
				},
				"required": []string{"scores", "shape"},
			},
		},
		{
			Name: "pse_grow_images",
			Description: "Load one mask image per kernel (largest kernel first, seed kernel last), binarize them and " +
				"grow text regions. Optionally returns the label grid rendered as an image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": mergeProperties(map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"description": "Absolute paths to mask images, largest kernel first, seed kernel last",
						"items":       map[string]interface{}{"type": "string"},
					},
					"level": map[string]interface{}{
						"type":        "integer",
						"description": "Gray level (0-255) at or above which a pixel is foreground. Default 128.",
						"minimum":     0,
						"maximum":     255,
					},
					"min_area": minAreaProperty,
					"include_labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the full label grid in the result. Default false.",
						"default":     false,
					},
					"render": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a rendered label image. Default false.",
						"default":     false,
					},
				}, renderProperties),
				"required": []string{"paths"},
			},
		},

		// Inspection
		{
			Name:        "pse_render_labels",
			Description: "Render a label grid as a color image with one distinct color per label.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": mergeProperties(map[string]interface{}{
					"labels": map[string]interface{}{
						"type":        "array",
						"description": "Label grid as rows of integers",
						"items": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "integer"},
						},
					},
				}, renderProperties),
				"required": []string{"labels"},
			},
		},
		{
			Name:        "pse_load_mask",
			Description: "Load and binarize a single mask image. Returns its dimensions and foreground pixel count.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the mask image",
					},
					"level": map[string]interface{}{
						"type":        "integer",
						"description": "Gray level (0-255) at or above which a pixel is foreground. Default 128.",
						"minimum":     0,
						"maximum":     255,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "pse_kernel_rates",
			Description: "Shrink rate of each kernel for a stack of the given size and minimum scale.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"kernels": map[string]interface{}{
						"type":        "integer",
						"description": "Number of kernels in the stack",
						"minimum":     1,
					},
					"min_scale": map[string]interface{}{
						"type":        "number",
						"description": "Rate of the smallest kernel, in (0, 1]",
					},
				},
				"required": []string{"kernels", "min_scale"},
			},
		},
	}
}

// mergeProperties returns a new map holding the entries of every argument.
func mergeProperties(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
