package server

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ironsheep/pse-mcp/internal/detection"
	"github.com/ironsheep/pse-mcp/internal/imaging"
	"github.com/ironsheep/pse-mcp/internal/mask"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "pse_grow", "pse_render_labels").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// GrowResult is the outcome of a kernel growth tool.
type GrowResult struct {
	// Width and Height of the label grid.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Kernels is the number of planes consumed.
	Kernels int `json:"kernels"`

	// MinArea is the seed area threshold that was applied.
	MinArea int `json:"min_area"`

	// Labels is the label grid, rows of columns. Omitted when the caller
	// asked for a summary only.
	Labels detection.LabelGrid `json:"labels,omitempty"`

	// Regions lists every surviving label with its final pixel area.
	Regions []detection.Region `json:"regions"`

	// Count is len(Regions).
	Count int `json:"count"`

	// Image is the rendered label grid, when requested.
	Image *imaging.RenderResult `json:"image,omitempty"`
}

// RatesResult lists the shrink rate of each kernel.
type RatesResult struct {
	Kernels  int       `json:"kernels"`
	MinScale float64   `json:"min_scale"`
	Rates    []float64 `json:"rates"`
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
		s.log.Info("tool failed", zap.String("tool", params.Name), zap.Error(err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	return s.toolResponse(req.ID, params.Name, result)
}

// toolResponse wraps a tool result as MCP text content. A result that
// cannot be encoded fails the call with -32000.
func (s *Server) toolResponse(id interface{}, name string, result interface{}) *MCPResponse {
	text, err := marshalResult(result)
	if err != nil {
		s.log.Error("tool result not encodable", zap.String("tool", name), zap.Error(err))
		return s.errorResponse(id, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": text,
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Kernel Growth
	case "pse_grow":
		return s.handleGrow(args)
	case "pse_grow_scores":
		return s.handleGrowScores(args)
	case "pse_grow_images":
		return s.handleGrowImages(args)

	// Inspection
	case "pse_render_labels":
		return s.handleRenderLabels(args)
	case "pse_load_mask":
		return s.handleLoadMask(args)
	case "pse_kernel_rates":
		return s.handleKernelRates(args)

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

// marshalResult converts a tool result to a pretty-printed JSON string.
func marshalResult(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(b), nil
}

// unmarshalArgs decodes tool arguments, treating missing arguments as {}.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// grower builds a Grower honouring a per-call min_area override.
func (s *Server) grower(minArea *int) *detection.Grower {
	area := s.cfg.MinArea
	if minArea != nil {
		area = *minArea
	}
	return detection.NewGrower(
		detection.WithMinArea(area),
		detection.WithLogger(s.log),
	)
}

// grow runs growth on a stack and packs the result.
func (s *Server) grow(stack mask.Stack, minArea *int, includeLabels bool) (*GrowResult, error) {
	if err := stack.Validate(); err != nil {
		return nil, err
	}
	if err := s.cfg.CheckPixels(stack.Width(), stack.Height()); err != nil {
		return nil, err
	}

	g := s.grower(minArea)
	grid, err := g.Grow(stack)
	if err != nil {
		return nil, err
	}

	regions := detection.Regions(grid)
	result := &GrowResult{
		Width:   stack.Width(),
		Height:  stack.Height(),
		Kernels: len(stack),
		MinArea: g.MinArea,
		Regions: regions,
		Count:   len(regions),
	}
	if includeLabels {
		result.Labels = grid
	}
	return result, nil
}

// renderOptions fills unset render arguments from server config.
func (s *Server) renderOptions(a renderArgs) imaging.RenderOptions {
	opts := imaging.RenderOptions{
		Format:     s.cfg.Format,
		Scale:      s.cfg.Scale,
		Background: s.cfg.Background,
	}
	if a.Format != "" {
		opts.Format = a.Format
	}
	if a.Scale > 0 {
		opts.Scale = a.Scale
	}
	if a.Background != "" {
		opts.Background = a.Background
	}
	return opts
}

// === Kernel Growth Handlers ===

type growArgs struct {
	Data    []int `json:"data"`
	Shape   []int `json:"shape"`
	MinArea *int  `json:"min_area"`
}

func (s *Server) handleGrow(args json.RawMessage) (interface{}, error) {
	var a growArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	p, h, w, err := s.parseShape(a.Shape)
	if err != nil {
		return nil, err
	}
	stack, err := mask.Build(a.Data, p, h, w)
	if err != nil {
		return nil, err
	}
	return s.grow(stack, a.MinArea, true)
}

type growScoresArgs struct {
	Scores    []float32 `json:"scores"`
	Shape     []int     `json:"shape"`
	Threshold *float64  `json:"threshold"`
	MinArea   *int      `json:"min_area"`
}

func (s *Server) handleGrowScores(args json.RawMessage) (interface{}, error) {
	var a growScoresArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	p, h, w, err := s.parseShape(a.Shape)
	if err != nil {
		return nil, err
	}
	threshold := s.cfg.Threshold
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	stack, err := mask.BuildFromScores(a.Scores, p, h, w, float32(threshold))
	if err != nil {
		return nil, err
	}
	return s.grow(stack, a.MinArea, true)
}

type renderArgs struct {
	Format     string `json:"format"`
	Scale      int    `json:"scale"`
	Background string `json:"background"`
}

type growImagesArgs struct {
	renderArgs
	Paths         []string `json:"paths"`
	Level         *int     `json:"level"`
	MinArea       *int     `json:"min_area"`
	IncludeLabels bool     `json:"include_labels"`
	Render        bool     `json:"render"`
}

func (s *Server) handleGrowImages(args json.RawMessage) (interface{}, error) {
	var a growImagesArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	level, err := s.level(a.Level)
	if err != nil {
		return nil, err
	}
	stack, err := imaging.LoadStack(s.cache, a.Paths, level)
	if err != nil {
		return nil, err
	}
	opts := s.renderOptions(a.renderArgs)
	if a.Render {
		if err := s.cfg.CheckScaled(stack.Width(), stack.Height(), opts.Scale); err != nil {
			return nil, err
		}
	}

	// The grid is needed for rendering even when it is not returned.
	result, err := s.grow(stack, a.MinArea, true)
	if err != nil {
		return nil, err
	}
	if a.Render {
		img, err := imaging.RenderLabels(result.Labels, opts)
		if err != nil {
			return nil, err
		}
		result.Image = img
	}
	if !a.IncludeLabels {
		result.Labels = nil
	}
	return result, nil
}

// === Inspection Handlers ===

type renderLabelsArgs struct {
	renderArgs
	Labels [][]int `json:"labels"`
}

func (s *Server) handleRenderLabels(args json.RawMessage) (interface{}, error) {
	var a renderLabelsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	opts := s.renderOptions(a.renderArgs)
	if len(a.Labels) > 0 {
		if err := s.cfg.CheckScaled(len(a.Labels[0]), len(a.Labels), opts.Scale); err != nil {
			return nil, err
		}
	}
	return imaging.RenderLabels(a.Labels, opts)
}

type loadMaskArgs struct {
	Path  string `json:"path"`
	Level *int   `json:"level"`
}

func (s *Server) handleLoadMask(args json.RawMessage) (interface{}, error) {
	var a loadMaskArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	level, err := s.level(a.Level)
	if err != nil {
		return nil, err
	}
	return imaging.LoadMaskInfo(s.cache, a.Path, level)
}

type kernelRatesArgs struct {
	Kernels  int     `json:"kernels"`
	MinScale float64 `json:"min_scale"`
}

func (s *Server) handleKernelRates(args json.RawMessage) (interface{}, error) {
	var a kernelRatesArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	rates, err := mask.ScaleRates(a.Kernels, a.MinScale)
	if err != nil {
		return nil, err
	}
	return &RatesResult{Kernels: a.Kernels, MinScale: a.MinScale, Rates: rates}, nil
}

// parseShape validates a [kernels, height, width] triple against the
// configured pixel limit.
func (s *Server) parseShape(shape []int) (planes, height, width int, err error) {
	if len(shape) != 3 {
		return 0, 0, 0, fmt.Errorf("shape must have 3 entries, got %d: %w", len(shape), mask.ErrInvalidShape)
	}
	planes, height, width = shape[0], shape[1], shape[2]
	if planes <= 0 || height <= 0 || width <= 0 {
		return 0, 0, 0, fmt.Errorf("shape %v must be positive: %w", shape, mask.ErrInvalidShape)
	}
	if err := s.cfg.CheckPixels(width, height); err != nil {
		return 0, 0, 0, err
	}
	return planes, height, width, nil
}

// level resolves an optional binarization level.
func (s *Server) level(v *int) (uint8, error) {
	if v == nil {
		return s.cfg.LevelByte(), nil
	}
	if *v < 0 || *v > 255 {
		return 0, fmt.Errorf("level must be in 0-255, got %d", *v)
	}
	return uint8(*v), nil
}
