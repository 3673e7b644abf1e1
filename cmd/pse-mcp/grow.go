package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/pse-mcp/internal/detection"
	"github.com/ironsheep/pse-mcp/internal/imaging"
)

type growOptions struct {
	out      string
	jsonPath string
}

// growReport is written by --json.
type growReport struct {
	Width   int                 `json:"width"`
	Height  int                 `json:"height"`
	Kernels int                 `json:"kernels"`
	MinArea int                 `json:"min_area"`
	Labels  detection.LabelGrid `json:"labels"`
	Regions []detection.Region  `json:"regions"`
}

func newGrowCommand(a *app) *cobra.Command {
	opts := &growOptions{}
	cmd := &cobra.Command{
		Use:   "grow MASK [MASK...]",
		Short: "Grow text regions from mask images and write the label image",
		Long: "Grow text regions from one mask image per kernel. Pass the largest kernel first " +
			"and the seed kernel last.",
		Example: `  # Three kernels, rendered as WebP with a label dump
  pse-mcp grow --out labels.webp --format webp --json labels.json k0.png k1.png k2.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.grow(cmd, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the rendered label image to this path")
	cmd.Flags().StringVar(&opts.jsonPath, "json", "", "Write labels and regions as JSON to this path")
	return cmd
}

func (a *app) grow(cmd *cobra.Command, opts *growOptions, paths []string) error {
	defer a.log.Sync() //nolint:errcheck

	stack, err := imaging.LoadStack(imaging.NewImageCache(), paths, a.cfg.LevelByte())
	if err != nil {
		return err
	}
	if err := a.cfg.CheckPixels(stack.Width(), stack.Height()); err != nil {
		return err
	}
	if opts.out != "" {
		if err := a.cfg.CheckScaled(stack.Width(), stack.Height(), a.cfg.Scale); err != nil {
			return err
		}
	}

	g := detection.NewGrower(
		detection.WithMinArea(a.cfg.MinArea),
		detection.WithLogger(a.log),
	)
	grid, err := g.Grow(stack)
	if err != nil {
		return err
	}
	regions := detection.Regions(grid)

	if opts.out != "" {
		if err := writeLabelImage(opts.out, grid, imaging.RenderOptions{
			Format:     a.cfg.Format,
			Scale:      a.cfg.Scale,
			Background: a.cfg.Background,
		}); err != nil {
			return err
		}
		a.log.Debug("label image written", zap.String("path", opts.out))
	}

	if opts.jsonPath != "" {
		report := growReport{
			Width:   stack.Width(),
			Height:  stack.Height(),
			Kernels: len(stack),
			MinArea: g.MinArea,
			Labels:  grid,
			Regions: regions,
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.jsonPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.jsonPath, err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%dx%d, %d kernels, %d regions\n", stack.Width(), stack.Height(), len(stack), len(regions))
	for _, r := range regions {
		fmt.Fprintf(out, "  label %d: %d px\n", r.Label, r.Area)
	}
	return nil
}

func writeLabelImage(path string, grid detection.LabelGrid, opts imaging.RenderOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := imaging.WriteLabels(f, grid, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
