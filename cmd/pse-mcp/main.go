// main.go bootstraps pse-mcp: it builds the root Cobra command, resolves
// configuration through viper and runs the MCP server or a one-shot growth.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ironsheep/pse-mcp/internal/config"
	"github.com/ironsheep/pse-mcp/internal/detection"
	"github.com/ironsheep/pse-mcp/internal/imaging"
	"github.com/ironsheep/pse-mcp/internal/logging"
	"github.com/ironsheep/pse-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		handleError(err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are resolved.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        config.Config
	log        *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	cmd := &cobra.Command{
		Use:           "pse-mcp",
		Short:         "MCP server for progressive scale expansion of text kernels",
		Long:          "pse-mcp turns the shrunk kernel masks of a text segmentation network into labelled text regions.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", os.Getenv("PSE_CONFIG"), "Path to a config file (yaml, toml or json)")
	pf.String(config.KeyLogLevel, "info", "Log level (debug, info, warn, error)")
	pf.Int(config.KeyMinArea, detection.DefaultMinArea, "Minimum seed component area in pixels")
	pf.Int(config.KeyLevel, imaging.DefaultLevel, "Gray level (0-255) at or above which a mask pixel is foreground")
	pf.Float64(config.KeyThreshold, config.DefaultThreshold, "Score threshold for probability maps")
	pf.Int(config.KeyMaxPixels, config.DefaultMaxPixels, "Largest plane, in cells, a request may carry")
	pf.String(config.KeyFormat, imaging.FormatPNG, "Rendered image format (png, webp)")
	pf.Int(config.KeyScale, 1, "Integer upscale factor for rendered images")
	pf.String(config.KeyBackground, "", "Hex color for unlabelled cells in rendered images")

	cmd.AddCommand(
		newServeCommand(a),
		newGrowCommand(a),
		newVersionCommand(),
	)
	return cmd
}

// init merges flags, environment and config file into a.cfg and builds the
// logger.
func (a *app) init(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	if err := config.ReadFile(a.v, a.configPath); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger
	a.log.Debug("configuration resolved",
		zap.String("config", a.configPath),
		zap.Int("min_area", cfg.MinArea),
		zap.Int("level", cfg.Level),
		zap.Int("max_pixels", cfg.MaxPixels),
	)
	return nil
}

func (a *app) serve(cmd *cobra.Command) error {
	defer a.log.Sync() //nolint:errcheck
	a.log.Info("starting MCP server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit),
	)
	if Version != "dev" {
		server.ServerVersion = Version
	}
	srv := server.New(a.cfg, a.log)
	return srv.Serve(cmd.InOrStdin(), cmd.OutOrStdout())
}

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdin/stdout (the default)",
		Long: "Serve the MCP protocol over stdin/stdout. Configure it in your MCP client; " +
			"logs go to stderr.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Skip config resolution so version works with a broken config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pse-mcp %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
			return nil
		},
	}
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
}
