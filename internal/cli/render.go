package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sketchlift/pkg/pipeline"
	"github.com/matzehuels/sketchlift/pkg/screenshot"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string   // output file path (or base path for multiple formats)
	formats    []string // output formats: "png", "json", "dot", "svg"
	name       string   // fallback canvas name
	width      float64  // fallback canvas width in pixels
	height     float64  // fallback canvas height in pixels
	screenshot string   // optional background screenshot path
	noCache    bool     // disable the artifact cache
	refresh    bool     // bypass cached artifacts, re-render
}

// newRenderOpts seeds flag defaults from the loaded config.
func (c *CLI) newRenderOpts() renderOpts {
	opts := renderOpts{
		name:   pipeline.DefaultCanvasName,
		width:  pipeline.DefaultWidth,
		height: pipeline.DefaultHeight,
	}
	if c.Config != nil {
		if c.Config.Canvas.Name != "" {
			opts.name = c.Config.Canvas.Name
		}
		if c.Config.Canvas.Width > 0 {
			opts.width = c.Config.Canvas.Width
		}
		if c.Config.Canvas.Height > 0 {
			opts.height = c.Config.Canvas.Height
		}
	}
	return opts
}

// renderCommand creates the render command. It runs the full pipeline on a
// raw document and writes the requested artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a design document to PNG and other formats",
		Long: `Render decodes a raw design document (from a file or stdin with "-"),
repairs and validates it, and instantiates it on a raster canvas. Use
--format to select outputs: png (default), json (canonical document),
dot and svg (structure diagrams).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := c.newRenderOpts()
			if opts.name == "" {
				opts.name = defaults.name
			}
			if opts.width == 0 {
				opts.width = defaults.width
			}
			if opts.height == 0 {
				opts.height = defaults.height
			}
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): png (default), json, dot, svg (comma-separated)")
	cmd.Flags().StringVar(&opts.name, "name", "", "fallback canvas name")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "fallback canvas width")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "fallback canvas height")
	cmd.Flags().StringVar(&opts.screenshot, "screenshot", "", "background screenshot (png or jpeg)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts and re-render")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	raw, err := readInput(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var shot *screenshot.Screenshot
	if opts.screenshot != "" {
		data, err := os.ReadFile(opts.screenshot)
		if err != nil {
			return fmt.Errorf("read screenshot: %w", err)
		}
		shot, err = screenshot.Read(data, screenshot.MIMEForPath(opts.screenshot))
		if err != nil {
			return err
		}
		logger.Debug("loaded screenshot", "path", opts.screenshot, "size", fmt.Sprintf("%dx%d", shot.Width, shot.Height))
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	pipeOpts := pipeline.Options{
		CanvasName: opts.name,
		Width:      opts.width,
		Height:     opts.height,
		Formats:    opts.formats,
		Refresh:    opts.refresh,
		Logger:     logger,
		Screenshot: shot,
	}

	spinner := newSpinnerWithContext(ctx, "Rendering design…")
	spinner.Start()
	track := newProgress(logger)
	result, err := runner.Execute(ctx, raw, pipeOpts)
	spinner.Stop()
	if err != nil {
		return err
	}

	objects := 0
	fallbacks := 0
	if result.Render != nil {
		objects = result.Render.Objects
		fallbacks = result.Render.ImageFallbacks
	}
	track.done(fmt.Sprintf("Rendered %d objects", objects))
	if fallbacks > 0 {
		printWarning("%d image(s) degraded to placeholders", fallbacks)
	}
	printStats(result.Stats.NodeCount, result.Stats.RepairCount, result.CacheInfo.ArtifactHit)

	return writeArtifacts(input, opts, result)
}

// writeArtifacts writes each produced format to disk. A single format
// goes to --output (or a path derived from the input); multiple formats
// share a base path.
func writeArtifacts(input string, opts *renderOpts, result *pipeline.Result) error {
	base := basePath(opts.output, input)

	for _, format := range opts.formats {
		data, ok := result.Artifacts[format]
		if !ok {
			continue
		}

		var path string
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		} else {
			path = base + "." + format
		}

		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// basePath derives the base output path from the output and input paths.
// If output is empty, it strips the extension from input. Rendering from
// stdin falls back to "design".
func basePath(output, input string) string {
	if output == "" {
		if input == "-" {
			return "design"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
