package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sketchlift/pkg/design"
	"github.com/matzehuels/sketchlift/pkg/design/normalize"
)

// treeCommand creates the tree command. It exports the validated node
// tree as a Graphviz diagram without touching a canvas.
func (c *CLI) treeCommand() *cobra.Command {
	var output string
	var svg bool

	cmd := &cobra.Command{
		Use:   "tree [file]",
		Short: "Export the node tree as a Graphviz diagram",
		Long: `Tree validates a design document and emits its containment structure
as Graphviz DOT, or rendered SVG with --svg. Useful for checking how a
generated document nests frames before rendering it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTree(cmd.Context(), args[0], output, svg)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: input name with .dot/.svg)")
	cmd.Flags().BoolVar(&svg, "svg", false, "render SVG instead of emitting DOT")

	return cmd
}

func (c *CLI) runTree(ctx context.Context, input, output string, svg bool) error {
	raw, err := readInput(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	spec, err := c.loadSpec(raw)
	if err != nil {
		return err
	}

	var data []byte
	ext := "dot"
	if svg {
		ext = "svg"
		data, err = design.RenderSVG(ctx, spec)
	} else {
		data, err = design.ToDOT(spec)
	}
	if err != nil {
		return err
	}

	if output == "" {
		if input == "-" {
			fmt.Print(string(data))
			return nil
		}
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + ext
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printFile(output)
	return nil
}

// loadSpec runs decode, repair and validation with config defaults.
func (c *CLI) loadSpec(raw []byte) (*design.Spec, error) {
	doc, err := design.Decode(raw)
	if err != nil {
		return nil, err
	}
	opts := c.newRenderOpts()
	doc, _ = normalize.Document(doc, normalize.Options{
		CanvasName:   opts.name,
		CanvasWidth:  opts.width,
		CanvasHeight: opts.height,
	})
	return design.Validate(doc)
}
