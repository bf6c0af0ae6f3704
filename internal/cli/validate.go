package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sketchlift/pkg/design"
	"github.com/matzehuels/sketchlift/pkg/design/normalize"
)

// validateCommand creates the validate command. It runs decode, repair and
// schema validation without rendering anything.
func (c *CLI) validateCommand() *cobra.Command {
	var emitJSON bool
	var output string

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a design document and report repairs",
		Long: `Validate decodes a raw design document (from a file or stdin with "-"),
applies the repair pipeline, and checks the result against the design
schema. The first violation is reported with its document path. With
--json the canonical document is printed on success.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args[0], emitJSON, output)
		},
	}

	cmd.Flags().BoolVar(&emitJSON, "json", false, "print the canonical document on success")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the canonical document to a file (implies --json)")

	return cmd
}

func (c *CLI) runValidate(ctx context.Context, input string, emitJSON bool, output string) error {
	logger := loggerFromContext(ctx)

	raw, err := readInput(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	doc, err := design.Decode(raw)
	if err != nil {
		printError("%s", err)
		return err
	}

	opts := c.newRenderOpts()
	doc, report := normalize.Document(doc, normalize.Options{
		CanvasName:   opts.name,
		CanvasWidth:  opts.width,
		CanvasHeight: opts.height,
	})
	logger.Debug("normalized document",
		"coerced", report.FieldsCoerced,
		"reclassified", report.NodesReclassified,
		"dropped", report.NodesDropped)

	spec, err := design.Validate(doc)
	if err != nil {
		printError("%s", err)
		return err
	}

	printSuccess("Valid design: %s", spec.Canvas.Name)
	printKeyValue("Canvas", fmt.Sprintf("%.0f × %.0f", spec.Canvas.Width, spec.Canvas.Height))
	printKeyValue("Nodes", fmt.Sprintf("%d", spec.NodeCount()))
	if report.Total() > 0 {
		printDetail("%d field(s) coerced, %d node(s) reclassified, %d dropped",
			report.FieldsCoerced, report.NodesReclassified, report.NodesDropped)
	}

	if !emitJSON && output == "" {
		return nil
	}
	canonical, err := design.Marshal(spec)
	if err != nil {
		return err
	}
	if output != "" {
		if err := os.WriteFile(output, canonical, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		printFile(output)
		return nil
	}
	fmt.Println(string(canonical))
	return nil
}
