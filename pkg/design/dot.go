package design

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// ToDOT converts a design tree to Graphviz DOT format. Each node becomes
// a box labeled with its type and geometry; containment becomes an edge
// from frame to child. Useful for inspecting the structure of a
// generated document without rendering it.
func ToDOT(s *Spec) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("nil spec")
	}

	var buf bytes.Buffer
	buf.WriteString("digraph design {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	canvasID := "canvas"
	fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=lightgrey];\n",
		canvasID, fmt.Sprintf("%s\n%.0f×%.0f", s.Canvas.Name, s.Canvas.Width, s.Canvas.Height))

	seq := 0
	for _, n := range s.Nodes {
		writeDOTNode(&buf, n, canvasID, &seq)
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func writeDOTNode(buf *bytes.Buffer, n *Node, parentID string, seq *int) {
	id := fmt.Sprintf("n%d", *seq)
	*seq++

	label := fmt.Sprintf("%s\n%.0f×%.0f @ (%.0f,%.0f)", n.Type, n.Width, n.Height, n.X, n.Y)
	if n.Type == TypeText && n.Text != "" {
		text := n.Text
		if len(text) > 24 {
			text = text[:24] + "…"
		}
		label = fmt.Sprintf("text %q", text)
	}

	attrs := fmt.Sprintf("label=%q", label)
	if n.Type == TypeFrame {
		attrs += ", fillcolor=lightyellow"
	}
	fmt.Fprintf(buf, "  %q [%s];\n", id, attrs)
	fmt.Fprintf(buf, "  %q -> %q;\n", parentID, id)

	for _, c := range n.Children {
		writeDOTNode(buf, c, id, seq)
	}
}

// RenderSVG renders the design tree diagram to SVG using Graphviz.
func RenderSVG(ctx context.Context, s *Spec) ([]byte, error) {
	dot, err := ToDOT(s)
	if err != nil {
		return nil, err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
