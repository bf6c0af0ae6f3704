package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sketchlift/pkg/design"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand creates the inspect command: an interactive tree browser
// for validated documents.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "Browse the node tree interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			spec, err := c.loadSpec(raw)
			if err != nil {
				return err
			}
			model := newInspectModel(spec)
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}
}

// nodeRow is one flattened line of the tree view.
type nodeRow struct {
	node  *design.Node
	depth int
}

// inspectModel is the bubbletea model for the tree browser.
type inspectModel struct {
	spec   *design.Spec
	rows   []nodeRow
	cursor int
	height int
	offset int
}

func newInspectModel(spec *design.Spec) inspectModel {
	m := inspectModel{spec: spec, height: 15}
	var flatten func(nodes []*design.Node, depth int)
	flatten = func(nodes []*design.Node, depth int) {
		for _, n := range nodes {
			m.rows = append(m.rows, nodeRow{node: n, depth: depth})
			if n.Type == design.TypeFrame {
				flatten(n.Children, depth+1)
			}
		}
	}
	flatten(spec.Nodes, 0)
	return m
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "g":
			m.cursor, m.offset = 0, 0
		case "G":
			m.cursor = len(m.rows) - 1
			if m.cursor >= m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 10
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m inspectModel) View() string {
	var b strings.Builder

	title := fmt.Sprintf("%s · %.0f×%.0f · %d nodes",
		m.spec.Canvas.Name, m.spec.Canvas.Width, m.spec.Canvas.Height, m.spec.NodeCount())
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		cursor := "  "
		style := listNormalStyle
		if i == m.cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		indent := strings.Repeat("  ", row.depth)
		b.WriteString(cursor + indent + style.Render(rowLabel(row.node)) + "\n")
	}

	if len(m.rows) > 0 {
		b.WriteString("\n")
		b.WriteString(detailView(m.rows[m.cursor].node))
	}
	return b.String()
}

func rowLabel(n *design.Node) string {
	switch n.Type {
	case design.TypeText:
		text := n.Text
		if len(text) > 32 {
			text = text[:32] + "…"
		}
		return fmt.Sprintf("text %q", text)
	case design.TypeFrame:
		return fmt.Sprintf("frame (%d children)", len(n.Children))
	default:
		return string(n.Type)
	}
}

func detailView(n *design.Node) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("pos (%.1f, %.1f)", n.X, n.Y))
	parts = append(parts, fmt.Sprintf("size %.1f×%.1f", n.Width, n.Height))
	if n.Fill != nil {
		parts = append(parts, fmt.Sprintf("fill rgb(%.2f, %.2f, %.2f)", n.Fill.R, n.Fill.G, n.Fill.B))
	}
	if n.CornerRadius != nil {
		parts = append(parts, fmt.Sprintf("radius %.1f", *n.CornerRadius))
	}
	if n.Type == design.TypeFrame && n.LayoutMode != design.LayoutNone {
		parts = append(parts, fmt.Sprintf("layout %s", n.LayoutMode))
	}
	if n.Type == design.TypeImage {
		src := "url"
		if n.ImageData != "" {
			src = "embedded"
		}
		parts = append(parts, "source "+src)
	}
	return listDimStyle.Render(strings.Join(parts, "  ·  "))
}
