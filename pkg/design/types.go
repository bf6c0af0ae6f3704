// Package design defines the sketchlift node tree: the strictly validated
// representation of a model-generated UI description.
//
// A [Spec] is the root document: canvas metadata plus an ordered list of
// top-level nodes. A [Node] is one drawable element and is always one of
// five fixed kinds (rect, text, frame, ellipse, image). The tree is owned
// and acyclic by construction: a frame holds its children exclusively and
// nothing else references them.
//
// Raw model output rarely passes [Validate] directly; run it through
// [normalize.Document] first to repair loose shapes.
package design

// NodeType is the discriminant of the node union.
type NodeType string

// The five allowed node kinds. After validation a node's Type is always
// exactly one of these.
const (
	TypeRect    NodeType = "rect"
	TypeText    NodeType = "text"
	TypeFrame   NodeType = "frame"
	TypeEllipse NodeType = "ellipse"
	TypeImage   NodeType = "image"
)

// ValidTypes is the set of accepted node type tags.
var ValidTypes = map[NodeType]bool{
	TypeRect:    true,
	TypeText:    true,
	TypeFrame:   true,
	TypeEllipse: true,
	TypeImage:   true,
}

// LayoutMode controls automatic child placement inside a frame.
type LayoutMode string

// Layout modes for frames. LayoutNone means free-form placement.
const (
	LayoutNone       LayoutMode = "NONE"
	LayoutHorizontal LayoutMode = "HORIZONTAL"
	LayoutVertical   LayoutMode = "VERTICAL"
)

// Horizontal text alignment values.
const (
	AlignLeft      = "LEFT"
	AlignCenter    = "CENTER"
	AlignRight     = "RIGHT"
	AlignJustified = "JUSTIFIED"
)

// Vertical text alignment values.
const (
	AlignTop    = "TOP"
	AlignMiddle = "CENTER"
	AlignBottom = "BOTTOM"
)

// Color is an RGB color with channels in [0, 1] and an optional alpha.
// A nil Alpha means fully opaque.
type Color struct {
	R     float64  `json:"r"`
	G     float64  `json:"g"`
	B     float64  `json:"b"`
	Alpha *float64 `json:"a,omitempty"`
}

// Opacity returns the effective alpha channel, defaulting to 1.
func (c Color) Opacity() float64 {
	if c.Alpha == nil {
		return 1
	}
	return *c.Alpha
}

// Canvas describes the target surface the document was generated for.
type Canvas struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Spec is the root document: canvas metadata plus ordered top-level nodes.
type Spec struct {
	Canvas Canvas  `json:"canvas"`
	Nodes  []*Node `json:"nodes"`
}

// Node is one drawable element. The union is modeled as a single struct
// with a Type discriminant plus variant-specific fields; fields that do
// not apply to a node's kind are zero and ignored by the renderer.
//
// X and Y may be canvas-absolute or parent-relative depending on which
// convention the generating model used for that subtree; the renderer
// resolves the ambiguity per frame before instantiation.
type Node struct {
	Type NodeType `json:"type"`
	Name string   `json:"name,omitempty"`

	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Opacity *float64 `json:"opacity,omitempty"`

	// Shape fields (rect, ellipse, frame background).
	Fill         *Color   `json:"fill,omitempty"`
	Stroke       *Color   `json:"stroke,omitempty"`
	StrokeWidth  *float64 `json:"strokeWidth,omitempty"`
	CornerRadius *float64 `json:"cornerRadius,omitempty"`

	// Text fields.
	Text       string   `json:"text,omitempty"`
	FontFamily string   `json:"fontFamily,omitempty"`
	FontStyle  string   `json:"fontStyle,omitempty"`
	FontSize   *float64 `json:"fontSize,omitempty"`
	TextColor  *Color   `json:"textColor,omitempty"`
	AlignH     string   `json:"textAlignHorizontal,omitempty"`
	AlignV     string   `json:"textAlignVertical,omitempty"`

	// Frame fields.
	LayoutMode    LayoutMode `json:"layoutMode,omitempty"`
	ItemSpacing   float64    `json:"itemSpacing,omitempty"`
	PaddingLeft   float64    `json:"paddingLeft,omitempty"`
	PaddingRight  float64    `json:"paddingRight,omitempty"`
	PaddingTop    float64    `json:"paddingTop,omitempty"`
	PaddingBottom float64    `json:"paddingBottom,omitempty"`
	Children      []*Node    `json:"children,omitempty"`

	// Image fields. Exactly one of ImageData (base64 data URI) or
	// ImageURL (fetchable reference) is set on a valid image node.
	ImageData string `json:"imageData,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// IsFrame reports whether the node owns children.
func (n *Node) IsFrame() bool {
	return n.Type == TypeFrame
}

// Count returns the number of nodes in the subtree rooted at n,
// including n itself.
func (n *Node) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// NodeCount returns the total number of nodes in the document.
func (s *Spec) NodeCount() int {
	total := 0
	for _, n := range s.Nodes {
		total += n.Count()
	}
	return total
}

// Walk visits every node in the document depth-first, in document order.
// The visit function receives the node and its depth (0 for top level).
func (s *Spec) Walk(visit func(n *Node, depth int)) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		visit(n, depth)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, n := range s.Nodes {
		walk(n, 0)
	}
}
