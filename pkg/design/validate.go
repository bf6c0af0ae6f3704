package design

import (
	"fmt"
	"math"
	"regexp"
)

// SchemaViolation reports the first structural mismatch found by
// [Validate]. Path addresses the offending value from the document root,
// e.g. "nodes[2].children[0].width".
type SchemaViolation struct {
	Path   string
	Reason string
}

// Error implements the error interface.
func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("schema violation at %s: %s", e.Path, e.Reason)
}

func violation(path, format string, args ...any) error {
	return &SchemaViolation{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// dataURIRe matches an embedded base64 image source with a PNG or JPEG
// declared type. Whitespace is tolerated inside the payload because models
// wrap long base64 runs.
var dataURIRe = regexp.MustCompile(`^data:image/(png|jpeg);base64,[A-Za-z0-9+/=\s]+$`)

// Validate decides membership of an arbitrary decoded JSON value in the
// document schema and produces a fully typed [Spec] with defaults applied
// (absent layoutMode becomes NONE, absent children an empty sequence).
//
// Validation is all-or-nothing: the first structural mismatch fails the
// whole document with a [SchemaViolation] naming the offending path, so
// the renderer never observes partially valid geometry. Re-validating the
// canonical form of an already validated document yields an equivalent
// document.
func Validate(raw map[string]any) (*Spec, error) {
	if raw == nil {
		return nil, violation("$", "document is not an object")
	}

	spec := &Spec{Nodes: []*Node{}}

	cv, ok := raw["canvas"]
	if !ok {
		return nil, violation("canvas", "missing required field")
	}
	canvas, ok := cv.(map[string]any)
	if !ok {
		return nil, violation("canvas", "expected object, got %T", cv)
	}
	if name, ok := canvas["name"]; ok {
		s, ok := name.(string)
		if !ok {
			return nil, violation("canvas.name", "expected string, got %T", name)
		}
		spec.Canvas.Name = s
	}
	w, err := requirePositive(canvas, "width", "canvas.width")
	if err != nil {
		return nil, err
	}
	h, err := requirePositive(canvas, "height", "canvas.height")
	if err != nil {
		return nil, err
	}
	spec.Canvas.Width, spec.Canvas.Height = w, h

	rawNodes, ok := raw["nodes"]
	if !ok || rawNodes == nil {
		return spec, nil
	}
	list, ok := rawNodes.([]any)
	if !ok {
		return nil, violation("nodes", "expected array, got %T", rawNodes)
	}
	for i, rn := range list {
		node, err := validateNode(rn, fmt.Sprintf("nodes[%d]", i))
		if err != nil {
			return nil, err
		}
		spec.Nodes = append(spec.Nodes, node)
	}
	return spec, nil
}

// validateNode validates one node of the union recursively. Frame children
// are checked against the same union with no depth limit; depth is bounded
// by the input size because the tree is built from finite JSON.
func validateNode(raw any, path string) (*Node, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, violation(path, "expected object, got %T", raw)
	}

	tag, ok := obj["type"].(string)
	if !ok {
		return nil, violation(path+".type", "missing or non-string type tag")
	}
	typ := NodeType(tag)
	if !ValidTypes[typ] {
		return nil, violation(path+".type", "unknown node type %q", tag)
	}

	n := &Node{Type: typ}
	if name, ok := obj["name"]; ok {
		s, ok := name.(string)
		if !ok {
			return nil, violation(path+".name", "expected string, got %T", name)
		}
		n.Name = s
	}

	var err error
	if n.X, err = requireFinite(obj, "x", path+".x"); err != nil {
		return nil, err
	}
	if n.Y, err = requireFinite(obj, "y", path+".y"); err != nil {
		return nil, err
	}
	if n.Width, err = requirePositive(obj, "width", path+".width"); err != nil {
		return nil, err
	}
	if n.Height, err = requirePositive(obj, "height", path+".height"); err != nil {
		return nil, err
	}
	if n.Opacity, err = optionalUnit(obj, "opacity", path+".opacity"); err != nil {
		return nil, err
	}

	if n.Fill, err = optionalColor(obj, "fill", path+".fill"); err != nil {
		return nil, err
	}
	if n.Stroke, err = optionalColor(obj, "stroke", path+".stroke"); err != nil {
		return nil, err
	}
	if n.StrokeWidth, err = optionalNonNegative(obj, "strokeWidth", path+".strokeWidth"); err != nil {
		return nil, err
	}
	if n.CornerRadius, err = optionalNonNegative(obj, "cornerRadius", path+".cornerRadius"); err != nil {
		return nil, err
	}

	switch typ {
	case TypeText:
		if err := validateText(obj, n, path); err != nil {
			return nil, err
		}
	case TypeFrame:
		if err := validateFrame(obj, n, path); err != nil {
			return nil, err
		}
	case TypeImage:
		if err := validateImage(obj, n, path); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func validateText(obj map[string]any, n *Node, path string) error {
	if v, ok := obj["text"]; ok {
		s, ok := v.(string)
		if !ok {
			return violation(path+".text", "expected string, got %T", v)
		}
		n.Text = s
	}
	if v, ok := obj["fontFamily"]; ok {
		s, ok := v.(string)
		if !ok {
			return violation(path+".fontFamily", "expected string, got %T", v)
		}
		n.FontFamily = s
	}
	if v, ok := obj["fontStyle"]; ok {
		s, ok := v.(string)
		if !ok {
			return violation(path+".fontStyle", "expected string, got %T", v)
		}
		n.FontStyle = s
	}
	var err error
	if n.FontSize, err = optionalPositive(obj, "fontSize", path+".fontSize"); err != nil {
		return err
	}
	if n.TextColor, err = optionalColor(obj, "textColor", path+".textColor"); err != nil {
		return err
	}
	if v, ok := obj["textAlignHorizontal"]; ok {
		s, ok := v.(string)
		if !ok || !validAlignH(s) {
			return violation(path+".textAlignHorizontal", "invalid alignment %v", v)
		}
		n.AlignH = s
	}
	if v, ok := obj["textAlignVertical"]; ok {
		s, ok := v.(string)
		if !ok || !validAlignV(s) {
			return violation(path+".textAlignVertical", "invalid alignment %v", v)
		}
		n.AlignV = s
	}
	return nil
}

func validateFrame(obj map[string]any, n *Node, path string) error {
	n.LayoutMode = LayoutNone
	if v, ok := obj["layoutMode"]; ok {
		s, ok := v.(string)
		if !ok {
			return violation(path+".layoutMode", "expected string, got %T", v)
		}
		switch LayoutMode(s) {
		case LayoutNone, LayoutHorizontal, LayoutVertical:
			n.LayoutMode = LayoutMode(s)
		default:
			return violation(path+".layoutMode", "unknown layout mode %q", s)
		}
	}

	for key, dst := range map[string]*float64{
		"itemSpacing":   &n.ItemSpacing,
		"paddingLeft":   &n.PaddingLeft,
		"paddingRight":  &n.PaddingRight,
		"paddingTop":    &n.PaddingTop,
		"paddingBottom": &n.PaddingBottom,
	} {
		p, err := optionalNonNegative(obj, key, path+"."+key)
		if err != nil {
			return err
		}
		if p != nil {
			*dst = *p
		}
	}

	n.Children = []*Node{}
	v, ok := obj["children"]
	if !ok || v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return violation(path+".children", "expected array, got %T", v)
	}
	for i, rc := range list {
		child, err := validateNode(rc, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return err
		}
		n.Children = append(n.Children, child)
	}
	return nil
}

// validateImage requires exactly one usable image source: an embedded
// base64 data URI with a png/jpeg declared type, or a non-empty fetchable
// reference. A node with neither is rejected outright; the normalizer
// rewrites such nodes into rectangle placeholders before validation.
func validateImage(obj map[string]any, n *Node, path string) error {
	if v, ok := obj["imageData"]; ok {
		s, ok := v.(string)
		if !ok {
			return violation(path+".imageData", "expected string, got %T", v)
		}
		if s != "" && !dataURIRe.MatchString(s) {
			return violation(path+".imageData", "not a png/jpeg base64 data URI")
		}
		n.ImageData = s
	}
	if v, ok := obj["imageUrl"]; ok {
		s, ok := v.(string)
		if !ok {
			return violation(path+".imageUrl", "expected string, got %T", v)
		}
		n.ImageURL = s
	}
	if n.ImageData == "" && n.ImageURL == "" {
		return violation(path, "image node has neither imageData nor imageUrl")
	}
	return nil
}

func validAlignH(s string) bool {
	switch s {
	case AlignLeft, AlignCenter, AlignRight, AlignJustified:
		return true
	}
	return false
}

func validAlignV(s string) bool {
	switch s {
	case AlignTop, AlignMiddle, AlignBottom:
		return true
	}
	return false
}

// numeric extracts a finite float64 from a decoded JSON value.
func numeric(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func requireFinite(obj map[string]any, key, path string) (float64, error) {
	v, ok := obj[key]
	if !ok {
		return 0, violation(path, "missing required field")
	}
	f, ok := numeric(v)
	if !ok {
		return 0, violation(path, "expected finite number, got %v", v)
	}
	return f, nil
}

func requirePositive(obj map[string]any, key, path string) (float64, error) {
	f, err := requireFinite(obj, key, path)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, violation(path, "must be > 0, got %v", f)
	}
	return f, nil
}

func optionalPositive(obj map[string]any, key, path string) (*float64, error) {
	v, ok := obj[key]
	if !ok {
		return nil, nil
	}
	f, ok := numeric(v)
	if !ok || f <= 0 {
		return nil, violation(path, "expected number > 0, got %v", v)
	}
	return &f, nil
}

func optionalNonNegative(obj map[string]any, key, path string) (*float64, error) {
	v, ok := obj[key]
	if !ok {
		return nil, nil
	}
	f, ok := numeric(v)
	if !ok || f < 0 {
		return nil, violation(path, "expected number >= 0, got %v", v)
	}
	return &f, nil
}

func optionalUnit(obj map[string]any, key, path string) (*float64, error) {
	v, ok := obj[key]
	if !ok {
		return nil, nil
	}
	f, ok := numeric(v)
	if !ok || f < 0 || f > 1 {
		return nil, violation(path, "expected number in [0,1], got %v", v)
	}
	return &f, nil
}

func optionalColor(obj map[string]any, key, path string) (*Color, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, violation(path, "expected color object, got %T", v)
	}
	c := &Color{}
	for ch, dst := range map[string]*float64{"r": &c.R, "g": &c.G, "b": &c.B} {
		cv, ok := m[ch]
		if !ok {
			return nil, violation(path+"."+ch, "missing color channel")
		}
		f, ok := numeric(cv)
		if !ok || f < 0 || f > 1 {
			return nil, violation(path+"."+ch, "channel must be in [0,1], got %v", cv)
		}
		*dst = f
	}
	if av, ok := m["a"]; ok {
		f, ok := numeric(av)
		if !ok || f < 0 || f > 1 {
			return nil, violation(path+".a", "alpha must be in [0,1], got %v", av)
		}
		c.Alpha = &f
	}
	return c, nil
}
