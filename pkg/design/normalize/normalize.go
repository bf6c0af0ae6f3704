// Package normalize repairs loosely shaped generator output so that more
// of it survives strict validation.
//
// The pipeline rewrites an untyped document depth-first: unknown node
// kinds are dropped, numeric-looking fields are coerced, alternate keys
// are mapped onto canonical ones, and image nodes without a usable source
// are reclassified as rectangle placeholders. It never fails outright —
// worst case the result has an empty node list — and it never bypasses
// the validator; it only improves the odds of passing it.
package normalize

import (
	"strconv"
	"strings"

	"github.com/matzehuels/sketchlift/pkg/design"
)

// Options carries fallback canvas metadata used when the document has no
// usable canvas block. The generating request knows the target dimensions,
// so callers thread them through here.
type Options struct {
	CanvasName   string
	CanvasWidth  float64
	CanvasHeight float64
}

// Report counts the repairs applied to a document. These are telemetry,
// not errors: a non-zero report is the normal case for generated input.
type Report struct {
	FieldsCoerced     int `json:"fields_coerced"`
	NodesReclassified int `json:"nodes_reclassified"`
	NodesDropped      int `json:"nodes_dropped"`
}

// Total returns the total number of repairs.
func (r Report) Total() int {
	return r.FieldsCoerced + r.NodesReclassified + r.NodesDropped
}

// normalizer threads the running report through the tree walk.
type normalizer struct {
	report Report
}

// Document rewrites raw into a document built only from canonical keys.
// The output still has to pass [design.Validate]; normalization maximizes
// how much of it does.
func Document(raw map[string]any, opts Options) (map[string]any, Report) {
	n := &normalizer{}

	doc := map[string]any{
		"canvas": n.canvas(raw, opts),
		"nodes":  n.nodeList(rootNodes(raw)),
	}
	return doc, n.report
}

// rootNodes finds the top-level node list under its canonical or alternate
// keys.
func rootNodes(raw map[string]any) []any {
	for _, key := range []string{"nodes", "children", "elements"} {
		if list, ok := raw[key].([]any); ok {
			return list
		}
	}
	return nil
}

func (n *normalizer) canvas(raw map[string]any, opts Options) map[string]any {
	out := map[string]any{
		"name":   opts.CanvasName,
		"width":  opts.CanvasWidth,
		"height": opts.CanvasHeight,
	}
	cv, ok := raw["canvas"].(map[string]any)
	if !ok {
		return out
	}
	if name, ok := cv["name"].(string); ok && name != "" {
		out["name"] = name
	}
	if w, ok := n.coerce(cv, "width"); ok && w > 0 {
		out["width"] = w
	}
	if h, ok := n.coerce(cv, "height"); ok && h > 0 {
		out["height"] = h
	}
	return out
}

// nodeList normalizes each entry; entries that cannot be repaired are
// removed from the surviving list, never propagated.
func (n *normalizer) nodeList(list []any) []any {
	out := []any{}
	for _, raw := range list {
		node, ok := n.node(raw)
		if !ok {
			n.report.NodesDropped++
			continue
		}
		out = append(out, node)
	}
	return out
}

// node rewrites a single node into canonical shape. It returns false when
// the node is unrepairable: no recognizable type tag, or geometry that
// cannot be resolved to a positive box.
func (n *normalizer) node(raw any) (map[string]any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}

	typ, ok := nodeType(obj)
	if !ok {
		return nil, false
	}

	out := map[string]any{"type": string(typ)}
	if name, ok := obj["name"].(string); ok && name != "" {
		out["name"] = name
	}

	// Geometry is mandatory; a node whose box cannot be resolved cannot
	// be placed at all.
	for _, key := range []string{"x", "y", "width", "height"} {
		v, ok := n.coerce(obj, key)
		if !ok {
			return nil, false
		}
		out[key] = v
	}
	if out["width"].(float64) <= 0 || out["height"].(float64) <= 0 {
		return nil, false
	}

	if v, ok := n.coerce(obj, "opacity"); ok && v >= 0 && v <= 1 {
		out["opacity"] = v
	}
	for _, key := range []string{"cornerRadius", "strokeWidth"} {
		if v, ok := n.coerce(obj, key); ok && v >= 0 {
			out[key] = v
		}
	}
	for _, key := range []string{"fill", "stroke"} {
		if c, ok := n.color(obj[key]); ok {
			out[key] = c
		}
	}

	switch typ {
	case design.TypeText:
		n.textFields(obj, out)
	case design.TypeFrame:
		n.frameFields(obj, out)
	case design.TypeImage:
		if !n.imageFields(obj, out) {
			// An unresolvable image cannot be drawn; substitute a
			// rectangle placeholder of identical bounds instead of
			// dropping the node.
			out["type"] = string(design.TypeRect)
			n.report.NodesReclassified++
		}
	}
	return out, true
}

func (n *normalizer) frameFields(obj, out map[string]any) {
	if mode, ok := layoutMode(obj); ok {
		out["layoutMode"] = mode
	}
	for _, key := range []string{"itemSpacing", "paddingLeft", "paddingRight", "paddingTop", "paddingBottom"} {
		if v, ok := n.coerce(obj, key); ok && v >= 0 {
			out[key] = v
		}
	}
	// Recurse into children only for frame-like nodes; the surviving
	// child list reflects the repairs above.
	if list, ok := obj["children"].([]any); ok {
		out["children"] = n.nodeList(list)
	}
}

// imageFields returns false when the node has neither source form.
func (n *normalizer) imageFields(obj, out map[string]any) bool {
	data, _ := firstString(obj, "imageData", "data")
	url, _ := firstString(obj, "imageUrl", "url")

	// A bare "src" carries either form.
	if src, ok := obj["src"].(string); ok {
		if strings.HasPrefix(src, "data:") && data == "" {
			data = src
		} else if data == "" && url == "" {
			url = src
		}
	}

	if strings.HasPrefix(data, "data:") {
		out["imageData"] = data
	}
	if url != "" && !strings.HasPrefix(url, "data:") {
		out["imageUrl"] = url
	}
	_, hasData := out["imageData"]
	_, hasURL := out["imageUrl"]
	return hasData || hasURL
}

// coerce resolves a numeric-looking field from a native number or a
// numeric string ("12", "12.5px"). String coercions are counted in the
// report.
func (n *normalizer) coerce(obj map[string]any, key string) (float64, bool) {
	v, ok := obj[key]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "px"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n.report.FieldsCoerced++
		return f, true
	}
	return 0, false
}

// firstString returns the first present string value among keys.
func firstString(obj map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
