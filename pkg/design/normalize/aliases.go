package normalize

import (
	"strings"

	"github.com/matzehuels/sketchlift/pkg/design"
)

// typeAliases maps common generator spellings onto the five canonical
// kinds. Anything outside this table is dropped by the pipeline.
var typeAliases = map[string]design.NodeType{
	"rect":      design.TypeRect,
	"rectangle": design.TypeRect,
	"box":       design.TypeRect,
	"text":      design.TypeText,
	"label":     design.TypeText,
	"frame":     design.TypeFrame,
	"group":     design.TypeFrame,
	"container": design.TypeFrame,
	"ellipse":   design.TypeEllipse,
	"circle":    design.TypeEllipse,
	"oval":      design.TypeEllipse,
	"image":     design.TypeImage,
	"img":       design.TypeImage,
	"picture":   design.TypeImage,
}

func nodeType(obj map[string]any) (design.NodeType, bool) {
	tag, ok := obj["type"].(string)
	if !ok {
		return "", false
	}
	typ, ok := typeAliases[strings.ToLower(strings.TrimSpace(tag))]
	return typ, ok
}

func layoutMode(obj map[string]any) (string, bool) {
	s, ok := obj["layoutMode"].(string)
	if !ok {
		return "", false
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HORIZONTAL", "ROW":
		return string(design.LayoutHorizontal), true
	case "VERTICAL", "COLUMN":
		return string(design.LayoutVertical), true
	case "NONE":
		return string(design.LayoutNone), true
	}
	return "", false
}

// styleForWeight maps a numeric font weight onto the named style strings
// the canvas host understands.
func styleForWeight(w float64) string {
	switch {
	case w >= 700:
		return "Bold"
	case w >= 600:
		return "Semi Bold"
	case w >= 450:
		return "Medium"
	case w >= 300:
		return "Regular"
	default:
		return "Light"
	}
}

// alignH maps generic alignment keywords onto canonical horizontal values.
var alignH = map[string]string{
	"left":    design.AlignLeft,
	"start":   design.AlignLeft,
	"center":  design.AlignCenter,
	"centre":  design.AlignCenter,
	"middle":  design.AlignCenter,
	"right":   design.AlignRight,
	"end":     design.AlignRight,
	"justify": design.AlignJustified,
}

// alignV maps generic alignment keywords onto canonical vertical values.
var alignV = map[string]string{
	"top":    design.AlignTop,
	"center": design.AlignMiddle,
	"centre": design.AlignMiddle,
	"middle": design.AlignMiddle,
	"bottom": design.AlignBottom,
}

// textFields maps recognized alternate keys onto the canonical text keys.
// Unrecognized keys are dropped silently; unknown keys never propagate
// downstream.
func (n *normalizer) textFields(obj, out map[string]any) {
	if s, ok := firstString(obj, "text", "characters", "content"); ok {
		out["text"] = s
	}
	if s, ok := obj["fontFamily"].(string); ok && s != "" {
		out["fontFamily"] = s
	}

	if s, ok := obj["fontStyle"].(string); ok && s != "" {
		out["fontStyle"] = s
	} else if w, ok := n.coerce(obj, "fontWeight"); ok {
		// A numeric weight instead of a named style string.
		out["fontStyle"] = styleForWeight(w)
		n.report.FieldsCoerced++
	}

	if v, ok := n.coerce(obj, "fontSize"); ok && v > 0 {
		out["fontSize"] = v
	}
	if c, ok := n.color(obj["textColor"]); ok {
		out["textColor"] = c
	} else if c, ok := n.color(obj["color"]); ok {
		out["textColor"] = c
	}

	if s, ok := firstString(obj, "textAlignHorizontal", "textAlign", "align", "alignment"); ok {
		if canonical, ok := alignH[strings.ToLower(strings.TrimSpace(s))]; ok {
			out["textAlignHorizontal"] = canonical
		}
	}
	if s, ok := firstString(obj, "textAlignVertical", "verticalAlign"); ok {
		if canonical, ok := alignV[strings.ToLower(strings.TrimSpace(s))]; ok {
			out["textAlignVertical"] = canonical
		}
	}
}

// color repairs a color value: channel objects with 0-255 ranges are
// rescaled to [0,1], and hex strings are parsed. Returns false for
// anything unrecognizable.
func (n *normalizer) color(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		out := map[string]any{}
		scaled := false
		channels := map[string]float64{}
		for _, ch := range []string{"r", "g", "b"} {
			f, ok := n.coerce(t, ch)
			if !ok || f < 0 {
				return nil, false
			}
			if f > 1 {
				scaled = true
			}
			channels[ch] = f
		}
		for ch, f := range channels {
			if scaled {
				f = f / 255
				if f > 1 {
					return nil, false
				}
			}
			out[ch] = f
		}
		if scaled {
			n.report.FieldsCoerced++
		}
		if a, ok := n.coerce(t, "a"); ok && a >= 0 && a <= 1 {
			out["a"] = a
		}
		return out, true
	case string:
		c, ok := parseHexColor(t)
		if !ok {
			return nil, false
		}
		n.report.FieldsCoerced++
		return c, true
	}
	return nil, false
}

func parseHexColor(s string) (map[string]any, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return nil, false
	}
	var rgb [3]float64
	for i := 0; i < 3; i++ {
		hi, ok1 := hexVal(s[i*2])
		lo, ok2 := hexVal(s[i*2+1])
		if !ok1 || !ok2 {
			return nil, false
		}
		rgb[i] = float64(hi*16+lo) / 255
	}
	return map[string]any{"r": rgb[0], "g": rgb[1], "b": rgb[2]}, true
}

func hexVal(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10, true
	}
	return 0, false
}
