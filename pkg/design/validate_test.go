package design

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

// doc builds a decoded document from a JSON-ish literal map.
func doc(nodes ...map[string]any) map[string]any {
	list := make([]any, len(nodes))
	for i, n := range nodes {
		list[i] = any(n)
	}
	return map[string]any{
		"canvas": map[string]any{"name": "Test", "width": 800.0, "height": 600.0},
		"nodes":  list,
	}
}

func rect(x, y, w, h float64) map[string]any {
	return map[string]any{"type": "rect", "x": x, "y": y, "width": w, "height": h}
}

func TestValidateAccepts(t *testing.T) {
	spec, err := Validate(doc(
		rect(10, 10, 100, 50),
		map[string]any{
			"type": "frame", "name": "Panel",
			"x": 0.0, "y": 0.0, "width": 400.0, "height": 300.0,
			"children": []any{
				map[string]any{
					"type": "text", "x": 10.0, "y": 10.0, "width": 100.0, "height": 20.0,
					"text": "hi", "fontSize": 14.0,
					"textAlignHorizontal": "CENTER", "textAlignVertical": "TOP",
				},
			},
		},
		map[string]any{
			"type": "image", "x": 0.0, "y": 0.0, "width": 50.0, "height": 50.0,
			"imageUrl": "https://example.com/a.png",
		},
	))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if spec.Canvas.Name != "Test" || spec.Canvas.Width != 800 {
		t.Errorf("canvas = %+v", spec.Canvas)
	}
	if got := spec.NodeCount(); got != 4 {
		t.Errorf("NodeCount = %d, want 4", got)
	}

	frame := spec.Nodes[1]
	if frame.LayoutMode != LayoutNone {
		t.Errorf("default layout mode = %q, want NONE", frame.LayoutMode)
	}
	if frame.Children == nil {
		t.Error("frame children not materialized")
	}
	if frame.Children[0].AlignH != AlignCenter || frame.Children[0].AlignV != AlignTop {
		t.Errorf("text alignment = %q/%q", frame.Children[0].AlignH, frame.Children[0].AlignV)
	}

	// Non-frame nodes never get a children slice.
	if spec.Nodes[0].Children != nil {
		t.Error("rect grew children")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		wantPath string
	}{
		{"nil document", nil, "$"},
		{"missing canvas", map[string]any{"nodes": []any{}}, "canvas"},
		{
			"zero width canvas",
			map[string]any{"canvas": map[string]any{"width": 0.0, "height": 600.0}},
			"canvas.width",
		},
		{"unknown type", doc(map[string]any{"type": "polygon", "x": 0.0, "y": 0.0, "width": 1.0, "height": 1.0}), "nodes[0].type"},
		{"missing type", doc(map[string]any{"x": 0.0, "y": 0.0, "width": 1.0, "height": 1.0}), "nodes[0].type"},
		{"negative width", doc(rect(0, 0, -5, 10)), "nodes[0].width"},
		{"zero height", doc(rect(0, 0, 10, 0)), "nodes[0].height"},
		{"missing x", doc(map[string]any{"type": "rect", "y": 0.0, "width": 1.0, "height": 1.0}), "nodes[0].x"},
		{"string width", doc(map[string]any{"type": "rect", "x": 0.0, "y": 0.0, "width": "100", "height": 1.0}), "nodes[0].width"},
		{
			"opacity above one",
			doc(map[string]any{"type": "rect", "x": 0.0, "y": 0.0, "width": 1.0, "height": 1.0, "opacity": 1.5}),
			"nodes[0].opacity",
		},
		{
			"color channel out of range",
			doc(map[string]any{"type": "rect", "x": 0.0, "y": 0.0, "width": 1.0, "height": 1.0,
				"fill": map[string]any{"r": 2.0, "g": 0.0, "b": 0.0}}),
			"nodes[0].fill.r",
		},
		{
			"color missing channel",
			doc(map[string]any{"type": "rect", "x": 0.0, "y": 0.0, "width": 1.0, "height": 1.0,
				"fill": map[string]any{"r": 1.0, "g": 0.0}}),
			"nodes[0].fill.b",
		},
		{
			"image without source",
			doc(map[string]any{"type": "image", "x": 0.0, "y": 0.0, "width": 1.0, "height": 1.0}),
			"nodes[0]",
		},
		{
			"image with bad data uri",
			doc(map[string]any{"type": "image", "x": 0.0, "y": 0.0, "width": 1.0, "height": 1.0,
				"imageData": "data:image/gif;base64,AAAA"}),
			"nodes[0].imageData",
		},
		{
			"bad layout mode",
			doc(map[string]any{"type": "frame", "x": 0.0, "y": 0.0, "width": 1.0, "height": 1.0,
				"layoutMode": "GRID"}),
			"nodes[0].layoutMode",
		},
		{
			"bad alignment",
			doc(map[string]any{"type": "text", "x": 0.0, "y": 0.0, "width": 1.0, "height": 1.0,
				"textAlignHorizontal": "MIDDLE"}),
			"nodes[0].textAlignHorizontal",
		},
		{
			"nested child failure",
			doc(map[string]any{"type": "frame", "x": 0.0, "y": 0.0, "width": 400.0, "height": 300.0,
				"children": []any{rect(0, 0, 10, 10), rect(0, 0, -1, 10)}}),
			"nodes[0].children[1].width",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.raw)
			if err == nil {
				t.Fatal("expected schema violation")
			}
			var sv *SchemaViolation
			if !errors.As(err, &sv) {
				t.Fatalf("error type = %T", err)
			}
			if sv.Path != tt.wantPath {
				t.Errorf("violation path = %q, want %q", sv.Path, tt.wantPath)
			}
		})
	}
}

func TestValidateNonFiniteNumbers(t *testing.T) {
	// JSON cannot carry NaN/Inf, but decoded values can arrive from other
	// producers; they must never reach the geometry.
	nan := math.NaN()
	_, err := Validate(doc(map[string]any{"type": "rect", "x": nan, "y": 0.0, "width": 1.0, "height": 1.0}))
	if err == nil {
		t.Fatal("NaN accepted")
	}
	if !strings.Contains(err.Error(), "nodes[0].x") {
		t.Errorf("err = %v", err)
	}
}

func TestValidateDataURIWhitespace(t *testing.T) {
	_, err := Validate(doc(map[string]any{
		"type": "image", "x": 0.0, "y": 0.0, "width": 1.0, "height": 1.0,
		"imageData": "data:image/png;base64,iVBOR\nw0KGg o=",
	}))
	if err != nil {
		t.Fatalf("wrapped base64 rejected: %v", err)
	}
}

// TestValidateRoundTrip checks the canonical form is a fixed point:
// validate, marshal, decode, validate again, same document.
func TestValidateRoundTrip(t *testing.T) {
	spec, err := Validate(doc(
		rect(10, 10, 100, 50),
		map[string]any{
			"type": "frame", "name": "Panel",
			"x": 0.0, "y": 0.0, "width": 400.0, "height": 300.0,
			"layoutMode": "VERTICAL", "itemSpacing": 8.0, "paddingTop": 16.0,
			"children": []any{
				map[string]any{"type": "ellipse", "x": 5.0, "y": 5.0, "width": 20.0, "height": 20.0,
					"fill": map[string]any{"r": 0.5, "g": 0.25, "b": 1.0, "a": 0.9}},
			},
		},
	))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	data, err := Marshal(spec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	again, err := Validate(decoded)
	if err != nil {
		t.Fatalf("re-Validate: %v", err)
	}
	if !reflect.DeepEqual(spec, again) {
		t.Errorf("round trip changed the document:\nfirst:  %+v\nsecond: %+v", spec, again)
	}
}

func TestColorOpacity(t *testing.T) {
	c := Color{R: 1}
	if c.Opacity() != 1 {
		t.Errorf("nil alpha opacity = %v", c.Opacity())
	}
	a := 0.25
	c.Alpha = &a
	if c.Opacity() != 0.25 {
		t.Errorf("opacity = %v", c.Opacity())
	}
}

func TestSpecWalk(t *testing.T) {
	spec := &Spec{Nodes: []*Node{
		{Type: TypeFrame, Name: "a", Children: []*Node{
			{Type: TypeRect, Name: "b"},
			{Type: TypeFrame, Name: "c", Children: []*Node{{Type: TypeText, Name: "d"}}},
		}},
		{Type: TypeEllipse, Name: "e"},
	}}

	var order []string
	var depths []int
	spec.Walk(func(n *Node, depth int) {
		order = append(order, n.Name)
		depths = append(depths, depth)
	})
	if strings.Join(order, "") != "abcde" {
		t.Errorf("walk order = %v", order)
	}
	wantDepths := []int{0, 1, 1, 2, 0}
	if !reflect.DeepEqual(depths, wantDepths) {
		t.Errorf("depths = %v, want %v", depths, wantDepths)
	}
	if spec.NodeCount() != 5 {
		t.Errorf("NodeCount = %d", spec.NodeCount())
	}
}
