// Package memory provides an in-memory canvas host.
//
// It implements the full [canvas.Canvas] capability with an inspectable
// object tree, which makes the renderer and coordinate resolver fully
// testable without a real surface. Failure injection flags simulate host
// operation failures and resource resolution failures.
package memory

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/sketchlift/pkg/canvas"
	"github.com/matzehuels/sketchlift/pkg/design"
)

// Object is one instantiated in-memory canvas object. Fields are exported
// for test assertions.
type Object struct {
	id   string
	Kind string // FRAME, RECT, ELLIPSE, TEXT
	Name string

	X, Y, W, H   float64
	Fill         *canvas.Paint
	StrokeColor  *design.Color
	StrokeWeight float64
	Opacity      float64
	CornerRadius *float64
	Layout       *canvas.Layout

	FontFamily string
	FontStyle  string
	FontSize   float64
	Characters string
	TextColor  *design.Color
	AlignH     string
	AlignV     string

	Parent   *Object
	Children []*Object
}

// ID returns the host-assigned object identifier.
func (o *Object) ID() string { return o.id }

// Host is an in-memory canvas. The zero value is not usable; call [New].
type Host struct {
	objects map[string]*Object
	created []*Object // creation order
	focused *Object

	// FontLoads records every LoadFont call in order, as "family/style"
	// keys. The renderer memoizes loads per render, so repeated keys
	// here indicate a memoization bug.
	FontLoads []string

	// Failure injection.
	FailResize   bool
	FailFontLoad bool
	FailDecode   bool
}

// New creates an empty in-memory host.
func New() *Host {
	return &Host{objects: map[string]*Object{}}
}

func (h *Host) create(kind, name string) (canvas.Object, error) {
	o := &Object{
		id:      uuid.NewString(),
		Kind:    kind,
		Name:    name,
		Opacity: 1,
	}
	h.objects[o.id] = o
	h.created = append(h.created, o)
	return o, nil
}

// CreateFrame creates a frame object.
func (h *Host) CreateFrame(name string) (canvas.Object, error) { return h.create("FRAME", name) }

// CreateRect creates a rectangle object.
func (h *Host) CreateRect(name string) (canvas.Object, error) { return h.create("RECT", name) }

// CreateEllipse creates an ellipse object.
func (h *Host) CreateEllipse(name string) (canvas.Object, error) { return h.create("ELLIPSE", name) }

// CreateText creates a text object.
func (h *Host) CreateText(name string) (canvas.Object, error) { return h.create("TEXT", name) }

func (h *Host) lookup(o canvas.Object) (*Object, error) {
	if o == nil {
		return nil, fmt.Errorf("nil object handle")
	}
	obj, ok := h.objects[o.ID()]
	if !ok {
		return nil, fmt.Errorf("unknown object %s", o.ID())
	}
	return obj, nil
}

// AppendChild attaches child as the last child of parent.
func (h *Host) AppendChild(parent, child canvas.Object) error {
	p, err := h.lookup(parent)
	if err != nil {
		return err
	}
	c, err := h.lookup(child)
	if err != nil {
		return err
	}
	c.Parent = p
	p.Children = append(p.Children, c)
	return nil
}

// SetPosition sets the object's parent-local position.
func (h *Host) SetPosition(o canvas.Object, x, y float64) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.X, obj.Y = x, y
	return nil
}

// Resize sets the object's size. With FailResize set it simulates a host
// rejecting the call (e.g. auto-size constraints on text).
func (h *Host) Resize(o canvas.Object, w, hgt float64) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	if h.FailResize && obj.Kind == "TEXT" {
		return fmt.Errorf("resize rejected by host")
	}
	obj.W, obj.H = w, hgt
	return nil
}

// SetFill sets the object's fill paint.
func (h *Host) SetFill(o canvas.Object, p canvas.Paint) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.Fill = &p
	return nil
}

// SetStroke sets the object's stroke color and weight.
func (h *Host) SetStroke(o canvas.Object, c design.Color, weight float64) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.StrokeColor = &c
	obj.StrokeWeight = weight
	return nil
}

// SetOpacity sets the object's layer opacity.
func (h *Host) SetOpacity(o canvas.Object, opacity float64) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.Opacity = opacity
	return nil
}

// SetCornerRadius sets the object's corner radius.
func (h *Host) SetCornerRadius(o canvas.Object, radius float64) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.CornerRadius = &radius
	return nil
}

// SetLayout sets automatic layout on a frame.
func (h *Host) SetLayout(o canvas.Object, l canvas.Layout) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.Layout = &l
	return nil
}

// LoadFont records the load request. With FailFontLoad set every load
// fails, exercising the renderer's degradation path.
func (h *Host) LoadFont(ctx context.Context, family, style string) error {
	key := family + "/" + style
	h.FontLoads = append(h.FontLoads, key)
	if h.FailFontLoad {
		return fmt.Errorf("font %s unavailable", key)
	}
	return nil
}

// SetFont sets the text object's font.
func (h *Host) SetFont(o canvas.Object, family, style string, size float64) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.FontFamily, obj.FontStyle, obj.FontSize = family, style, size
	return nil
}

// SetCharacters assigns the text content.
func (h *Host) SetCharacters(o canvas.Object, text string) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.Characters = text
	return nil
}

// SetTextColor sets the text color.
func (h *Host) SetTextColor(o canvas.Object, c design.Color) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.TextColor = &c
	return nil
}

// SetTextAlign sets the text alignment.
func (h *Host) SetTextAlign(o canvas.Object, horizontal, vertical string) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.AlignH, obj.AlignV = horizontal, vertical
	return nil
}

// memImage is the in-memory decoded image handle.
type memImage struct {
	w, h int
}

func (m memImage) Size() (int, int) { return m.w, m.h }

// DecodeImage decodes PNG/JPEG bytes. Dimensions come from the image
// header when present; opaque test payloads decode to a zero size.
func (h *Host) DecodeImage(data []byte) (canvas.Image, error) {
	if h.FailDecode {
		return nil, fmt.Errorf("decode failure injected")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	cfg, _, err := image.DecodeConfig(strings.NewReader(string(data)))
	if err != nil {
		return memImage{}, nil
	}
	return memImage{w: cfg.Width, h: cfg.Height}, nil
}

// Focus records the selected object.
func (h *Host) Focus(o canvas.Object) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	h.focused = obj
	return nil
}

// Focused returns the object selected on completion, or nil.
func (h *Host) Focused() *Object { return h.focused }

// Objects returns all created objects in creation order.
func (h *Host) Objects() []*Object { return h.created }

// Find returns the first object with the given name, or nil.
func (h *Host) Find(name string) *Object {
	for _, o := range h.created {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Ensure Host implements the capability.
var _ canvas.Canvas = (*Host)(nil)
