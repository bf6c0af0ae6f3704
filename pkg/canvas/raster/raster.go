// Package raster implements the canvas capability on an in-process
// raster surface.
//
// Objects are kept as a retained tree and painted with fogleman/gg when
// the caller asks for pixels, so the host supports the same create/attach
// /set call sequence as a real design surface. Text uses the embedded Go
// fonts; images are decoded and scaled with disintegration/imaging.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/matzehuels/sketchlift/pkg/canvas"
	"github.com/matzehuels/sketchlift/pkg/design"
)

type object struct {
	id   string
	kind string
	name string

	x, y, w, h float64
	fill       *canvas.Paint
	stroke     *design.Color
	strokeW    float64
	opacity    float64
	radius     float64
	layout     *canvas.Layout

	fontStyle string
	fontSize  float64
	text      string
	textColor design.Color
	alignH    string
	alignV    string

	parent   *object
	children []*object
}

func (o *object) ID() string { return o.id }

type rasterImage struct {
	img image.Image
}

func (r rasterImage) Size() (int, int) {
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

// Host is a raster canvas of fixed pixel dimensions.
type Host struct {
	width, height int
	objects       map[string]*object
	roots         []*object
	faces         *faceCache
}

// New creates a raster host with the given pixel dimensions.
func New(width, height int) *Host {
	return &Host{
		width:   width,
		height:  height,
		objects: map[string]*object{},
		faces:   newFaceCache(),
	}
}

func (h *Host) create(kind, name string) (canvas.Object, error) {
	o := &object{
		id:        uuid.NewString(),
		kind:      kind,
		name:      name,
		opacity:   1,
		fontSize:  14,
		textColor: design.Color{},
	}
	h.objects[o.id] = o
	h.roots = append(h.roots, o)
	return o, nil
}

// CreateFrame creates a frame object.
func (h *Host) CreateFrame(name string) (canvas.Object, error) { return h.create("frame", name) }

// CreateRect creates a rectangle object.
func (h *Host) CreateRect(name string) (canvas.Object, error) { return h.create("rect", name) }

// CreateEllipse creates an ellipse object.
func (h *Host) CreateEllipse(name string) (canvas.Object, error) { return h.create("ellipse", name) }

// CreateText creates a text object.
func (h *Host) CreateText(name string) (canvas.Object, error) { return h.create("text", name) }

func (h *Host) lookup(o canvas.Object) (*object, error) {
	if o == nil {
		return nil, fmt.Errorf("nil object handle")
	}
	obj, ok := h.objects[o.ID()]
	if !ok {
		return nil, fmt.Errorf("unknown object %s", o.ID())
	}
	return obj, nil
}

// AppendChild attaches child as the last child of parent, removing it
// from the root set.
func (h *Host) AppendChild(parent, child canvas.Object) error {
	p, err := h.lookup(parent)
	if err != nil {
		return err
	}
	c, err := h.lookup(child)
	if err != nil {
		return err
	}
	c.parent = p
	p.children = append(p.children, c)
	for i, r := range h.roots {
		if r == c {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			break
		}
	}
	return nil
}

// SetPosition sets the parent-local position.
func (h *Host) SetPosition(o canvas.Object, x, y float64) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.x, obj.y = x, y
	return nil
}

// Resize sets the object size.
func (h *Host) Resize(o canvas.Object, w, hgt float64) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.w, obj.h = w, hgt
	return nil
}

// SetFill sets the fill paint.
func (h *Host) SetFill(o canvas.Object, p canvas.Paint) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.fill = &p
	return nil
}

// SetStroke sets the stroke color and weight.
func (h *Host) SetStroke(o canvas.Object, c design.Color, weight float64) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.stroke = &c
	obj.strokeW = weight
	return nil
}

// SetOpacity sets the layer opacity.
func (h *Host) SetOpacity(o canvas.Object, opacity float64) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.opacity = opacity
	return nil
}

// SetCornerRadius sets the corner radius.
func (h *Host) SetCornerRadius(o canvas.Object, radius float64) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.radius = radius
	return nil
}

// SetLayout sets automatic layout on a frame.
func (h *Host) SetLayout(o canvas.Object, l canvas.Layout) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.layout = &l
	return nil
}

// LoadFont parses the embedded variant backing the style. The family is
// accepted as-is; only the style picks the variant.
func (h *Host) LoadFont(ctx context.Context, family, style string) error {
	return h.faces.load(style)
}

// SetFont sets the text object's font.
func (h *Host) SetFont(o canvas.Object, family, style string, size float64) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.fontStyle = style
	obj.fontSize = size
	return nil
}

// SetCharacters assigns the text content.
func (h *Host) SetCharacters(o canvas.Object, text string) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.text = text
	return nil
}

// SetTextColor sets the text color.
func (h *Host) SetTextColor(o canvas.Object, c design.Color) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.textColor = c
	return nil
}

// SetTextAlign sets the text alignment.
func (h *Host) SetTextAlign(o canvas.Object, horizontal, vertical string) error {
	obj, err := h.lookup(o)
	if err != nil {
		return err
	}
	obj.alignH, obj.alignV = horizontal, vertical
	return nil
}

// DecodeImage decodes PNG/JPEG bytes into host pixels.
func (h *Host) DecodeImage(data []byte) (canvas.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return rasterImage{img: img}, nil
}

// Focus is a no-op on a raster surface.
func (h *Host) Focus(o canvas.Object) error {
	_, err := h.lookup(o)
	return err
}

// Ensure Host implements the capability.
var _ canvas.Canvas = (*Host)(nil)
