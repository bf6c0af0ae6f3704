// Package canvas defines the capability interface for the host surface
// that design trees are instantiated onto.
//
// The renderer only ever talks to the [Canvas] interface: create objects,
// append children, set geometry and paint, decode image bytes, load fonts.
// This keeps the instantiation logic testable against the in-memory host
// in [github.com/matzehuels/sketchlift/pkg/canvas/memory] and portable to
// real surfaces such as the raster host in
// [github.com/matzehuels/sketchlift/pkg/canvas/raster].
package canvas

import (
	"context"

	"github.com/matzehuels/sketchlift/pkg/design"
)

// Object is an opaque handle to one instantiated canvas object. Handles
// are only meaningful to the host that created them.
type Object interface {
	// ID returns the host-assigned identifier of the object.
	ID() string
}

// Image is an opaque handle to decoded image pixels, produced by
// [Canvas.DecodeImage] and consumed through an image [Paint].
type Image interface {
	// Size returns the pixel dimensions of the decoded image.
	Size() (w, h int)
}

// PaintKind discriminates the paint union.
type PaintKind int

// Paint kinds.
const (
	PaintSolid PaintKind = iota
	PaintImage
)

// Paint is a fill description: either a solid color or decoded image
// pixels scaled to the object's box.
type Paint struct {
	Kind  PaintKind
	Color design.Color
	Image Image
}

// Solid returns a solid-color paint.
func Solid(c design.Color) Paint {
	return Paint{Kind: PaintSolid, Color: c}
}

// ImageFill returns an image paint.
func ImageFill(img Image) Paint {
	return Paint{Kind: PaintImage, Image: img}
}

// Layout describes automatic linear child placement on a frame.
type Layout struct {
	Mode          design.LayoutMode
	ItemSpacing   float64
	PaddingLeft   float64
	PaddingRight  float64
	PaddingTop    float64
	PaddingBottom float64
}

// Canvas is the host surface capability. Implementations are stateful;
// all mutating calls refer to objects previously created on the same
// canvas. Methods are not required to be safe for concurrent use — the
// render walk is a single task.
type Canvas interface {
	// Object creation. The name is advisory (layer naming on real hosts).
	CreateFrame(name string) (Object, error)
	CreateRect(name string) (Object, error)
	CreateEllipse(name string) (Object, error)
	CreateText(name string) (Object, error)

	// AppendChild attaches child as the last child of parent. Later
	// children paint on top of earlier ones.
	AppendChild(parent, child Object) error

	// Geometry. Position is local to the object's parent.
	SetPosition(o Object, x, y float64) error
	Resize(o Object, w, h float64) error

	// Appearance.
	SetFill(o Object, p Paint) error
	SetStroke(o Object, c design.Color, weight float64) error
	SetOpacity(o Object, opacity float64) error
	SetCornerRadius(o Object, radius float64) error

	// Frame layout.
	SetLayout(o Object, l Layout) error

	// Text. SetCharacters must only be called after the object's font
	// has been loaded via LoadFont.
	LoadFont(ctx context.Context, family, style string) error
	SetFont(o Object, family, style string, size float64) error
	SetCharacters(o Object, text string) error
	SetTextColor(o Object, c design.Color) error
	SetTextAlign(o Object, horizontal, vertical string) error

	// DecodeImage turns encoded PNG/JPEG bytes into host pixels.
	DecodeImage(data []byte) (Image, error)

	// Focus selects the object as the observable completion side effect.
	Focus(o Object) error
}
