package raster

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/sketchlift/pkg/canvas"
	"github.com/matzehuels/sketchlift/pkg/design"
)

// Snapshot paints the retained tree in attach order and returns the
// encoded PNG. Children paint over their parent; siblings paint in the
// order they were attached.
func (h *Host) Snapshot() ([]byte, error) {
	dc := gg.NewContext(h.width, h.height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	for _, root := range h.roots {
		h.paint(dc, root, 0, 0, 1)
	}
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (h *Host) paint(dc *gg.Context, o *object, offX, offY, opacity float64) {
	x, y := offX+o.x, offY+o.y
	op := opacity * o.opacity

	switch o.kind {
	case "frame", "rect":
		h.paintShape(dc, o, x, y, op, false)
	case "ellipse":
		h.paintShape(dc, o, x, y, op, true)
	case "text":
		h.paintText(dc, o, x, y, op)
	}

	positions := h.childOffsets(o)
	for i, c := range o.children {
		cx, cy := c.x, c.y
		if positions != nil {
			cx, cy = positions[i][0], positions[i][1]
		}
		h.paint(dc, c, x+cx-c.x, y+cy-c.y, op)
	}
}

// childOffsets computes positions for auto-layout frames, overriding the
// authored child positions with a linear flow. Returns nil when the frame
// has no layout.
func (h *Host) childOffsets(o *object) [][2]float64 {
	if o.layout == nil || o.layout.Mode == design.LayoutNone {
		return nil
	}
	l := o.layout
	positions := make([][2]float64, len(o.children))
	cx, cy := l.PaddingLeft, l.PaddingTop
	for i, c := range o.children {
		positions[i] = [2]float64{cx, cy}
		if l.Mode == design.LayoutHorizontal {
			cx += c.w + l.ItemSpacing
		} else {
			cy += c.h + l.ItemSpacing
		}
	}
	return positions
}

func (h *Host) shapePath(dc *gg.Context, o *object, x, y float64, ellipse bool) {
	switch {
	case ellipse:
		dc.DrawEllipse(x+o.w/2, y+o.h/2, o.w/2, o.h/2)
	case o.radius > 0:
		r := o.radius
		if max := minf(o.w, o.h) / 2; r > max {
			r = max
		}
		dc.DrawRoundedRectangle(x, y, o.w, o.h, r)
	default:
		dc.DrawRectangle(x, y, o.w, o.h)
	}
}

func (h *Host) paintShape(dc *gg.Context, o *object, x, y, opacity float64, ellipse bool) {
	if o.fill != nil {
		switch o.fill.Kind {
		case canvas.PaintSolid:
			c := o.fill.Color
			dc.SetRGBA(c.R, c.G, c.B, c.Opacity()*opacity)
			h.shapePath(dc, o, x, y, ellipse)
			dc.Fill()
		case canvas.PaintImage:
			h.paintImageFill(dc, o, x, y, opacity, ellipse)
		}
	}
	if o.stroke != nil && o.strokeW > 0 {
		c := o.stroke
		dc.SetRGBA(c.R, c.G, c.B, c.Opacity()*opacity)
		dc.SetLineWidth(o.strokeW)
		h.shapePath(dc, o, x, y, ellipse)
		dc.Stroke()
	}
}

func (h *Host) paintImageFill(dc *gg.Context, o *object, x, y, opacity float64, ellipse bool) {
	ri, ok := o.fill.Image.(rasterImage)
	if !ok {
		return
	}
	w, hh := int(o.w), int(o.h)
	if w <= 0 || hh <= 0 {
		return
	}
	// Cover-fit the image into the object bounds, clipped to its path.
	fitted := imaging.Fill(ri.img, w, hh, imaging.Center, imaging.Lanczos)
	dc.Push()
	h.shapePath(dc, o, x, y, ellipse)
	dc.Clip()
	dc.DrawImageAnchored(fitted, int(x)+w/2, int(y)+hh/2, 0.5, 0.5)
	dc.ResetClip()
	dc.Pop()
}

func (h *Host) paintText(dc *gg.Context, o *object, x, y, opacity float64) {
	face, err := h.faces.face(o.fontStyle, o.fontSize)
	if err != nil {
		return
	}
	dc.SetFontFace(face)
	c := o.textColor
	dc.SetRGBA(c.R, c.G, c.B, c.Opacity()*opacity)

	ax := 0.0
	align := gg.AlignLeft
	switch o.alignH {
	case design.AlignCenter:
		ax, align = 0.5, gg.AlignCenter
	case design.AlignRight, design.AlignJustified:
		ax, align = 1, gg.AlignRight
	}
	ay := 0.0
	switch o.alignV {
	case design.AlignMiddle:
		ay = 0.5
	case design.AlignBottom:
		ay = 1
	}

	tx := x + ax*o.w
	ty := y + ay*o.h
	dc.DrawStringWrapped(o.text, tx, ty, ax, ay, o.w, 1.2, align)
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
