package raster

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/matzehuels/sketchlift/pkg/canvas"
	"github.com/matzehuels/sketchlift/pkg/design"
)

func snapshotImage(t *testing.T, h *Host) image.Image {
	t.Helper()
	data, err := h.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return img
}

func rgbAt(img image.Image, x, y int) (uint8, uint8, uint8) {
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return c.R, c.G, c.B
}

func TestSnapshotDimensions(t *testing.T) {
	h := New(320, 240)
	img := snapshotImage(t, h)
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("snapshot size = %dx%d", b.Dx(), b.Dy())
	}
	// An empty surface is white.
	if r, g, b := rgbAt(img, 10, 10); r != 255 || g != 255 || b != 255 {
		t.Errorf("background = %d/%d/%d", r, g, b)
	}
}

func TestSnapshotSolidFill(t *testing.T) {
	h := New(100, 100)
	rect, err := h.CreateRect("box")
	if err != nil {
		t.Fatalf("CreateRect: %v", err)
	}
	if err := h.Resize(rect, 40, 40); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if err := h.SetPosition(rect, 10, 10); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if err := h.SetFill(rect, canvas.Solid(design.Color{R: 1, G: 0, B: 0})); err != nil {
		t.Fatalf("SetFill: %v", err)
	}

	img := snapshotImage(t, h)
	if r, g, b := rgbAt(img, 30, 30); r != 255 || g != 0 || b != 0 {
		t.Errorf("inside rect = %d/%d/%d, want red", r, g, b)
	}
	if r, g, b := rgbAt(img, 70, 70); r != 255 || g != 255 || b != 255 {
		t.Errorf("outside rect = %d/%d/%d, want white", r, g, b)
	}
}

func TestSnapshotChildTranslation(t *testing.T) {
	h := New(100, 100)
	frame, _ := h.CreateFrame("frame")
	h.Resize(frame, 80, 80)
	h.SetPosition(frame, 20, 20)

	child, _ := h.CreateRect("child")
	h.Resize(child, 10, 10)
	h.SetPosition(child, 5, 5)
	h.SetFill(child, canvas.Solid(design.Color{R: 0, G: 0, B: 1}))
	if err := h.AppendChild(frame, child); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}

	img := snapshotImage(t, h)
	// Child paints at frame origin plus its local position.
	if r, g, b := rgbAt(img, 27, 27); r != 0 || g != 0 || b != 255 {
		t.Errorf("child pixel = %d/%d/%d, want blue", r, g, b)
	}
	// Its local coordinates alone hit empty surface.
	if r, g, b := rgbAt(img, 7, 7); r != 255 || g != 255 || b != 255 {
		t.Errorf("untranslated position = %d/%d/%d, want white", r, g, b)
	}
}

func TestSnapshotAutoLayout(t *testing.T) {
	h := New(200, 200)
	frame, _ := h.CreateFrame("frame")
	h.Resize(frame, 200, 200)
	h.SetPosition(frame, 0, 0)
	h.SetLayout(frame, canvas.Layout{
		Mode:        design.LayoutVertical,
		ItemSpacing: 5,
		PaddingLeft: 10,
		PaddingTop:  10,
	})

	for _, col := range []design.Color{{R: 1}, {G: 1}} {
		c, _ := h.CreateRect("item")
		h.Resize(c, 50, 20)
		// Authored positions are ignored under auto layout.
		h.SetPosition(c, 150, 150)
		h.SetFill(c, canvas.Solid(col))
		if err := h.AppendChild(frame, c); err != nil {
			t.Fatalf("AppendChild: %v", err)
		}
	}

	img := snapshotImage(t, h)
	// First child flows to (10, 10), second to (10, 35).
	if r, g, b := rgbAt(img, 20, 15); r != 255 || g != 0 || b != 0 {
		t.Errorf("first item = %d/%d/%d, want red", r, g, b)
	}
	if r, g, b := rgbAt(img, 20, 40); r != 0 || g != 255 || b != 0 {
		t.Errorf("second item = %d/%d/%d, want green", r, g, b)
	}
	// The authored position stays empty.
	if r, g, b := rgbAt(img, 180, 145); r != 255 || g != 255 || b != 255 {
		t.Errorf("authored position = %d/%d/%d, want white", r, g, b)
	}
}

func TestDecodeImage(t *testing.T) {
	var buf bytes.Buffer
	src := image.NewNRGBA(image.Rect(0, 0, 12, 8))
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}

	img, err := New(10, 10).DecodeImage(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if w, h := img.Size(); w != 12 || h != 8 {
		t.Errorf("size = %dx%d", w, h)
	}

	if _, err := New(10, 10).DecodeImage([]byte("not an image")); err == nil {
		t.Error("garbage decoded")
	}
}

func TestLoadFontStyles(t *testing.T) {
	h := New(10, 10)
	ctx := context.Background()
	for _, style := range []string{"Regular", "Bold", "Medium", "Italic", "Unknown Style"} {
		if err := h.LoadFont(ctx, "Inter", style); err != nil {
			t.Errorf("LoadFont(%q): %v", style, err)
		}
	}
}
