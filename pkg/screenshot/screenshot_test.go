package screenshot

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/matzehuels/sketchlift/pkg/errors"
)

// encodeTestImage produces a decodable payload with enough entropy to
// clear the size floor.
func encodeTestImage(t *testing.T, w, h int, format string) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 5), B: uint8(x ^ y), A: 255})
		}
	}
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestRead(t *testing.T) {
	data := encodeTestImage(t, 200, 150, "png")

	shot, err := Read(data, MIMEPNG)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if shot.Width != 200 || shot.Height != 150 {
		t.Errorf("size = %dx%d", shot.Width, shot.Height)
	}
	if shot.MIME != MIMEPNG {
		t.Errorf("mime = %q", shot.MIME)
	}
	if !bytes.Equal(shot.Data, data) {
		t.Error("payload not preserved")
	}
}

func TestReadJPEG(t *testing.T) {
	data := encodeTestImage(t, 160, 120, "jpeg")
	shot, err := Read(data, MIMEJPEG)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if shot.Width != 160 || shot.Height != 120 {
		t.Errorf("size = %dx%d", shot.Width, shot.Height)
	}
}

func TestReadRejects(t *testing.T) {
	valid := encodeTestImage(t, 200, 150, "png")

	tests := []struct {
		name     string
		data     []byte
		mime     string
		wantCode errors.Code
	}{
		{"unsupported mime", valid, "image/webp", errors.ErrCodeUnsupportedMIME},
		{"empty mime", valid, "", errors.ErrCodeUnsupportedMIME},
		{"tiny payload", []byte("png"), MIMEPNG, errors.ErrCodeInvalidInput},
		{"undecodable payload", bytes.Repeat([]byte("garbage! "), 40), MIMEPNG, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.data, tt.mime)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("code = %q, want %q", errors.GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestMIMEForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"shot.png", MIMEPNG},
		{"SHOT.PNG", MIMEPNG},
		{"page.jpg", MIMEJPEG},
		{"page.jpeg", MIMEJPEG},
		{"vector.svg", ""},
		{"noext", ""},
	}
	for _, tt := range tests {
		if got := MIMEForPath(tt.path); got != tt.want {
			t.Errorf("MIMEForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
