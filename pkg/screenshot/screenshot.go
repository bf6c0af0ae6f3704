// Package screenshot handles ingestion of the source screenshot a design
// document was generated from.
//
// The screenshot is optional render input: when present, the renderer
// paints it as a background layer beneath the generated content overlay
// so the result can be compared against the original.
package screenshot

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/sketchlift/pkg/errors"
)

// minSize is the smallest accepted payload. Anything below this cannot be
// a real screen capture and is rejected before decoding.
const minSize = 128

// Accepted MIME types.
const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
)

// Screenshot is validated, decodable screenshot input.
type Screenshot struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Read validates raw screenshot bytes with their declared MIME type.
// The payload must be PNG or JPEG, non-trivially sized, and decodable.
func Read(data []byte, mime string) (*Screenshot, error) {
	if mime != MIMEPNG && mime != MIMEJPEG {
		return nil, errors.New(errors.ErrCodeUnsupportedMIME, "unsupported screenshot type %q (want image/png or image/jpeg)", mime)
	}
	if len(data) < minSize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "screenshot payload too small (%d bytes)", len(data))
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "undecodable screenshot")
	}
	b := img.Bounds()
	return &Screenshot{
		Data:   data,
		MIME:   mime,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// MIMEForPath guesses the declared type from a file extension. Returns ""
// for anything that is not .png/.jpg/.jpeg.
func MIMEForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return MIMEPNG
	case ".jpg", ".jpeg":
		return MIMEJPEG
	}
	return ""
}
