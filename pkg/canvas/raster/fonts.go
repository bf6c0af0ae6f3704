package raster

import (
	"fmt"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
)

// The raster host has no access to the fonts a real design surface ships
// with, so every family maps onto the embedded Go font in the style
// variant closest to the requested one.
var variants = map[string][]byte{
	"regular": goregular.TTF,
	"medium":  gomedium.TTF,
	"bold":    gobold.TTF,
	"italic":  goitalic.TTF,
}

func variantFor(style string) string {
	s := strings.ToLower(style)
	switch {
	case strings.Contains(s, "bold"):
		return "bold"
	case strings.Contains(s, "medium"), strings.Contains(s, "semi"):
		return "medium"
	case strings.Contains(s, "italic"), strings.Contains(s, "oblique"):
		return "italic"
	default:
		return "regular"
	}
}

type faceKey struct {
	variant string
	size    float64
}

// faceCache parses each TTF once and builds faces per size on demand.
type faceCache struct {
	mu     sync.Mutex
	parsed map[string]*truetype.Font
	faces  map[faceKey]font.Face
}

func newFaceCache() *faceCache {
	return &faceCache{
		parsed: map[string]*truetype.Font{},
		faces:  map[faceKey]font.Face{},
	}
}

// load parses the TTF backing a style variant.
func (fc *faceCache) load(style string) error {
	_, err := fc.fontFor(style)
	return err
}

func (fc *faceCache) fontFor(style string) (*truetype.Font, error) {
	variant := variantFor(style)
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if f, ok := fc.parsed[variant]; ok {
		return f, nil
	}
	ttf, ok := variants[variant]
	if !ok {
		return nil, fmt.Errorf("no font variant %q", variant)
	}
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse %s font: %w", variant, err)
	}
	fc.parsed[variant] = f
	return f, nil
}

// face returns a sized face for a style variant.
func (fc *faceCache) face(style string, size float64) (font.Face, error) {
	f, err := fc.fontFor(style)
	if err != nil {
		return nil, err
	}
	key := faceKey{variantFor(style), size}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if face, ok := fc.faces[key]; ok {
		return face, nil
	}
	face := truetype.NewFace(f, &truetype.Options{Size: size})
	fc.faces[key] = face
	return face, nil
}
