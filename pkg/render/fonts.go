package render

import (
	"context"

	"github.com/matzehuels/sketchlift/pkg/canvas"
)

// Default font used when a text node names none, and as the fallback when
// the requested font fails to load.
const (
	DefaultFontFamily = "Inter"
	DefaultFontStyle  = "Regular"
)

type fontKey struct {
	family, style string
}

// fontLoader memoizes host font loads for the lifetime of one render
// invocation. The memo stores the load result, so a failing font is also
// only attempted once per render.
type fontLoader struct {
	canvas canvas.Canvas
	loaded map[fontKey]error
}

func newFontLoader(c canvas.Canvas) *fontLoader {
	return &fontLoader{canvas: c, loaded: map[fontKey]error{}}
}

func (l *fontLoader) ensure(ctx context.Context, family, style string) error {
	key := fontKey{family, style}
	if err, ok := l.loaded[key]; ok {
		return err
	}
	err := l.canvas.LoadFont(ctx, family, style)
	l.loaded[key] = err
	return err
}

// resolve picks the font for a text node, loading it on the host. A
// failed load degrades to the default font; if even that fails the zero
// key is returned and the caller skips assigning characters.
func (l *fontLoader) resolve(ctx context.Context, family, style string) (fontKey, bool) {
	if family == "" {
		family = DefaultFontFamily
	}
	if style == "" {
		style = DefaultFontStyle
	}
	if err := l.ensure(ctx, family, style); err == nil {
		return fontKey{family, style}, true
	}
	fallback := fontKey{DefaultFontFamily, DefaultFontStyle}
	if err := l.ensure(ctx, fallback.family, fallback.style); err == nil {
		return fallback, true
	}
	return fontKey{}, false
}
