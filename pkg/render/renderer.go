// Package render instantiates a validated design tree onto a canvas host.
//
// The walk is depth-first in document order: one canvas object per node,
// attached to its resolved parent, with later siblings painting on top.
// Before recursing into a frame the walk decides whether that frame's
// children use canvas-absolute or parent-relative coordinates, because
// generating models mix both conventions freely.
//
// The whole render is one task. Suspension points occur only at font
// loads and remote image fetches; a node's own instantiation completes
// before its children are processed. Failures below the validator
// boundary degrade node-by-node — a failed fetch becomes a placeholder
// fill, a rejected host call is ignored at that call site — and partially
// instantiated output is never torn down.
package render

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sketchlift/pkg/cache"
	"github.com/matzehuels/sketchlift/pkg/canvas"
	"github.com/matzehuels/sketchlift/pkg/design"
	"github.com/matzehuels/sketchlift/pkg/errors"
	"github.com/matzehuels/sketchlift/pkg/observability"
	"github.com/matzehuels/sketchlift/pkg/screenshot"
)

// Pill-radius inference: a rect with a fill, no explicit radius, height
// at most pillMaxHeight and width at least pillMinRatio times its height
// gets a fully rounded radius of height/2. This recovers badge and tag
// visuals whose radius the model omitted.
const (
	pillMaxHeight = 28.0
	pillMinRatio  = 1.6
)

// Renderer drives a canvas host. A single Renderer can run multiple
// renders; per-render state (font memoization) is scoped to one Render
// call.
type Renderer struct {
	canvas canvas.Canvas
	logger *log.Logger
	client *http.Client
	cache  cache.Cache
	keyer  cache.Keyer
	shot   *screenshot.Screenshot
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger. Default discards.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// WithHTTPClient sets the client used for remote image fetches. A nil
// client keeps the default.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Renderer) {
		if c != nil {
			r.client = c
		}
	}
}

// WithCache enables caching of fetched remote image bytes.
func WithCache(c cache.Cache, k cache.Keyer) Option {
	return func(r *Renderer) {
		if c != nil {
			r.cache = c
		}
		if k != nil {
			r.keyer = k
		}
	}
}

// WithScreenshot paints the source screenshot as a background layer
// beneath the generated content.
func WithScreenshot(s *screenshot.Screenshot) Option {
	return func(r *Renderer) { r.shot = s }
}

// New creates a Renderer for the given canvas host.
func New(c canvas.Canvas, opts ...Option) *Renderer {
	r := &Renderer{
		canvas: c,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		client: http.DefaultClient,
		cache:  cache.NewNullCache(),
		keyer:  cache.NewDefaultKeyer(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result reports what one render produced.
type Result struct {
	// Root is the outer container object.
	Root canvas.Object

	// Objects is the number of drawable objects instantiated for
	// document nodes (the root container, overlay, and screenshot
	// backdrop are not counted).
	Objects int

	// ImageFallbacks counts image nodes that degraded to a placeholder
	// fill.
	ImageFallbacks int

	// SkippedNodes counts nodes (with their subtrees) abandoned because
	// the host could not create or attach them.
	SkippedNodes int

	// Duration is the wall time of the walk.
	Duration time.Duration
}

// Render instantiates the document onto the host. Only the top level can
// fail: a host that cannot create the root container, or a cancelled
// context. Everything below degrades per node.
func (r *Renderer) Render(ctx context.Context, spec *design.Spec) (*Result, error) {
	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, spec.NodeCount())

	t := &task{
		r:      r,
		fonts:  newFontLoader(r.canvas),
		images: &imageResolver{canvas: r.canvas, client: r.client, cache: r.cache, keyer: r.keyer},
		result: &Result{},
	}

	root, err := t.createSurface(ctx, spec)
	if err != nil {
		observability.Pipeline().OnRenderComplete(ctx, 0, time.Since(start), err)
		return nil, err
	}
	t.result.Root = root

	// Completion triggers selection on the root as an observable side
	// effect; a host refusing it is not a render failure.
	if err := r.canvas.Focus(root); err != nil {
		r.logger.Debug("focus rejected by host", "err", err)
	}

	t.result.Duration = time.Since(start)
	observability.Pipeline().OnRenderComplete(ctx, t.result.Objects, t.result.Duration, nil)
	r.logger.Info("instantiated design",
		"objects", t.result.Objects,
		"image_fallbacks", t.result.ImageFallbacks,
		"skipped", t.result.SkippedNodes,
		"duration", t.result.Duration)
	return t.result, nil
}

// task carries per-render state through the walk.
type task struct {
	r      *Renderer
	fonts  *fontLoader
	images *imageResolver
	result *Result
}

// createSurface builds the root container and inner content overlay sized
// to the spec's canvas, paints the optional screenshot beneath the
// overlay, and instantiates the document nodes into the overlay.
func (t *task) createSurface(ctx context.Context, spec *design.Spec) (canvas.Object, error) {
	c := t.r.canvas

	name := spec.Canvas.Name
	if name == "" {
		name = "Generated Design"
	}
	root, err := c.CreateFrame(name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create root container")
	}
	t.host(c.Resize(root, spec.Canvas.Width, spec.Canvas.Height))
	t.host(c.SetFill(root, canvas.Solid(design.Color{R: 1, G: 1, B: 1})))

	if t.r.shot != nil {
		t.backdrop(ctx, root, spec)
	}

	overlay, err := c.CreateFrame("Content")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create content overlay")
	}
	t.host(c.Resize(overlay, spec.Canvas.Width, spec.Canvas.Height))
	t.host(c.SetPosition(overlay, 0, 0))
	alpha := 0.0
	t.host(c.SetFill(overlay, canvas.Solid(design.Color{R: 1, G: 1, B: 1, Alpha: &alpha})))
	if err := c.AppendChild(root, overlay); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "attach content overlay")
	}

	box := frameBox{AbsX: 0, AbsY: 0, W: spec.Canvas.Width, H: spec.Canvas.Height}
	preferred := preferredMode(spec.Nodes, box)
	for _, n := range spec.Nodes {
		t.instantiate(ctx, n, overlay, box, preferred)
	}
	return root, nil
}

// backdrop paints the source screenshot as the bottom layer of the root.
func (t *task) backdrop(ctx context.Context, root canvas.Object, spec *design.Spec) {
	c := t.r.canvas
	img, err := c.DecodeImage(t.r.shot.Data)
	if err != nil {
		t.r.logger.Warn("screenshot backdrop dropped", "err", err)
		return
	}
	bg, err := c.CreateRect("Screenshot")
	if err != nil {
		t.r.logger.Warn("screenshot backdrop dropped", "err", err)
		return
	}
	t.host(c.Resize(bg, spec.Canvas.Width, spec.Canvas.Height))
	t.host(c.SetPosition(bg, 0, 0))
	t.host(c.SetFill(bg, canvas.ImageFill(img)))
	if err := c.AppendChild(root, bg); err != nil {
		t.r.logger.Warn("screenshot backdrop dropped", "err", err)
	}
}

// instantiate creates the canvas object for one node, waits for its
// resources, attaches it to the parent, then processes children. A node
// the host refuses is skipped with its whole subtree; the parent's other
// children are unaffected.
func (t *task) instantiate(ctx context.Context, n *design.Node, parent canvas.Object, p frameBox, preferred CoordMode) {
	c := t.r.canvas

	obj, err := t.create(n)
	if err != nil {
		t.r.logger.Warn("node skipped", "node", n.Name, "type", n.Type, "err", err)
		t.result.SkippedNodes++
		return
	}

	x, y := resolveLocal(n, p, preferred)
	t.host(c.Resize(obj, n.Width, n.Height))
	t.host(c.SetPosition(obj, x, y))
	if n.Opacity != nil {
		t.host(c.SetOpacity(obj, *n.Opacity))
	}

	switch n.Type {
	case design.TypeRect, design.TypeEllipse:
		t.paintShape(n, obj)
	case design.TypeText:
		t.paintText(ctx, n, obj)
	case design.TypeImage:
		t.paintImage(ctx, n, obj)
	case design.TypeFrame:
		t.paintFrame(n, obj)
	}

	// Attach in document order: the node's own instantiation, including
	// any resource wait above, is complete before the next sibling
	// starts, so later entries paint on top.
	if err := c.AppendChild(parent, obj); err != nil {
		t.r.logger.Warn("node skipped", "node", n.Name, "type", n.Type, "err", err)
		t.result.SkippedNodes++
		return
	}
	t.result.Objects++

	if n.IsFrame() {
		childBox := frameBox{AbsX: p.AbsX + x, AbsY: p.AbsY + y, W: n.Width, H: n.Height}
		childMode := preferredMode(n.Children, childBox)
		for _, child := range n.Children {
			t.instantiate(ctx, child, obj, childBox, childMode)
		}
	}
}

func (t *task) create(n *design.Node) (canvas.Object, error) {
	switch n.Type {
	case design.TypeText:
		return t.r.canvas.CreateText(n.Name)
	case design.TypeFrame:
		return t.r.canvas.CreateFrame(n.Name)
	case design.TypeEllipse:
		return t.r.canvas.CreateEllipse(n.Name)
	default:
		// Image nodes become rectangles carrying an image fill.
		return t.r.canvas.CreateRect(n.Name)
	}
}

// paintShape fills and strokes a rect or ellipse. The default fill is
// fully transparent white. A stroke is applied only when both the stroke
// color and a stroke width are present.
func (t *task) paintShape(n *design.Node, obj canvas.Object) {
	c := t.r.canvas

	fill := n.Fill
	if fill == nil {
		alpha := 0.0
		fill = &design.Color{R: 1, G: 1, B: 1, Alpha: &alpha}
	}
	t.host(c.SetFill(obj, canvas.Solid(*fill)))

	if n.Stroke != nil && n.StrokeWidth != nil {
		t.host(c.SetStroke(obj, *n.Stroke, *n.StrokeWidth))
	}

	switch {
	case n.CornerRadius != nil:
		t.host(c.SetCornerRadius(obj, *n.CornerRadius))
	case n.Type == design.TypeRect && n.Fill != nil &&
		n.Height <= pillMaxHeight && n.Width >= pillMinRatio*n.Height:
		t.host(c.SetCornerRadius(obj, n.Height/2))
	}
}

// paintText resolves and loads the font (a suspension point), then
// assigns characters and styling. Resize failures caused by auto-sizing
// constraints are ignored.
func (t *task) paintText(ctx context.Context, n *design.Node, obj canvas.Object) {
	c := t.r.canvas

	font, ok := t.fonts.resolve(ctx, n.FontFamily, n.FontStyle)
	if !ok {
		t.r.logger.Warn("no loadable font, characters skipped", "node", n.Name)
		return
	}
	size := 14.0
	if n.FontSize != nil {
		size = *n.FontSize
	}
	t.host(c.SetFont(obj, font.family, font.style, size))
	t.host(c.SetCharacters(obj, n.Text))
	if n.TextColor != nil {
		t.host(c.SetTextColor(obj, *n.TextColor))
	}
	if n.AlignH != "" || n.AlignV != "" {
		t.host(c.SetTextAlign(obj, n.AlignH, n.AlignV))
	}
	// Best-effort resize to the requested box; hosts with auto-sizing
	// text may reject it.
	t.host(c.Resize(obj, n.Width, n.Height))
}

// paintImage resolves a paint from embedded data or a remote reference
// (a suspension point). Failure degrades to a neutral gray fallback.
func (t *task) paintImage(ctx context.Context, n *design.Node, obj canvas.Object) {
	paint, err := t.images.resolve(ctx, n)
	if err != nil {
		t.r.logger.Warn("image degraded to placeholder", "node", n.Name, "err", err)
		paint = placeholderFill()
		t.result.ImageFallbacks++
	}
	t.host(t.r.canvas.SetFill(obj, paint))

	if n.CornerRadius != nil {
		t.host(t.r.canvas.SetCornerRadius(obj, *n.CornerRadius))
	}
}

// paintFrame applies background and optional automatic linear layout.
func (t *task) paintFrame(n *design.Node, obj canvas.Object) {
	c := t.r.canvas

	if n.Fill != nil {
		t.host(c.SetFill(obj, canvas.Solid(*n.Fill)))
	} else {
		alpha := 0.0
		t.host(c.SetFill(obj, canvas.Solid(design.Color{R: 1, G: 1, B: 1, Alpha: &alpha})))
	}
	if n.CornerRadius != nil {
		t.host(c.SetCornerRadius(obj, *n.CornerRadius))
	}
	if n.LayoutMode != design.LayoutNone && n.LayoutMode != "" {
		t.host(c.SetLayout(obj, canvas.Layout{
			Mode:          n.LayoutMode,
			ItemSpacing:   n.ItemSpacing,
			PaddingLeft:   n.PaddingLeft,
			PaddingRight:  n.PaddingRight,
			PaddingTop:    n.PaddingTop,
			PaddingBottom: n.PaddingBottom,
		}))
	}
}

// host handles a host operation result: failures are logged and ignored
// at the single call site, never escalated to the subtree.
func (t *task) host(err error) {
	if err != nil {
		t.r.logger.Debug("host operation ignored", "err", err)
	}
}
