package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sketchlift/pkg/cache"
	"github.com/matzehuels/sketchlift/pkg/canvas"
	"github.com/matzehuels/sketchlift/pkg/canvas/raster"
	"github.com/matzehuels/sketchlift/pkg/design"
	"github.com/matzehuels/sketchlift/pkg/design/normalize"
	"github.com/matzehuels/sketchlift/pkg/errors"
	"github.com/matzehuels/sketchlift/pkg/observability"
	"github.com/matzehuels/sketchlift/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete decode → normalize → validate → render
// pipeline on raw model output.
func (r *Runner) Execute(ctx context.Context, raw []byte, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1+2: Decode and normalize
	normStart := time.Now()
	doc, err := design.Decode(raw)
	if err != nil {
		return nil, err
	}
	doc, result.Repairs = normalize.Document(doc, opts.NormalizeOptions())
	result.Stats.NormalizeTime = time.Since(normStart)
	result.Stats.RepairCount = result.Repairs.Total()
	observability.Pipeline().OnNormalizeComplete(ctx, result.Repairs.Total(), result.Stats.NormalizeTime)

	opts.Logger.Info("normalized document",
		"coerced", result.Repairs.FieldsCoerced,
		"reclassified", result.Repairs.NodesReclassified,
		"dropped", result.Repairs.NodesDropped,
		"duration", result.Stats.NormalizeTime)

	// Stage 3: Validate
	valStart := time.Now()
	spec, err := design.Validate(doc)
	result.Stats.ValidateTime = time.Since(valStart)
	nodeCount := 0
	if spec != nil {
		nodeCount = spec.NodeCount()
	}
	observability.Pipeline().OnValidateComplete(ctx, nodeCount, result.Stats.ValidateTime, err)
	if err != nil {
		return nil, err
	}
	result.Spec = spec
	result.Stats.NodeCount = nodeCount

	opts.Logger.Info("validated design",
		"nodes", nodeCount,
		"duration", result.Stats.ValidateTime)

	// Compute spec hash for cache keys and API responses
	canonical, err := design.Marshal(spec)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "marshal canonical document")
	}
	result.SpecHash = cache.Hash(canonical)

	// Try to get all artifacts from cache (unless refresh requested)
	if !opts.Refresh && r.artifactsFromCache(ctx, result, opts) {
		result.CacheInfo.ArtifactHit = true
		return result, nil
	}

	// Stage 4: Render
	renderStart := time.Now()
	if err := r.produceArtifacts(ctx, result, canonical, opts); err != nil {
		return nil, err
	}
	result.Stats.RenderTime = time.Since(renderStart)

	// Cache each artifact
	for format, data := range result.Artifacts {
		key := r.Keyer.ArtifactKey(result.SpecHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
	}

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// artifactsFromCache tries to serve every requested format from cache.
// On a partial hit it reports false and leaves Artifacts untouched.
func (r *Runner) artifactsFromCache(ctx context.Context, result *Result, opts Options) bool {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(result.SpecHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			return false
		}
		artifacts[format] = data
	}
	result.Artifacts = artifacts
	return true
}

// snapshotter is implemented by surfaces that can export pixels.
type snapshotter interface {
	Snapshot() ([]byte, error)
}

// produceArtifacts renders the spec for each requested format.
func (r *Runner) produceArtifacts(ctx context.Context, result *Result, canonical []byte, opts Options) error {
	spec := result.Spec

	needsCanvas := opts.Canvas != nil
	for _, format := range opts.Formats {
		if format == FormatPNG {
			needsCanvas = true
		}
	}

	var surface canvas.Canvas
	if needsCanvas {
		surface = opts.Canvas
		if surface == nil {
			surface = raster.New(int(spec.Canvas.Width), int(spec.Canvas.Height))
		}
		renderer := render.New(surface,
			render.WithLogger(opts.Logger),
			render.WithHTTPClient(opts.HTTPClient),
			render.WithCache(r.Cache, r.Keyer),
			render.WithScreenshot(opts.Screenshot),
		)
		rr, err := renderer.Render(ctx, spec)
		if err != nil {
			return err
		}
		result.Render = rr
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			result.Artifacts[FormatJSON] = canonical
		case FormatDOT:
			dot, err := design.ToDOT(spec)
			if err != nil {
				return err
			}
			result.Artifacts[FormatDOT] = dot
		case FormatSVG:
			svg, err := design.RenderSVG(ctx, spec)
			if err != nil {
				return err
			}
			result.Artifacts[FormatSVG] = svg
		case FormatPNG:
			snap, ok := surface.(snapshotter)
			if !ok {
				return errors.New(errors.ErrCodeUnsupported, "canvas cannot export pixels")
			}
			png, err := snap.Snapshot()
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "export png")
			}
			result.Artifacts[FormatPNG] = png
		}
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
