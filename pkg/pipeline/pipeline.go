// Package pipeline provides the core generation pipeline for Sketchlift.
//
// This package implements the complete decode → normalize → validate →
// render flow that can be used by CLI and server components. Centralizing
// the flow keeps behavior consistent across entry points.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Decode: Extract a JSON document from raw model output
//  2. Normalize: Repair loose output into canonical form
//  3. Validate: Enforce the design schema, all-or-nothing
//  4. Render: Instantiate the design on a canvas and export artifacts
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Formats: []string{"png"},
//	}
//	result, err := runner.Execute(ctx, rawBytes, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts["png"]
package pipeline

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sketchlift/pkg/cache"
	"github.com/matzehuels/sketchlift/pkg/canvas"
	"github.com/matzehuels/sketchlift/pkg/design"
	"github.com/matzehuels/sketchlift/pkg/design/normalize"
	"github.com/matzehuels/sketchlift/pkg/render"
	"github.com/matzehuels/sketchlift/pkg/screenshot"
)

// Default canvas dimensions used when the document carries none.
const (
	DefaultWidth  = 800.0
	DefaultHeight = 600.0

	// DefaultCanvasName names synthesized canvases.
	DefaultCanvasName = "Generated Design"
)

// Format constants for output formats.
const (
	FormatPNG  = "png"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// Options contains all configuration for the generation pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Canvas fallbacks applied during normalization when the document
	// carries no canvas block.
	CanvasName string  `json:"canvas_name,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Refresh bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger     *log.Logger            `json:"-"`
	HTTPClient *http.Client           `json:"-"`
	Canvas     canvas.Canvas          `json:"-"` // override target surface, raster by default
	Screenshot *screenshot.Screenshot `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Spec is the validated canonical design.
	Spec *design.Spec

	// SpecHash is the content hash of the canonical document.
	SpecHash string

	// Repairs tallies normalization repairs.
	Repairs normalize.Report

	// Render carries instantiation results (object count, fallbacks).
	// Nil when every requested artifact came from cache.
	Render *render.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount     int
	RepairCount   int
	NormalizeTime time.Duration
	ValidateTime  time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for the artifact stage.
type CacheInfo struct {
	ArtifactHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: png, json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks fields and applies defaults for the full
// pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.CanvasName == "" {
		o.CanvasName = DefaultCanvasName
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Width < 0 || o.Height < 0 {
		return fmt.Errorf("canvas dimensions must be positive")
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// NormalizeOptions returns the canvas fallbacks for the normalizer.
func (o *Options) NormalizeOptions() normalize.Options {
	return normalize.Options{
		CanvasName:   o.CanvasName,
		CanvasWidth:  o.Width,
		CanvasHeight: o.Height,
	}
}

// ArtifactKeyOpts returns cache key options for a rendered artifact.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format: format,
		Width:  o.Width,
		Height: o.Height,
	}
	if o.Screenshot != nil {
		opts.Screenshot = cache.Hash(o.Screenshot.Data)
	}
	return opts
}
