package render

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/matzehuels/sketchlift/pkg/cache"
	"github.com/matzehuels/sketchlift/pkg/canvas"
	"github.com/matzehuels/sketchlift/pkg/design"
	"github.com/matzehuels/sketchlift/pkg/errors"
	"github.com/matzehuels/sketchlift/pkg/observability"
)

// maxImageBytes bounds a fetched remote image. Generated documents point
// at arbitrary URLs; anything bigger than this is not a UI asset.
const maxImageBytes = 16 << 20

var dataURIRe = regexp.MustCompile(`(?s)^data:image/(png|jpeg);base64,(.+)$`)

// imageResolver lazily turns image node sources into paints. Fetch
// results are cached by URL when a cache is configured; fetches are
// single-attempt — a failed fetch degrades to a placeholder at the call
// site rather than retrying.
type imageResolver struct {
	canvas canvas.Canvas
	client *http.Client
	cache  cache.Cache
	keyer  cache.Keyer
}

// resolve produces an image paint from a node's embedded data or remote
// reference.
func (ir *imageResolver) resolve(ctx context.Context, n *design.Node) (canvas.Paint, error) {
	data, err := ir.sourceBytes(ctx, n)
	if err != nil {
		return canvas.Paint{}, err
	}
	img, err := ir.canvas.DecodeImage(data)
	if err != nil {
		return canvas.Paint{}, errors.Wrap(errors.ErrCodeResource, err, "decode image for node %q", n.Name)
	}
	return canvas.ImageFill(img), nil
}

func (ir *imageResolver) sourceBytes(ctx context.Context, n *design.Node) ([]byte, error) {
	if n.ImageData != "" {
		return decodeDataURI(n.ImageData)
	}
	return ir.fetch(ctx, n.ImageURL)
}

// decodeDataURI extracts the payload of a base64 png/jpeg data URI.
func decodeDataURI(uri string) ([]byte, error) {
	m := dataURIRe.FindStringSubmatch(uri)
	if m == nil {
		return nil, errors.New(errors.ErrCodeResource, "unrecognized image data URI")
	}
	payload := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, m[2])
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResource, err, "invalid base64 image payload")
	}
	return data, nil
}

// fetch retrieves remote image bytes with a single attempt, consulting
// the byte cache first.
func (ir *imageResolver) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.New(errors.ErrCodeResource, "unfetchable image reference %q", rawURL)
	}

	key := ir.keyer.ImageKey(rawURL)
	if data, hit, err := ir.cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "image")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "image")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResource, err, "build image request")
	}

	start := time.Now()
	observability.HTTP().OnRequest(ctx, req.Method, u.Host, u.Path)
	resp, err := ir.client.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, u.Host, u.Path, err)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch image %s", rawURL)
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeResource, "image fetch returned %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read image body")
	}
	if len(data) > maxImageBytes {
		return nil, errors.New(errors.ErrCodeResource, "image exceeds %d bytes", maxImageBytes)
	}

	if err := ir.cache.Set(ctx, key, data, cache.TTLImage); err == nil {
		observability.Cache().OnCacheSet(ctx, "image", len(data))
	}
	return data, nil
}

// placeholderFill is the neutral gray used when an image cannot be
// resolved or decoded.
func placeholderFill() canvas.Paint {
	return canvas.Solid(design.Color{R: 0.8, G: 0.8, B: 0.8})
}
