package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matzehuels/sketchlift/pkg/canvas"
	"github.com/matzehuels/sketchlift/pkg/canvas/memory"
	"github.com/matzehuels/sketchlift/pkg/design"
	"github.com/matzehuels/sketchlift/pkg/screenshot"
)

// newTestScreenshot builds screenshot input without going through Read;
// the memory host accepts any non-empty payload.
func newTestScreenshot(t *testing.T) *screenshot.Screenshot {
	t.Helper()
	return &screenshot.Screenshot{
		Data:   []byte("screenshot-bytes"),
		MIME:   screenshot.MIMEPNG,
		Width:  200,
		Height: 150,
	}
}

// onePixelPNG is a 1x1 PNG, raw and as a data URI.
const onePixelPNGB64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func f(v float64) *float64 { return &v }

func testSpec() *design.Spec {
	return &design.Spec{
		Canvas: design.Canvas{Name: "Home", Width: 800, Height: 600},
		Nodes: []*design.Node{
			{
				Type: design.TypeFrame, Name: "Card",
				X: 20, Y: 20, Width: 400, Height: 300,
				Fill: &design.Color{R: 0.9, G: 0.9, B: 0.9},
				Children: []*design.Node{
					{Type: design.TypeRect, Name: "Box", X: 10, Y: 10, Width: 50, Height: 50,
						Fill: &design.Color{R: 0.2, G: 0.4, B: 0.8}},
					{Type: design.TypeText, Name: "Label", X: 10, Y: 80, Width: 100, Height: 20,
						Text: "hello", FontSize: f(16)},
				},
			},
			{Type: design.TypeEllipse, Name: "Dot", X: 500, Y: 100, Width: 40, Height: 40},
		},
	}
}

func TestRenderTree(t *testing.T) {
	host := memory.New()
	res, err := New(host).Render(context.Background(), testSpec())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	// Container, overlay and backdrop are not counted as document objects.
	if res.Objects != 4 {
		t.Errorf("Objects = %d, want 4", res.Objects)
	}
	if res.SkippedNodes != 0 || res.ImageFallbacks != 0 {
		t.Errorf("unexpected degradation: skipped=%d fallbacks=%d", res.SkippedNodes, res.ImageFallbacks)
	}

	root := host.Find("Home")
	if root == nil {
		t.Fatal("root container missing")
	}
	if root.W != 800 || root.H != 600 {
		t.Errorf("root size = %vx%v", root.W, root.H)
	}
	if host.Focused() != root {
		t.Error("root not focused on completion")
	}

	if len(root.Children) != 1 || root.Children[0].Name != "Content" {
		t.Fatalf("root children = %v", names(root.Children))
	}
	overlay := root.Children[0]
	if got := names(overlay.Children); len(got) != 2 || got[0] != "Card" || got[1] != "Dot" {
		t.Errorf("overlay children = %v, want [Card Dot]", got)
	}

	card := host.Find("Card")
	if got := names(card.Children); len(got) != 2 || got[0] != "Box" || got[1] != "Label" {
		t.Errorf("card children = %v, want [Box Label]", got)
	}

	label := host.Find("Label")
	if label.Characters != "hello" {
		t.Errorf("label characters = %q", label.Characters)
	}
	if label.FontFamily != DefaultFontFamily || label.FontStyle != DefaultFontStyle {
		t.Errorf("label font = %s/%s", label.FontFamily, label.FontStyle)
	}
	if label.FontSize != 16 {
		t.Errorf("label size = %v", label.FontSize)
	}
}

func names(objs []*memory.Object) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.Name
	}
	return out
}

func TestRenderRootNameFallback(t *testing.T) {
	host := memory.New()
	spec := &design.Spec{Canvas: design.Canvas{Width: 100, Height: 100}}
	if _, err := New(host).Render(context.Background(), spec); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if host.Find("Generated Design") == nil {
		t.Error("unnamed canvas did not get default root name")
	}
}

func TestRenderCoordinateResolution(t *testing.T) {
	// The child is ambiguous (both readings fit); its frame sits off the
	// origin, so the tie resolves to absolute and the stored position is
	// translated into frame-local coordinates.
	host := memory.New()
	spec := &design.Spec{
		Canvas: design.Canvas{Name: "Doc", Width: 800, Height: 600},
		Nodes: []*design.Node{
			{
				Type: design.TypeFrame, Name: "Panel",
				X: 100, Y: 100, Width: 400, Height: 300,
				Children: []*design.Node{
					{Type: design.TypeRect, Name: "Inner", X: 120, Y: 130, Width: 50, Height: 40},
				},
			},
		},
	}
	if _, err := New(host).Render(context.Background(), spec); err != nil {
		t.Fatalf("Render: %v", err)
	}

	inner := host.Find("Inner")
	if inner.X != 20 || inner.Y != 30 {
		t.Errorf("inner position = (%v, %v), want (20, 30)", inner.X, inner.Y)
	}

	panel := host.Find("Panel")
	if panel.X != 100 || panel.Y != 100 {
		t.Errorf("panel position = (%v, %v), want (100, 100)", panel.X, panel.Y)
	}
}

func TestRenderPillRadius(t *testing.T) {
	tests := []struct {
		name string
		node *design.Node
		want *float64
	}{
		{
			name: "pill shaped rect with fill",
			node: &design.Node{Type: design.TypeRect, Name: "N", Width: 60, Height: 24,
				Fill: &design.Color{R: 1}},
			want: f(12),
		},
		{
			name: "too tall for a pill",
			node: &design.Node{Type: design.TypeRect, Name: "N", Width: 100, Height: 40,
				Fill: &design.Color{R: 1}},
			want: nil,
		},
		{
			name: "not wide enough",
			node: &design.Node{Type: design.TypeRect, Name: "N", Width: 30, Height: 24,
				Fill: &design.Color{R: 1}},
			want: nil,
		},
		{
			name: "no fill means no inference",
			node: &design.Node{Type: design.TypeRect, Name: "N", Width: 60, Height: 24},
			want: nil,
		},
		{
			name: "explicit radius wins",
			node: &design.Node{Type: design.TypeRect, Name: "N", Width: 60, Height: 24,
				Fill: &design.Color{R: 1}, CornerRadius: f(4)},
			want: f(4),
		},
		{
			name: "ellipse never gets inference",
			node: &design.Node{Type: design.TypeEllipse, Name: "N", Width: 60, Height: 24,
				Fill: &design.Color{R: 1}},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := memory.New()
			spec := &design.Spec{
				Canvas: design.Canvas{Name: "Doc", Width: 800, Height: 600},
				Nodes:  []*design.Node{tt.node},
			}
			if _, err := New(host).Render(context.Background(), spec); err != nil {
				t.Fatalf("Render: %v", err)
			}
			got := host.Find("N").CornerRadius
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("corner radius = %v, want none", *got)
			case tt.want != nil && got == nil:
				t.Errorf("corner radius unset, want %v", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("corner radius = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestRenderFontMemoization(t *testing.T) {
	host := memory.New()
	spec := &design.Spec{
		Canvas: design.Canvas{Name: "Doc", Width: 800, Height: 600},
		Nodes: []*design.Node{
			{Type: design.TypeText, Name: "A", X: 0, Y: 0, Width: 100, Height: 20, Text: "a"},
			{Type: design.TypeText, Name: "B", X: 0, Y: 30, Width: 100, Height: 20, Text: "b"},
			{Type: design.TypeText, Name: "C", X: 0, Y: 60, Width: 100, Height: 20, Text: "c",
				FontStyle: "Bold"},
		},
	}
	if _, err := New(host).Render(context.Background(), spec); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := []string{"Inter/Regular", "Inter/Bold"}
	if len(host.FontLoads) != len(want) {
		t.Fatalf("font loads = %v, want %v", host.FontLoads, want)
	}
	for i := range want {
		if host.FontLoads[i] != want[i] {
			t.Errorf("font load %d = %q, want %q", i, host.FontLoads[i], want[i])
		}
	}
}

func TestRenderFontLoadFailure(t *testing.T) {
	host := memory.New()
	host.FailFontLoad = true
	spec := &design.Spec{
		Canvas: design.Canvas{Name: "Doc", Width: 800, Height: 600},
		Nodes: []*design.Node{
			{Type: design.TypeText, Name: "T", X: 0, Y: 0, Width: 100, Height: 20, Text: "hi"},
		},
	}
	res, err := New(host).Render(context.Background(), spec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// The node still instantiates and attaches; only characters are skipped.
	if res.Objects != 1 {
		t.Errorf("Objects = %d, want 1", res.Objects)
	}
	if got := host.Find("T").Characters; got != "" {
		t.Errorf("characters = %q, want empty", got)
	}
}

func TestRenderResizeRejectionTolerated(t *testing.T) {
	host := memory.New()
	host.FailResize = true
	spec := &design.Spec{
		Canvas: design.Canvas{Name: "Doc", Width: 800, Height: 600},
		Nodes: []*design.Node{
			{Type: design.TypeText, Name: "T", X: 0, Y: 0, Width: 100, Height: 20, Text: "hi"},
		},
	}
	res, err := New(host).Render(context.Background(), spec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Objects != 1 || res.SkippedNodes != 0 {
		t.Errorf("Objects = %d, SkippedNodes = %d", res.Objects, res.SkippedNodes)
	}
	if got := host.Find("T").Characters; got != "hi" {
		t.Errorf("characters = %q, want %q", got, "hi")
	}
}

func TestRenderImageData(t *testing.T) {
	host := memory.New()
	spec := &design.Spec{
		Canvas: design.Canvas{Name: "Doc", Width: 800, Height: 600},
		Nodes: []*design.Node{
			{Type: design.TypeImage, Name: "Pic", X: 0, Y: 0, Width: 100, Height: 100,
				ImageData: "data:image/png;base64," + onePixelPNGB64},
		},
	}
	res, err := New(host).Render(context.Background(), spec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.ImageFallbacks != 0 {
		t.Errorf("ImageFallbacks = %d, want 0", res.ImageFallbacks)
	}
	pic := host.Find("Pic")
	if pic.Kind != "RECT" {
		t.Errorf("image node kind = %s, want RECT", pic.Kind)
	}
	if pic.Fill == nil || pic.Fill.Kind != canvas.PaintImage {
		t.Error("image node did not get an image fill")
	}
}

func TestRenderImagePlaceholder(t *testing.T) {
	tests := []struct {
		name string
		node *design.Node
	}{
		{
			name: "bad data URI",
			node: &design.Node{Type: design.TypeImage, Name: "Pic", Width: 100, Height: 100,
				ImageData: "data:image/png;base64,!!!not-base64!!!"},
		},
		{
			name: "unfetchable reference",
			node: &design.Node{Type: design.TypeImage, Name: "Pic", Width: 100, Height: 100,
				ImageURL: "ftp://example.com/a.png"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := memory.New()
			spec := &design.Spec{
				Canvas: design.Canvas{Name: "Doc", Width: 800, Height: 600},
				Nodes:  []*design.Node{tt.node},
			}
			res, err := New(host).Render(context.Background(), spec)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if res.ImageFallbacks != 1 {
				t.Errorf("ImageFallbacks = %d, want 1", res.ImageFallbacks)
			}
			if res.Objects != 1 {
				t.Errorf("Objects = %d, want 1", res.Objects)
			}
			pic := host.Find("Pic")
			if pic.Fill == nil || pic.Fill.Kind != canvas.PaintSolid {
				t.Fatal("placeholder fill missing")
			}
			if c := pic.Fill.Color; c.R != 0.8 || c.G != 0.8 || c.B != 0.8 {
				t.Errorf("placeholder color = %+v", c)
			}
		})
	}
}

func TestRenderImageFetch(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	host := memory.New()
	spec := &design.Spec{
		Canvas: design.Canvas{Name: "Doc", Width: 800, Height: 600},
		Nodes: []*design.Node{
			{Type: design.TypeImage, Name: "Pic", Width: 100, Height: 100, ImageURL: srv.URL + "/a.png"},
		},
	}
	res, err := New(host, WithHTTPClient(srv.Client())).Render(context.Background(), spec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1", hits)
	}
	if res.ImageFallbacks != 0 {
		t.Errorf("ImageFallbacks = %d, want 0", res.ImageFallbacks)
	}
}

func TestRenderImageFetchFailureSingleAttempt(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	host := memory.New()
	spec := &design.Spec{
		Canvas: design.Canvas{Name: "Doc", Width: 800, Height: 600},
		Nodes: []*design.Node{
			{Type: design.TypeImage, Name: "Pic", Width: 100, Height: 100, ImageURL: srv.URL + "/a.png"},
		},
	}
	res, err := New(host, WithHTTPClient(srv.Client())).Render(context.Background(), spec)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want exactly 1 (no retry)", hits)
	}
	if res.ImageFallbacks != 1 {
		t.Errorf("ImageFallbacks = %d, want 1", res.ImageFallbacks)
	}
}

func TestRenderScreenshotBackdrop(t *testing.T) {
	host := memory.New()
	// The memory host decodes any non-empty payload.
	shot := newTestScreenshot(t)
	res, err := New(host, WithScreenshot(shot)).Render(context.Background(), testSpec())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	root := host.Find("Home")
	if got := names(root.Children); len(got) != 2 || got[0] != "Screenshot" || got[1] != "Content" {
		t.Fatalf("root children = %v, want backdrop below overlay", got)
	}
	bg := host.Find("Screenshot")
	if bg.Fill == nil || bg.Fill.Kind != canvas.PaintImage {
		t.Error("backdrop is not an image fill")
	}
	// The backdrop is infrastructure, not a document object.
	if res.Objects != 4 {
		t.Errorf("Objects = %d, want 4", res.Objects)
	}
}

func TestDecodeDataURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		wantErr bool
	}{
		{"png payload", "data:image/png;base64," + onePixelPNGB64, false},
		{"whitespace in payload", "data:image/png;base64,aGVs\nbG8g\r\nd29y bGQ=", false},
		{"jpeg mime", "data:image/jpeg;base64,aGVsbG8=", false},
		{"unsupported mime", "data:image/gif;base64,aGVsbG8=", true},
		{"not a data uri", "https://example.com/a.png", true},
		{"bad base64", "data:image/png;base64,???", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeDataURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Errorf("decodeDataURI err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
