package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingPipelineHooks struct {
	NoopPipelineHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingPipelineHooks) OnNormalizeComplete(context.Context, int, time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, "normalize")
}

func (h *recordingPipelineHooks) OnRenderStart(context.Context, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, "render_start")
}

func TestHookRegistry(t *testing.T) {
	defer Reset()

	rec := &recordingPipelineHooks{}
	SetPipelineHooks(rec)

	Pipeline().OnNormalizeComplete(context.Background(), 2, time.Millisecond)
	Pipeline().OnRenderStart(context.Background(), 5)
	// Embedded no-op still satisfies the rest of the interface.
	Pipeline().OnValidateComplete(context.Background(), 5, time.Millisecond, nil)

	if len(rec.events) != 2 || rec.events[0] != "normalize" || rec.events[1] != "render_start" {
		t.Errorf("events = %v", rec.events)
	}
}

func TestSetNilIgnored(t *testing.T) {
	defer Reset()

	SetPipelineHooks(nil)
	SetCacheHooks(nil)
	SetHTTPHooks(nil)

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("nil registration replaced pipeline hooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("nil registration replaced cache hooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("nil registration replaced HTTP hooks")
	}
}

func TestReset(t *testing.T) {
	SetPipelineHooks(&recordingPipelineHooks{})
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset did not restore no-op hooks")
	}
}

func TestConcurrentAccess(t *testing.T) {
	defer Reset()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetCacheHooks(NoopCacheHooks{})
		}()
		go func() {
			defer wg.Done()
			Cache().OnCacheHit(context.Background(), "image")
		}()
	}
	wg.Wait()
}
