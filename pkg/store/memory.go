package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps documents in-process. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string]*Document{}}
}

// Put stores a document.
func (s *MemoryStore) Put(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *doc
	s.docs[doc.ID] = &cp
	return nil
}

// Get returns a stored document.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *doc
	return &cp, nil
}

// List returns documents newest first.
func (s *MemoryStore) List(ctx context.Context) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Document, 0, len(s.docs))
	for _, doc := range s.docs {
		cp := *doc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a document if present.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
