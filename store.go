package paperstack

import (
	"context"
	"sync"
)

// AnnotationStore mirrors the remote store's annotations for one document.
// The cache is a read-through mirror of authoritative remote state: every
// mutation is a request/response pair, and local truth is updated strictly
// after remote acknowledgment. Cache order is arrival order (initial load)
// followed by append order of local creations, and doubles as the overlay
// stacking order.
type AnnotationStore struct {
	docID  string
	remote RemoteStore

	mu    sync.Mutex
	cache []Annotation
}

// NewAnnotationStore creates an empty store for one document. Call LoadAll
// to populate it.
func NewAnnotationStore(docID string, remote RemoteStore) *AnnotationStore {
	return &AnnotationStore{docID: docID, remote: remote}
}

// LoadAll replaces the entire cache with the remote store's current list,
// in the order received. On failure the previous cache is left untouched
// and a SyncError is returned.
func (s *AnnotationStore) LoadAll(ctx context.Context) error {
	list, err := s.remote.ListAnnotations(ctx, s.docID)
	if err != nil {
		return syncErr("list", err)
	}

	s.mu.Lock()
	s.cache = list
	s.mu.Unlock()
	return nil
}

// Create sends a new annotation to the remote store. On success the
// server-assigned record is appended to the cache and returned. On failure
// the cache is unchanged; there is no optimistic insert.
func (s *AnnotationStore) Create(ctx context.Context, page int, typ AnnotationType, pos Position, selectionText, content, color string) (Annotation, error) {
	if color == "" {
		color = DefaultColor
	}
	a := Annotation{
		Page:          page,
		Type:          typ,
		SelectionText: selectionText,
		Position:      &pos,
		Content:       content,
		Color:         color,
	}

	created, err := s.remote.CreateAnnotation(ctx, s.docID, a)
	if err != nil {
		return Annotation{}, syncErr("create", err)
	}

	s.mu.Lock()
	s.cache = append(s.cache, created)
	s.mu.Unlock()
	return created, nil
}

// Delete removes an annotation by id, remotely first and locally only after
// the remote acknowledged. Deleting an id not present locally is a no-op,
// not an error.
func (s *AnnotationStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	idx := -1
	for i, a := range s.cache {
		if a.ID == id {
			idx = i
			break
		}
	}
	s.mu.Unlock()
	if idx == -1 {
		return nil
	}

	if err := s.remote.DeleteAnnotation(ctx, id); err != nil {
		return syncErr("delete", err)
	}

	s.mu.Lock()
	// Re-find in case a concurrent completion moved the entry; order of the
	// remaining entries is preserved.
	for i, a := range s.cache {
		if a.ID == id {
			s.cache = append(s.cache[:i], s.cache[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// ByPage returns the cached annotations for one page, preserving cache
// order. The result is a copy and safe to hold across store mutations.
func (s *AnnotationStore) ByPage(page int) []Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Annotation
	for _, a := range s.cache {
		if a.Page == page {
			out = append(out, a)
		}
	}
	return out
}

// All returns a copy of the full cache in order.
func (s *AnnotationStore) All() []Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Annotation, len(s.cache))
	copy(out, s.cache)
	return out
}

// Len reports the number of cached annotations.
func (s *AnnotationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}
