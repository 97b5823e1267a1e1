package paperstack

import (
	"context"
	"log"
	"sync"
)

// ViewState is the current page and magnification of a viewing session.
// Once a document is loaded, 1 <= Page <= PageCount and explicit zoom keeps
// Scale within [MinScale, MaxScale].
type ViewState struct {
	Page  int     `json:"page"`
	Scale float64 `json:"scale"`
}

// ViewerSession owns one open document for the lifetime of a viewing
// session: the document handle, the view state, the annotation cache, and
// the render sequencing that keeps stale completions from overwriting
// newer ones. Sessions are constructed per document id and hold no
// module-level state, so multiple sessions can coexist.
type ViewerSession struct {
	docID string
	doc   Document
	store *AnnotationStore

	mu      sync.Mutex
	state   ViewState
	seq     uint64
	current *RenderPlan

	rasters    *LRUCache
	fitPadding float64
}

// SessionOptions tunes a viewer session. The zero value picks sane defaults.
type SessionOptions struct {
	// FitPadding is subtracted from the viewport width before computing a
	// fit-width scale.
	FitPadding float64

	// RasterCacheSize is the number of rendered page rasters kept per
	// session. Zero means the default.
	RasterCacheSize int
}

// DefaultFitPadding matches the horizontal chrome around the page surface.
const DefaultFitPadding = 32.0

// NewViewerSession opens the document and performs the initial annotation
// load. A failed annotation load is logged and leaves the session with an
// empty cache; a failed document open is fatal to session construction and
// returns a DocumentLoadError.
func NewViewerSession(ctx context.Context, backend DocumentBackend, remote RemoteStore, docID string, opts *SessionOptions) (*ViewerSession, error) {
	doc, err := backend.Open(ctx, docID)
	if err != nil {
		return nil, err
	}

	padding := DefaultFitPadding
	cacheSize := 0
	if opts != nil {
		if opts.FitPadding > 0 {
			padding = opts.FitPadding
		}
		cacheSize = opts.RasterCacheSize
	}

	s := &ViewerSession{
		docID:      docID,
		doc:        doc,
		store:      NewAnnotationStore(docID, remote),
		state:      ViewState{Page: 1, Scale: 1.0},
		rasters:    NewLRUCache(cacheSize),
		fitPadding: padding,
	}

	if err := s.store.LoadAll(ctx); err != nil {
		log.Printf("paperstack: initial annotation load for %s: %v", docID, err)
	}

	return s, nil
}

// Close releases the document handle.
func (s *ViewerSession) Close() error {
	return s.doc.Close()
}

// DocID returns the document identifier the session was opened with.
func (s *ViewerSession) DocID() string { return s.docID }

// PageCount reports the document's page count.
func (s *ViewerSession) PageCount() int { return s.doc.PageCount() }

// Store exposes the session's annotation store.
func (s *ViewerSession) Store() *AnnotationStore { return s.store }

// View returns a copy of the current view state.
func (s *ViewerSession) View() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the last committed render plan, or nil before the first
// render completes.
func (s *ViewerSession) Current() *RenderPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// GoToPage clamps n to [1, PageCount] and renders the clamped page at the
// current scale.
func (s *ViewerSession) GoToPage(ctx context.Context, n int) (*RenderPlan, error) {
	s.mu.Lock()
	if n < 1 {
		n = 1
	}
	if max := s.doc.PageCount(); n > max {
		n = max
	}
	s.state.Page = n
	page, scale := s.state.Page, s.state.Scale
	seq := s.issueLocked()
	s.mu.Unlock()

	return s.render(ctx, seq, page, scale)
}

// Zoom adjusts the scale by delta, clamped to [MinScale, MaxScale], and
// re-renders the current page.
func (s *ViewerSession) Zoom(ctx context.Context, delta float64) (*RenderPlan, error) {
	s.mu.Lock()
	s.state.Scale = clampScale(s.state.Scale + delta)
	page, scale := s.state.Page, s.state.Scale
	seq := s.issueLocked()
	s.mu.Unlock()

	return s.render(ctx, seq, page, scale)
}

// FitWidth computes the scale that fits the current page's width into the
// viewport, minus the fit padding, and re-renders. The computed scale is
// deliberately not clamped into the explicit zoom bounds; a fit can leave
// them. A viewport too narrow to produce a positive scale falls back to
// MinScale.
func (s *ViewerSession) FitWidth(ctx context.Context, viewportWidth float64) (*RenderPlan, error) {
	s.mu.Lock()
	base, err := s.doc.PageSize(s.state.Page, 1.0)
	if err != nil {
		page := s.state.Page
		s.mu.Unlock()
		return nil, &RenderError{Page: page, Err: err}
	}

	scale := (viewportWidth - s.fitPadding) / base.Width
	if scale <= 0 {
		scale = MinScale
	}
	s.state.Scale = scale
	page := s.state.Page
	seq := s.issueLocked()
	s.mu.Unlock()

	return s.render(ctx, seq, page, scale)
}

// Refresh re-renders the current page at the current scale, typically after
// the annotation cache changed.
func (s *ViewerSession) Refresh(ctx context.Context) (*RenderPlan, error) {
	s.mu.Lock()
	page, scale := s.state.Page, s.state.Scale
	seq := s.issueLocked()
	s.mu.Unlock()

	return s.render(ctx, seq, page, scale)
}

// issueLocked assigns the next render sequence number. Callers hold s.mu.
func (s *ViewerSession) issueLocked() uint64 {
	s.seq++
	return s.seq
}
