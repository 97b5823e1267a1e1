package paperstack

import (
	"context"
	"fmt"
	"image"
)

// PageSize is a page's dimensions in viewport pixels at a given scale.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RasterSurface is one rendered page. Width and Height match the surface
// dimensions of the page at the scale it was rendered at.
type RasterSurface struct {
	Page   int
	Scale  float64
	Width  int
	Height int
	Image  *image.RGBA
}

// Document is an open document handle. Page numbers are 1-indexed;
// callers guarantee they stay within [1, PageCount].
type Document interface {
	// PageCount reports the number of pages.
	PageCount() int

	// PageSize reports a page's dimensions at the given scale.
	PageSize(page int, scale float64) (PageSize, error)

	// RenderPage rasterizes a page at the given scale. Calls against
	// unrelated pages may run concurrently, but callers must not issue two
	// renders against the same viewport at once.
	RenderPage(ctx context.Context, page int, scale float64) (*RasterSurface, error)

	Close() error
}

// DocumentBackend opens documents by identifier.
type DocumentBackend interface {
	Open(ctx context.Context, id string) (Document, error)
}

// DocumentLoadError reports that a document could not be fetched or parsed.
// It is surfaced to the UI as a fallback message and not retried.
type DocumentLoadError struct {
	ID  string
	Err error
}

func (e *DocumentLoadError) Error() string {
	return fmt.Sprintf("load document %s: %v", e.ID, e.Err)
}

func (e *DocumentLoadError) Unwrap() error { return e.Err }

// RenderError reports a failed page rasterization. The current view is left
// unchanged; no partial overlay is drawn without a base page.
type RenderError struct {
	Page int
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render page %d: %v", e.Page, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
