package paperstack

import (
	"context"
	"fmt"
)

// OverlayRect is one painted annotation rectangle in viewport coordinates.
type OverlayRect struct {
	Rect    ViewportRect `json:"rect"`
	Color   string       `json:"color"`
	Tooltip string       `json:"tooltip,omitempty"`
}

// RenderPlan is the product of one render cycle: the surface dimensions at
// the rendered scale, the raster, and the overlay rectangles for the page,
// in stacking order (later entries draw on top).
type RenderPlan struct {
	Seq     uint64        `json:"seq"`
	Page    int           `json:"page"`
	Scale   float64       `json:"scale"`
	Size    PageSize      `json:"size"`
	Raster  *RasterSurface `json:"-"`
	Overlay []OverlayRect `json:"overlay"`
}

// render runs one render cycle in the mandatory order: surface size, page
// raster, then annotation overlay. The overlay is computed from the page
// and scale that produced this raster, never from whatever the view state
// holds at completion time. The result is committed only if seq is still
// the newest issued request; a superseded result is dropped silently and
// reported as a nil plan with a nil error.
func (s *ViewerSession) render(ctx context.Context, seq uint64, page int, scale float64) (*RenderPlan, error) {
	size, err := s.doc.PageSize(page, scale)
	if err != nil {
		return nil, &RenderError{Page: page, Err: err}
	}

	raster, err := s.rasterFor(ctx, page, scale)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return nil, nil
	}

	plan := &RenderPlan{
		Seq:     seq,
		Page:    page,
		Scale:   scale,
		Size:    size,
		Raster:  raster,
		Overlay: overlayFor(s.store.ByPage(page), scale),
	}
	s.current = plan
	return plan, nil
}

// rasterFor returns the page raster at the given scale, from the session's
// LRU cache when possible.
func (s *ViewerSession) rasterFor(ctx context.Context, page int, scale float64) (*RasterSurface, error) {
	key := fmt.Sprintf("%d@%.4f", page, scale)
	if cached, ok := s.rasters.Get(key); ok {
		return cached.(*RasterSurface), nil
	}

	raster, err := s.doc.RenderPage(ctx, page, scale)
	if err != nil {
		return nil, err
	}
	s.rasters.Put(key, raster)
	return raster, nil
}

// overlayFor maps one page's annotations into viewport rectangles at the
// given scale, preserving cache order.
func overlayFor(anns []Annotation, scale float64) []OverlayRect {
	out := make([]OverlayRect, 0, len(anns))
	for _, a := range anns {
		if a.Position == nil {
			continue
		}
		tooltip := a.Content
		if tooltip == "" {
			tooltip = a.SelectionText
		}
		color := a.Color
		if color == "" {
			color = DefaultColor
		}
		out = append(out, OverlayRect{
			Rect:    ToViewportSpace(*a.Position, scale),
			Color:   color,
			Tooltip: tooltip,
		})
	}
	return out
}
