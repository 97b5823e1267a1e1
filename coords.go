package paperstack

// Magnification bounds for explicit zoom actions.
const (
	MinScale = 0.5
	MaxScale = 3.0
)

// ViewportRect is a rectangle in viewport pixels at the current scale.
type ViewportRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Degenerate reports whether the rectangle has no area. Collapsed
// selections are rejected by callers before mapping.
func (r ViewportRect) Degenerate() bool {
	return r.Width <= 0 || r.Height <= 0
}

// ToPageSpace converts a viewport rectangle to page-space units by dividing
// each component by the scale. The mapper performs no clamping or rejection.
func ToPageSpace(r ViewportRect, scale float64) Position {
	return Position{
		X:      r.X / scale,
		Y:      r.Y / scale,
		Width:  r.Width / scale,
		Height: r.Height / scale,
	}
}

// ToViewportSpace converts a page-space position to viewport pixels at the
// given scale. For any rect and in-range scale,
// ToViewportSpace(ToPageSpace(r, s), s) == r within floating-point tolerance.
func ToViewportSpace(p Position, scale float64) ViewportRect {
	return ViewportRect{
		X:      p.X * scale,
		Y:      p.Y * scale,
		Width:  p.Width * scale,
		Height: p.Height * scale,
	}
}

func clampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}
