package paperstack

import (
	"time"
)

// AnnotationType distinguishes highlights from comments.
type AnnotationType string

const (
	Highlight AnnotationType = "highlight"
	Comment   AnnotationType = "comment"
)

// DefaultColor is the highlight color used when the client does not pick one.
const DefaultColor = "#ffeb3b"

// Position is a rectangle in page-space units at scale 1.0. Positions are
// never stored at any other scale; viewport coordinates are derived at
// render time and never written back.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Annotation is one highlight or comment anchored to a single page of a
// single paper. The ID is assigned by the annotation store on create and is
// absent until the create has been acknowledged.
type Annotation struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// PaperID links the annotation to its paper; annotations never span
	// papers or pages.
	PaperID int64 `gorm:"column:paper_id;index" json:"-"`

	// Page is 1-indexed.
	Page int `json:"page"`

	Type AnnotationType `gorm:"column:type" json:"type"`

	// SelectionText is the text the user selected, if any.
	SelectionText string `gorm:"column:selection_text" json:"selection_text,omitempty"`

	// Position is the selection rectangle in page-space units.
	Position *Position `gorm:"serializer:json" json:"position,omitempty"`

	// Content is the comment body (comments only).
	Content string `json:"content,omitempty"`

	// Color is a hex string like "#ffeb3b".
	Color string `json:"color"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Annotation) TableName() string {
	return "annotations"
}
