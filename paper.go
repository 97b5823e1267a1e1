package paperstack

import (
	"encoding/json"
	"strings"
	"time"
)

// Paper statuses as stored in the library index.
const (
	StatusReading  = "reading"
	StatusDone     = "done"
	StatusArchived = "archived"
)

// Paper represents one saved paper's metadata.
type Paper struct {
	// ID is assigned by the library index on insert.
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// URL the paper was added from
	URL string `json:"url,omitempty"`

	// Title of the paper
	Title string `json:"title"`

	// Authors as a single display string
	Authors string `json:"authors,omitempty"`

	// Abstract of the paper
	Abstract string `json:"abstract,omitempty"`

	// DOI is the Digital Object Identifier if known
	DOI string `gorm:"index" json:"doi,omitempty"`

	// ArxivID is the arXiv identifier if the paper came from arXiv
	ArxivID string `gorm:"column:arxiv_id;index" json:"arxiv_id,omitempty"`

	// Tags is a JSON array stored as text (matches the wire shape of /meta)
	Tags string `json:"-"`

	// Description is a short free-form note about the paper
	Description string `json:"description,omitempty"`

	// Status is one of reading, done, archived
	Status string `gorm:"index" json:"status"`

	// PDFPath is the local path to the PDF (if imported)
	PDFPath string `gorm:"column:pdf_path" json:"-"`

	AddedAt   time.Time `gorm:"autoCreateTime" json:"added_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Paper) TableName() string {
	return "papers"
}

// TagList decodes the stored tags into a slice. Malformed or empty tag
// data yields an empty list, never an error.
func (p *Paper) TagList() []string {
	if strings.TrimSpace(p.Tags) == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(p.Tags), &tags); err != nil {
		return nil
	}
	return tags
}

// SetTags encodes the given tags into the stored representation.
func (p *Paper) SetTags(tags []string) {
	if len(tags) == 0 {
		p.Tags = ""
		return
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return
	}
	p.Tags = string(b)
}

// DocumentMeta is the shape served by GET /document/{id}/meta and consumed
// by the viewer's info panel.
type DocumentMeta struct {
	Title   string   `json:"title"`
	Authors string   `json:"authors,omitempty"`
	Tags    []string `json:"tags"`
}

// Meta returns the paper's viewer-facing metadata.
func (p *Paper) Meta() *DocumentMeta {
	tags := p.TagList()
	if tags == nil {
		tags = []string{}
	}
	return &DocumentMeta{
		Title:   p.Title,
		Authors: p.Authors,
		Tags:    tags,
	}
}
