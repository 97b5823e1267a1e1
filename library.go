package paperstack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Library manages the local paper library: a sqlite index plus imported
// PDF files under a root directory.
type Library struct {
	root         string
	db           *gorm.DB
	ftsAvailable bool
}

// OpenLibrary opens or creates a library at the given root directory.
func OpenLibrary(root string) (*Library, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "pdf"), 0755); err != nil {
		return nil, fmt.Errorf("create pdf dir: %w", err)
	}

	dbPath := filepath.Join(root, "paperstack.db")
	// Use the sqlite3 driver (not modernc) for FTS5 support.
	dsn := dbPath + "?_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite3",
		DSN:        dsn,
	}, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	l := &Library{root: root, db: db}
	if err := l.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return l, nil
}

// Close closes the library database.
func (l *Library) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Root returns the library root directory.
func (l *Library) Root() string {
	return l.root
}

// PDFDir returns the directory imported PDFs live in, laid out as
// <id>.pdf for the PDF document backend.
func (l *Library) PDFDir() string {
	return filepath.Join(l.root, "pdf")
}

func (l *Library) initSchema() error {
	if err := l.db.AutoMigrate(&Paper{}, &Annotation{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// FTS5 virtual tables and triggers must use raw SQL - GORM doesn't
	// support FTS5. Exec() keeps this consistent with the GORM session.
	ftsSchema := `
	CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
		title,
		abstract,
		content='papers',
		content_rowid='rowid'
	);

	CREATE TRIGGER IF NOT EXISTS papers_ai AFTER INSERT ON papers BEGIN
		INSERT INTO papers_fts(rowid, title, abstract)
		VALUES (NEW.rowid, NEW.title, NEW.abstract);
	END;

	CREATE TRIGGER IF NOT EXISTS papers_ad AFTER DELETE ON papers BEGIN
		INSERT INTO papers_fts(papers_fts, rowid, title, abstract)
		VALUES ('delete', OLD.rowid, OLD.title, OLD.abstract);
	END;

	CREATE TRIGGER IF NOT EXISTS papers_au AFTER UPDATE ON papers BEGIN
		INSERT INTO papers_fts(papers_fts, rowid, title, abstract)
		VALUES ('delete', OLD.rowid, OLD.title, OLD.abstract);
		INSERT INTO papers_fts(rowid, title, abstract)
		VALUES (NEW.rowid, NEW.title, NEW.abstract);
	END;
	`
	if err := l.db.Exec(ftsSchema).Error; err != nil {
		// FTS5 not available - search falls back to LIKE plus fuzzy matching.
		log.Printf("paperstack: FTS5 not available (%v), using fallback search", err)
		l.ftsAvailable = false
	} else {
		l.ftsAvailable = true
	}
	return nil
}

// AddPaper stores a new paper and assigns its id. An empty status defaults
// to reading.
func (l *Library) AddPaper(ctx context.Context, p *Paper) error {
	if p.Status == "" {
		p.Status = StatusReading
	}
	if err := l.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("store paper: %w", err)
	}
	return nil
}

// GetPaper looks up a paper by id.
func (l *Library) GetPaper(ctx context.Context, id int64) (*Paper, error) {
	var p Paper
	if err := l.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("paper %d not found", id)
		}
		return nil, err
	}
	return &p, nil
}

// UpdatePaper persists changes to an existing paper.
func (l *Library) UpdatePaper(ctx context.Context, p *Paper) error {
	if p.ID == 0 {
		return fmt.Errorf("update paper: missing id")
	}
	return l.db.WithContext(ctx).Save(p).Error
}

// RemovePaper deletes a paper and its annotations.
func (l *Library) RemovePaper(ctx context.Context, id int64) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("paper_id = ?", id).Delete(&Annotation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Paper{}, id).Error
	})
}

// ListPapers returns papers ordered by recency, optionally filtered by
// status.
func (l *Library) ListPapers(ctx context.Context, status string, offset, limit int) ([]Paper, error) {
	if limit <= 0 {
		limit = 50
	}
	q := l.db.WithContext(ctx).Order("added_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var papers []Paper
	if err := q.Find(&papers).Error; err != nil {
		return nil, err
	}
	return papers, nil
}

// ImportPDF copies a PDF into the library's pdf directory under the
// paper's id and records its path.
func (l *Library) ImportPDF(ctx context.Context, paperID int64, srcPath string) error {
	p, err := l.GetPaper(ctx, paperID)
	if err != nil {
		return err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer src.Close()

	dstPath := filepath.Join(l.PDFDir(), strconv.FormatInt(paperID, 10)+".pdf")
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create pdf copy: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy pdf: %w", err)
	}

	p.PDFPath = dstPath
	return l.UpdatePaper(ctx, p)
}

// AddAnnotation stores a new annotation for a paper and assigns its id.
// Missing fields take the viewer defaults: page 1, type highlight, the
// default highlight color.
func (l *Library) AddAnnotation(ctx context.Context, paperID int64, a *Annotation) error {
	if _, err := l.GetPaper(ctx, paperID); err != nil {
		return err
	}

	a.PaperID = paperID
	if a.Page < 1 {
		a.Page = 1
	}
	if a.Type == "" {
		a.Type = Highlight
	}
	if a.Color == "" {
		a.Color = DefaultColor
	}
	if err := l.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("store annotation: %w", err)
	}
	return nil
}

// Annotations returns a paper's annotations ordered by page, then creation
// time. This is the order the viewer receives on initial load.
func (l *Library) Annotations(ctx context.Context, paperID int64) ([]Annotation, error) {
	var anns []Annotation
	err := l.db.WithContext(ctx).
		Where("paper_id = ?", paperID).
		Order("page, created_at, id").
		Find(&anns).Error
	if err != nil {
		return nil, err
	}
	return anns, nil
}

// DeleteAnnotation removes an annotation by id, reporting whether it
// existed.
func (l *Library) DeleteAnnotation(ctx context.Context, id int64) (bool, error) {
	res := l.db.WithContext(ctx).Delete(&Annotation{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Stats returns library statistics.
func (l *Library) Stats(ctx context.Context) (*LibraryStats, error) {
	stats := &LibraryStats{}

	if err := l.db.WithContext(ctx).Model(&Paper{}).Count(&stats.TotalPapers).Error; err != nil {
		return nil, err
	}
	if err := l.db.WithContext(ctx).Model(&Paper{}).Where("status = ?", StatusReading).Count(&stats.Reading).Error; err != nil {
		return nil, err
	}
	if err := l.db.WithContext(ctx).Model(&Paper{}).Where("status = ?", StatusDone).Count(&stats.Done).Error; err != nil {
		return nil, err
	}
	if err := l.db.WithContext(ctx).Model(&Annotation{}).Count(&stats.Annotations).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// LibraryStats contains statistics about the library.
type LibraryStats struct {
	TotalPapers int64
	Reading     int64
	Done        int64
	Annotations int64
}

// LibraryStore adapts a Library to the RemoteStore interface so a viewer
// session hosted in the same process as the server skips the HTTP round
// trip. Document ids are decimal paper ids.
type LibraryStore struct {
	Lib *Library
}

func (s *LibraryStore) paperID(docID string) (int64, error) {
	id, err := strconv.ParseInt(docID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad document id %q: %w", docID, err)
	}
	return id, nil
}

func (s *LibraryStore) ListAnnotations(ctx context.Context, docID string) ([]Annotation, error) {
	id, err := s.paperID(docID)
	if err != nil {
		return nil, &SyncError{Op: "list", Err: err}
	}
	anns, err := s.Lib.Annotations(ctx, id)
	if err != nil {
		return nil, &SyncError{Op: "list", Err: err}
	}
	return anns, nil
}

func (s *LibraryStore) CreateAnnotation(ctx context.Context, docID string, a Annotation) (Annotation, error) {
	id, err := s.paperID(docID)
	if err != nil {
		return Annotation{}, &SyncError{Op: "create", Err: err}
	}
	if err := s.Lib.AddAnnotation(ctx, id, &a); err != nil {
		return Annotation{}, &SyncError{Op: "create", Err: err}
	}
	return a, nil
}

func (s *LibraryStore) DeleteAnnotation(ctx context.Context, id int64) error {
	found, err := s.Lib.DeleteAnnotation(ctx, id)
	if err != nil {
		return &SyncError{Op: "delete", Err: err}
	}
	if !found {
		return &SyncError{Op: "delete", Err: fmt.Errorf("annotation %d not found", id)}
	}
	return nil
}
