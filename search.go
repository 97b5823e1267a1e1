package paperstack

import (
	"context"
	"strings"

	"github.com/sajari/fuzzy"
)

// SearchPapers searches papers by title/abstract text. With FTS5 available
// the query goes through the papers_fts virtual table; otherwise it falls
// back to LIKE matching with typo correction.
// Note: uses raw SQL because GORM doesn't support FTS5 MATCH queries.
func (l *Library) SearchPapers(ctx context.Context, query string, limit int) ([]Paper, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	if l.ftsAvailable {
		sql := `
			SELECT p.*
			FROM papers p
			JOIN papers_fts fts ON p.rowid = fts.rowid
			WHERE papers_fts MATCH ?
			ORDER BY rank LIMIT ?
		`
		var papers []Paper
		if err := l.db.WithContext(ctx).Raw(sql, query, limit).Scan(&papers).Error; err == nil {
			return papers, nil
		}
		// Fall through to LIKE search on FTS query syntax errors.
	}

	papers, err := l.likeSearch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(papers) > 0 {
		return papers, nil
	}

	// No direct hits: correct likely typos against the library's title
	// vocabulary and retry once.
	corrected, changed := l.correctQuery(ctx, query)
	if !changed {
		return papers, nil
	}
	return l.likeSearch(ctx, corrected, limit)
}

func (l *Library) likeSearch(ctx context.Context, query string, limit int) ([]Paper, error) {
	var papers []Paper
	pattern := "%" + query + "%"
	err := l.db.WithContext(ctx).
		Where("title LIKE ? OR abstract LIKE ?", pattern, pattern).
		Order("added_at DESC").
		Limit(limit).
		Find(&papers).Error
	if err != nil {
		return nil, err
	}
	return papers, nil
}

// correctQuery spell-checks each query word against the words appearing in
// library titles. Returns the corrected query and whether anything changed.
func (l *Library) correctQuery(ctx context.Context, query string) (string, bool) {
	var titles []string
	if err := l.db.WithContext(ctx).Model(&Paper{}).Pluck("title", &titles).Error; err != nil {
		return query, false
	}
	if len(titles) == 0 {
		return query, false
	}

	var vocab []string
	for _, t := range titles {
		for _, w := range strings.Fields(strings.ToLower(t)) {
			w = strings.Trim(w, ".,:;()[]{}\"'")
			if len(w) >= 3 {
				vocab = append(vocab, w)
			}
		}
	}
	if len(vocab) == 0 {
		return query, false
	}

	model := fuzzy.NewModel()
	model.SetThreshold(1) // allow 1 character difference
	model.SetDepth(2)
	model.Train(vocab)

	changed := false
	words := strings.Fields(strings.ToLower(query))
	for i, w := range words {
		if len(w) < 3 {
			continue
		}
		if corrected := model.SpellCheck(w); corrected != "" && corrected != w {
			words[i] = corrected
			changed = true
		}
	}
	return strings.Join(words, " "), changed
}
