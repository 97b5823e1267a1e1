package paperstack

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := OpenLibrary(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { lib.Close() })
	return lib
}

func TestLibraryPaperCRUD(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)

	p := &Paper{Title: "A Paper", Authors: "Someone"}
	require.NoError(t, lib.AddPaper(ctx, p))
	require.NotZero(t, p.ID)
	assert.Equal(t, StatusReading, p.Status)

	got, err := lib.GetPaper(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "A Paper", got.Title)

	got.Status = StatusDone
	got.SetTags([]string{"ml", "systems"})
	require.NoError(t, lib.UpdatePaper(ctx, got))

	got, err = lib.GetPaper(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got.Status)
	assert.Equal(t, []string{"ml", "systems"}, got.TagList())

	require.NoError(t, lib.RemovePaper(ctx, p.ID))
	_, err = lib.GetPaper(ctx, p.ID)
	assert.Error(t, err)
}

func TestLibraryListPapers(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)

	for i := 0; i < 3; i++ {
		p := &Paper{Title: "Paper " + strconv.Itoa(i)}
		if i == 2 {
			p.Status = StatusDone
		}
		require.NoError(t, lib.AddPaper(ctx, p))
	}

	all, err := lib.ListPapers(ctx, "", 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	reading, err := lib.ListPapers(ctx, StatusReading, 0, 10)
	require.NoError(t, err)
	assert.Len(t, reading, 2)
}

func TestLibraryAnnotations(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)

	p := &Paper{Title: "A Paper"}
	require.NoError(t, lib.AddPaper(ctx, p))

	// Insert out of page order; listing sorts by page then creation time.
	for _, page := range []int{3, 1, 2} {
		a := &Annotation{
			Page:          page,
			Type:          Highlight,
			SelectionText: "text on page " + strconv.Itoa(page),
			Position:      &Position{X: 1, Y: 2, Width: 3, Height: 4},
		}
		require.NoError(t, lib.AddAnnotation(ctx, p.ID, a))
		require.NotZero(t, a.ID)
		time.Sleep(2 * time.Millisecond)
	}

	anns, err := lib.Annotations(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, anns, 3)
	assert.Equal(t, 1, anns[0].Page)
	assert.Equal(t, 2, anns[1].Page)
	assert.Equal(t, 3, anns[2].Page)
	require.NotNil(t, anns[0].Position)
	assert.Equal(t, 3.0, anns[0].Position.Width)
}

func TestLibraryAnnotationDefaults(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)

	p := &Paper{Title: "A Paper"}
	require.NoError(t, lib.AddPaper(ctx, p))

	a := &Annotation{SelectionText: "bare"}
	require.NoError(t, lib.AddAnnotation(ctx, p.ID, a))
	assert.Equal(t, 1, a.Page)
	assert.Equal(t, Highlight, a.Type)
	assert.Equal(t, DefaultColor, a.Color)
}

func TestLibraryAnnotationUnknownPaper(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)

	err := lib.AddAnnotation(ctx, 999, &Annotation{SelectionText: "x"})
	assert.Error(t, err)
}

func TestLibraryDeleteAnnotation(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)

	p := &Paper{Title: "A Paper"}
	require.NoError(t, lib.AddPaper(ctx, p))
	a := &Annotation{SelectionText: "x"}
	require.NoError(t, lib.AddAnnotation(ctx, p.ID, a))

	found, err := lib.DeleteAnnotation(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = lib.DeleteAnnotation(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLibraryStats(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)

	require.NoError(t, lib.AddPaper(ctx, &Paper{Title: "one"}))
	done := &Paper{Title: "two", Status: StatusDone}
	require.NoError(t, lib.AddPaper(ctx, done))
	require.NoError(t, lib.AddAnnotation(ctx, done.ID, &Annotation{SelectionText: "x"}))

	stats, err := lib.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalPapers)
	assert.Equal(t, int64(1), stats.Reading)
	assert.Equal(t, int64(1), stats.Done)
	assert.Equal(t, int64(1), stats.Annotations)
}

func TestLibrarySearch(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)

	require.NoError(t, lib.AddPaper(ctx, &Paper{
		Title:    "Attention Is All You Need",
		Abstract: "The dominant sequence transduction models...",
	}))
	require.NoError(t, lib.AddPaper(ctx, &Paper{
		Title: "Deep Residual Learning",
	}))

	results, err := lib.SearchPapers(ctx, "attention", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Attention Is All You Need", results[0].Title)

	// Typo within edit distance 1 still finds the paper via correction.
	results, err = lib.SearchPapers(ctx, "attentoin", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, results)

	results, err = lib.SearchPapers(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLibraryStoreAdapter(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)

	p := &Paper{Title: "A Paper"}
	require.NoError(t, lib.AddPaper(ctx, p))
	docID := strconv.FormatInt(p.ID, 10)

	store := &LibraryStore{Lib: lib}

	created, err := store.CreateAnnotation(ctx, docID, Annotation{
		Page:          2,
		Type:          Highlight,
		SelectionText: "words",
		Position:      &Position{Width: 1, Height: 1},
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	list, err := store.ListAnnotations(ctx, docID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	require.NoError(t, store.DeleteAnnotation(ctx, created.ID))

	err = store.DeleteAnnotation(ctx, created.ID)
	require.Error(t, err)
	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
}

func TestLibraryStoreBadDocID(t *testing.T) {
	store := &LibraryStore{Lib: newTestLibrary(t)}
	_, err := store.ListAnnotations(context.Background(), "not-a-number")
	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
}
