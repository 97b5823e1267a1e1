package paperstack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetchDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/document/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	body, err := c.FetchDocument(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 fake"), body)
}

func TestClientFetchDocumentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	_, err := c.FetchDocument(context.Background(), "missing")
	require.Error(t, err)

	var loadErr *DocumentLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "missing", loadErr.ID)
}

func TestClientFetchMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/document/7/meta", r.URL.Path)
		json.NewEncoder(w).Encode(DocumentMeta{
			Title:   "Attention Is All You Need",
			Authors: "Vaswani et al.",
			Tags:    []string{"transformers"},
		})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	meta, err := c.FetchMeta(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Attention Is All You Need", meta.Title)
	assert.Equal(t, []string{"transformers"}, meta.Tags)
}

func TestClientListAnnotations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/document/7/annotations", r.URL.Path)
		require.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode([]Annotation{
			{ID: 1, Page: 1, Type: Highlight, Color: "#ffeb3b"},
			{ID: 2, Page: 3, Type: Comment, Content: "note"},
		})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	list, err := c.ListAnnotations(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, Comment, list[1].Type)
}

func TestClientListAnnotationsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	_, err := c.ListAnnotations(context.Background(), "7")
	require.Error(t, err)

	var syncErr *SyncError
	require.True(t, errors.As(err, &syncErr))
	assert.Equal(t, "list", syncErr.Op)
}

func TestClientCreateAnnotation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/document/7/annotations", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var a Annotation
		require.NoError(t, json.NewDecoder(r.Body).Decode(&a))
		a.ID = 99
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(a)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	created, err := c.CreateAnnotation(context.Background(), "7", Annotation{
		Page:          2,
		Type:          Highlight,
		SelectionText: "the quick brown fox",
		Position:      &Position{X: 1, Y: 2, Width: 3, Height: 4},
		Color:         "#ffeb3b",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(99), created.ID)
	assert.Equal(t, "the quick brown fox", created.SelectionText)
}

func TestClientCreateAnnotationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	_, err := c.CreateAnnotation(context.Background(), "7", Annotation{Page: 1})
	require.Error(t, err)

	var syncErr *SyncError
	require.True(t, errors.As(err, &syncErr))
	assert.Equal(t, "create", syncErr.Op)
}

func TestClientDeleteAnnotation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/annotations/5", r.URL.Path)
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	require.NoError(t, c.DeleteAnnotation(context.Background(), 5))
}

func TestClientDeleteAnnotationMissing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	err := c.DeleteAnnotation(context.Background(), 5)
	require.Error(t, err)

	var syncErr *SyncError
	require.True(t, errors.As(err, &syncErr))
	assert.Equal(t, "delete", syncErr.Op)
}

func TestClientTrailingSlashBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/document/1/annotations", r.URL.Path)
		json.NewEncoder(w).Encode([]Annotation{})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL + "/"}
	_, err := c.ListAnnotations(context.Background(), "1")
	require.NoError(t, err)
}
