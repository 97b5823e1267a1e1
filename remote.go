package paperstack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RemoteStore is the authoritative annotation collaborator the viewer syncs
// against. Implementations are the HTTP Client below and the in-process
// LibraryStore.
type RemoteStore interface {
	ListAnnotations(ctx context.Context, docID string) ([]Annotation, error)
	CreateAnnotation(ctx context.Context, docID string, a Annotation) (Annotation, error)
	DeleteAnnotation(ctx context.Context, id int64) error
}

// SyncError reports a failed exchange with the remote annotation store.
// The local cache is left exactly as before the call; the user operation
// fails to persist but nothing needs rolling back.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("annotation sync: %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

func syncErr(op string, err error) error {
	if _, ok := err.(*SyncError); ok {
		return err
	}
	return &SyncError{Op: op, Err: err}
}

// Client talks to a paperstack server over HTTP.
type Client struct {
	// BaseURL is the server root, e.g. "http://127.0.0.1:5000".
	BaseURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

// FetchDocument retrieves the raw document bytes.
func (c *Client) FetchDocument(ctx context.Context, docID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url("/document/"+docID), nil)
	if err != nil {
		return nil, &DocumentLoadError{ID: docID, Err: err}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &DocumentLoadError{ID: docID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &DocumentLoadError{ID: docID, Err: fmt.Errorf("http %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &DocumentLoadError{ID: docID, Err: err}
	}
	return body, nil
}

// FetchMeta retrieves the document's title, authors, and tags.
func (c *Client) FetchMeta(ctx context.Context, docID string) (*DocumentMeta, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url("/document/"+docID+"/meta"), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %s", resp.Status)
	}

	var meta DocumentMeta
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("parse meta: %w", err)
	}
	return &meta, nil
}

// ListAnnotations retrieves the document's annotations in server order.
func (c *Client) ListAnnotations(ctx context.Context, docID string) ([]Annotation, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url("/document/"+docID+"/annotations"), nil)
	if err != nil {
		return nil, &SyncError{Op: "list", Err: err}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &SyncError{Op: "list", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SyncError{Op: "list", Err: fmt.Errorf("http %s", resp.Status)}
	}

	var list []Annotation
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, &SyncError{Op: "list", Err: fmt.Errorf("parse annotations: %w", err)}
	}
	return list, nil
}

// CreateAnnotation sends a new annotation record and returns it with the
// server-assigned id.
func (c *Client) CreateAnnotation(ctx context.Context, docID string, a Annotation) (Annotation, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return Annotation{}, &SyncError{Op: "create", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url("/document/"+docID+"/annotations"), bytes.NewReader(body))
	if err != nil {
		return Annotation{}, &SyncError{Op: "create", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Annotation{}, &SyncError{Op: "create", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Annotation{}, &SyncError{Op: "create", Err: fmt.Errorf("http %s", resp.Status)}
	}

	var created Annotation
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return Annotation{}, &SyncError{Op: "create", Err: fmt.Errorf("parse created annotation: %w", err)}
	}
	return created, nil
}

// DeleteAnnotation deletes an annotation by its server-assigned id.
func (c *Client) DeleteAnnotation(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.url(fmt.Sprintf("/annotations/%d", id)), nil)
	if err != nil {
		return &SyncError{Op: "delete", Err: err}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &SyncError{Op: "delete", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return &SyncError{Op: "delete", Err: fmt.Errorf("http %s", resp.Status)}
	}
	return nil
}
