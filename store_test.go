package paperstack

import (
	"context"
	"errors"
	"testing"
)

// fakeRemote is a scriptable in-memory RemoteStore.
type fakeRemote struct {
	annotations []Annotation
	nextID      int64

	listErr   error
	createErr error
	deleteErr error

	listCalls   int
	createCalls int
	deleteCalls int
}

func (f *fakeRemote) ListAnnotations(ctx context.Context, docID string) ([]Annotation, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Annotation, len(f.annotations))
	copy(out, f.annotations)
	return out, nil
}

func (f *fakeRemote) CreateAnnotation(ctx context.Context, docID string, a Annotation) (Annotation, error) {
	f.createCalls++
	if f.createErr != nil {
		return Annotation{}, f.createErr
	}
	f.nextID++
	a.ID = f.nextID
	f.annotations = append(f.annotations, a)
	return a, nil
}

func (f *fakeRemote) DeleteAnnotation(ctx context.Context, id int64) error {
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, a := range f.annotations {
		if a.ID == id {
			f.annotations = append(f.annotations[:i], f.annotations[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func TestStoreLoadAll(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{annotations: []Annotation{
		{ID: 1, Page: 2, Type: Highlight},
		{ID: 2, Page: 1, Type: Comment, Content: "note"},
	}, nextID: 2}

	s := NewAnnotationStore("doc", remote)
	if err := s.LoadAll(ctx); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	// Arrival order preserved, not re-sorted.
	all := s.All()
	if all[0].ID != 1 || all[1].ID != 2 {
		t.Errorf("cache order = [%d %d], want [1 2]", all[0].ID, all[1].ID)
	}
}

func TestStoreLoadAllFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{annotations: []Annotation{{ID: 1, Page: 1}}, nextID: 1}

	s := NewAnnotationStore("doc", remote)
	if err := s.LoadAll(ctx); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	remote.listErr = errors.New("connection refused")
	err := s.LoadAll(ctx)
	if err == nil {
		t.Fatal("LoadAll succeeded with failing remote")
	}
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Errorf("LoadAll error = %T, want *SyncError", err)
	}
	if s.Len() != 1 {
		t.Errorf("failed reload clobbered cache: Len() = %d, want 1", s.Len())
	}
}

func TestStoreCreate(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	s := NewAnnotationStore("doc", remote)

	created, err := s.Create(ctx, 3, Highlight, Position{X: 1, Y: 2, Width: 3, Height: 4}, "selected words", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 {
		t.Error("created annotation has no server-assigned id")
	}
	if created.Color != DefaultColor {
		t.Errorf("Color = %q, want default %q", created.Color, DefaultColor)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStoreCreateFailureNoOptimisticInsert(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{createErr: errors.New("boom")}
	s := NewAnnotationStore("doc", remote)

	_, err := s.Create(ctx, 1, Highlight, Position{Width: 1, Height: 1}, "text", "", "")
	if err == nil {
		t.Fatal("Create succeeded with failing remote")
	}
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Errorf("Create error = %T, want *SyncError", err)
	}
	if s.Len() != 0 {
		t.Errorf("failed create left a speculative entry: Len() = %d, want 0", s.Len())
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{annotations: []Annotation{
		{ID: 1, Page: 1}, {ID: 2, Page: 1}, {ID: 3, Page: 2},
	}, nextID: 3}
	s := NewAnnotationStore("doc", remote)
	if err := s.LoadAll(ctx); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if err := s.Delete(ctx, 2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	// Remaining entries keep their relative order.
	all := s.All()
	if all[0].ID != 1 || all[1].ID != 3 {
		t.Errorf("cache order after delete = [%d %d], want [1 3]", all[0].ID, all[1].ID)
	}
}

func TestStoreDeleteAbsentIsNoOp(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{annotations: []Annotation{{ID: 1, Page: 1}}, nextID: 1}
	s := NewAnnotationStore("doc", remote)
	if err := s.LoadAll(ctx); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if err := s.Delete(ctx, 99); err != nil {
		t.Fatalf("Delete of absent id: %v", err)
	}
	if remote.deleteCalls != 0 {
		t.Errorf("delete of absent id reached the remote (%d calls)", remote.deleteCalls)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStoreDeleteFailureKeepsEntry(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{annotations: []Annotation{{ID: 1, Page: 1}}, nextID: 1}
	s := NewAnnotationStore("doc", remote)
	if err := s.LoadAll(ctx); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	remote.deleteErr = errors.New("boom")
	if err := s.Delete(ctx, 1); err == nil {
		t.Fatal("Delete succeeded with failing remote")
	}
	if s.Len() != 1 {
		t.Errorf("failed delete removed the local entry: Len() = %d, want 1", s.Len())
	}
}

func TestStoreByPage(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{annotations: []Annotation{
		{ID: 1, Page: 2},
		{ID: 2, Page: 1},
		{ID: 3, Page: 2},
		{ID: 4, Page: 3},
	}, nextID: 4}
	s := NewAnnotationStore("doc", remote)
	if err := s.LoadAll(ctx); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	page2 := s.ByPage(2)
	if len(page2) != 2 || page2[0].ID != 1 || page2[1].ID != 3 {
		t.Errorf("ByPage(2) = %+v, want ids [1 3] in cache order", page2)
	}
	if got := s.ByPage(7); len(got) != 0 {
		t.Errorf("ByPage(7) = %+v, want empty", got)
	}
}
