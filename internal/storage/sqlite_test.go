package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"grepbot/internal/model"
)

var sortGreps = cmpopts.SortSlices(func(a, b model.Grep) bool {
	if a.UserID != b.UserID {
		return a.UserID < b.UserID
	}
	return a.Pattern < b.Pattern
})

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGrepCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	greps := []model.Grep{
		{Pattern: "error", UserID: 42},
		{Pattern: "warn", UserID: 7},
		{Pattern: "warn", UserID: 42},
	}
	for _, g := range greps {
		if err := s.CreateGrep(ctx, g); err != nil {
			t.Fatalf("create %v: %v", g, err)
		}
	}

	got, err := s.ListGreps(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff(greps, got, sortGreps); diff != "" {
		t.Errorf("ListGreps mismatch (-want +got):\n%s", diff)
	}

	if err := s.DeleteGrep(ctx, model.Grep{Pattern: "warn", UserID: 42}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err = s.ListGreps(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []model.Grep{
		{Pattern: "error", UserID: 42},
		{Pattern: "warn", UserID: 7},
	}
	if diff := cmp.Diff(want, got, sortGreps); diff != "" {
		t.Errorf("ListGreps after delete mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateGrepIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	g := model.Grep{Pattern: `deploy\s+\d+`, UserID: 1}
	for range 2 {
		if err := s.CreateGrep(ctx, g); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := s.ListGreps(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]model.Grep{g}, got); diff != "" {
		t.Errorf("ListGreps mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteMissingGrep(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if err := s.DeleteGrep(ctx, model.Grep{Pattern: "nothing", UserID: 1}); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestListGrepsEmpty(t *testing.T) {
	s := newTestDB(t)

	got, err := s.ListGreps(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no greps, got %v", got)
	}
}

func TestReplaceGreps(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if err := s.CreateGrep(ctx, model.Grep{Pattern: "old", UserID: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	replacement := []model.Grep{
		{Pattern: "new", UserID: 1},
		{Pattern: "new", UserID: 2},
		{Pattern: "new", UserID: 2},
	}
	if err := s.ReplaceGreps(ctx, replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := s.ListGreps(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []model.Grep{
		{Pattern: "new", UserID: 1},
		{Pattern: "new", UserID: 2},
	}
	if diff := cmp.Diff(want, got, sortGreps); diff != "" {
		t.Errorf("ListGreps mismatch (-want +got):\n%s", diff)
	}
}

func TestReopenKeepsGreps(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "greps.db")

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	g := model.Grep{Pattern: "(?i)outage", UserID: 9}
	if err := s.CreateGrep(ctx, g); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.ListGreps(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]model.Grep{g}, got); diff != "" {
		t.Errorf("ListGreps mismatch (-want +got):\n%s", diff)
	}
}
