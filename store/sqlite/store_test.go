package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"ai_creation_broker/creation"
	"ai_creation_broker/store"
	"ai_creation_broker/store/sqlite"
	"ai_creation_broker/store/storetest"
)

func openTemp(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTemp(t) })
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s, err := sqlite.New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Insert(ctx, creation.New("u", "p", "c", creation.TypeArticle, false)); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateFreeUsage(ctx, "u", 7); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = sqlite.New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, _ := s.ListByUser(ctx, "u", creation.ListOpts{})
	if len(got) != 1 {
		t.Errorf("got %d creations after reopen", len(got))
	}
	if n, _ := s.FreeUsage(ctx, "u"); n != 7 {
		t.Errorf("free usage after reopen = %d", n)
	}
}
