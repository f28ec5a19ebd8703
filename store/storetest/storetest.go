// Package storetest holds the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"ai_creation_broker/creation"
	"ai_creation_broker/store"
)

// Run exercises s; newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("InsertAndListByUser", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, typ := range []creation.Type{creation.TypeArticle, creation.TypeImage, creation.TypeArticle} {
			c := creation.New("alice", "prompt", "content", typ, false)
			c.CreatedAt = base.Add(time.Duration(i) * time.Minute)
			if err := s.Insert(ctx, c); err != nil {
				t.Fatalf("insert %d: %v", i, err)
			}
		}
		if err := s.Insert(ctx, creation.New("bob", "p", "c", creation.TypeArticle, false)); err != nil {
			t.Fatal(err)
		}

		got, err := s.ListByUser(ctx, "alice", creation.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d creations, want 3", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].CreatedAt.After(got[i-1].CreatedAt) {
				t.Errorf("creations not newest first at %d", i)
			}
		}
		if got[0].Type != creation.TypeArticle || got[1].Type != creation.TypeImage {
			t.Errorf("unexpected order: %s, %s", got[0].Type, got[1].Type)
		}

		page, err := s.ListByUser(ctx, "alice", creation.ListOpts{Limit: 1, Offset: 1})
		if err != nil {
			t.Fatal(err)
		}
		if len(page) != 1 || page[0].ID.String() != got[1].ID.String() {
			t.Errorf("pagination returned %v", page)
		}
	})

	t.Run("RoundTripFields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		c := creation.New("carol", "Removed cat from image", "https://img/x", creation.TypeImage, true)
		if err := s.Insert(ctx, c); err != nil {
			t.Fatal(err)
		}
		got, err := s.ListByUser(ctx, "carol", creation.ListOpts{})
		if err != nil || len(got) != 1 {
			t.Fatalf("list: %v (%d)", err, len(got))
		}
		g := got[0]
		if g.ID.String() != c.ID.String() || g.Prompt != c.Prompt || g.Content != c.Content ||
			g.Type != c.Type || g.Publish != c.Publish || g.UserID != c.UserID {
			t.Errorf("round trip mismatch: %+v vs %+v", g, c)
		}
		if !g.CreatedAt.Equal(c.CreatedAt.Truncate(time.Millisecond)) && !g.CreatedAt.Equal(c.CreatedAt) {
			t.Errorf("created_at %v vs %v", g.CreatedAt, c.CreatedAt)
		}
	})

	t.Run("DuplicatePromptsAreIndependent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for i := 0; i < 2; i++ {
			if err := s.Insert(ctx, creation.New("dave", "same", "same", creation.TypeArticle, false)); err != nil {
				t.Fatal(err)
			}
		}
		got, _ := s.ListByUser(ctx, "dave", creation.ListOpts{})
		if len(got) != 2 {
			t.Errorf("got %d, want 2 independent records", len(got))
		}
	})

	t.Run("ListPublished", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_ = s.Insert(ctx, creation.New("erin", "a", "u1", creation.TypeImage, true))
		_ = s.Insert(ctx, creation.New("erin", "b", "u2", creation.TypeImage, false))
		_ = s.Insert(ctx, creation.New("frank", "c", "u3", creation.TypeImage, true))

		got, err := s.ListPublished(ctx, creation.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d published, want 2", len(got))
		}
		for _, c := range got {
			if !c.Publish {
				t.Errorf("unpublished creation %s listed", c.ID)
			}
		}
	})

	t.Run("InsertRejectsInvalid", func(t *testing.T) {
		s := newStore(t)
		if err := s.Insert(context.Background(), &creation.Creation{UserID: "x", Type: "video", ID: creation.NewID()}); err == nil {
			t.Error("expected error for invalid type")
		}
	})

	t.Run("FreeUsage", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		n, err := s.FreeUsage(ctx, "nobody")
		if err != nil || n != 0 {
			t.Fatalf("unknown user: %d, %v", n, err)
		}
		if err := s.UpdateFreeUsage(ctx, "gina", 4); err != nil {
			t.Fatal(err)
		}
		if err := s.UpdateFreeUsage(ctx, "gina", 5); err != nil {
			t.Fatal(err)
		}
		n, err = s.FreeUsage(ctx, "gina")
		if err != nil || n != 5 {
			t.Errorf("got %d, %v; want 5", n, err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := newStore(t).Ping(context.Background()); err != nil {
			t.Errorf("ping: %v", err)
		}
	})
}
