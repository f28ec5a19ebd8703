// Package memory is an in-process store.Store for tests and -mock runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"ai_creation_broker/creation"
	"ai_creation_broker/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu        sync.RWMutex
	creations []*creation.Creation
	usage     map[string]int
}

func New() *Store {
	return &Store{usage: make(map[string]int)}
}

func (s *Store) Insert(_ context.Context, c *creation.Creation) error {
	if err := c.Validate(); err != nil {
		return err
	}
	cp := *c
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creations = append(s.creations, &cp)
	return nil
}

func (s *Store) ListByUser(_ context.Context, userID string, opts creation.ListOpts) ([]*creation.Creation, error) {
	return s.list(opts, func(c *creation.Creation) bool { return c.UserID == userID }), nil
}

func (s *Store) ListPublished(_ context.Context, opts creation.ListOpts) ([]*creation.Creation, error) {
	return s.list(opts, func(c *creation.Creation) bool { return c.Publish }), nil
}

func (s *Store) list(opts creation.ListOpts, keep func(*creation.Creation) bool) []*creation.Creation {
	opts = opts.Normalize()

	s.mu.RLock()
	var matched []*creation.Creation
	for _, c := range s.creations {
		if keep(c) {
			cp := *c
			matched = append(matched, &cp)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() > matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := opts.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + opts.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end]
}

// Len returns the number of stored creations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.creations)
}

func (s *Store) FreeUsage(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage[userID], nil
}

func (s *Store) UpdateFreeUsage(_ context.Context, userID string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[userID] = value
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }
