// Package provider wraps each external capability behind one Adapter interface.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Capability names one adapter.
type Capability string

const (
	CapArticle          Capability = "article"
	CapBlogTitles       Capability = "blog-titles"
	CapImageGenerate    Capability = "image-generate"
	CapBackgroundRemove Capability = "background-remove"
	CapObjectRemove     Capability = "object-remove"
	CapResumeReview     Capability = "resume-review"
)

// Input is the normalized request handed to an adapter. Each adapter reads
// only the fields it needs.
type Input struct {
	Prompt    string
	Length    int
	Publish   bool
	Image     []byte
	ImageName string
	Object    string
	Document  []byte
}

// Output is the normalized result: generated text or a media URL.
type Output struct {
	Content string
}

// Adapter performs one blocking round-trip to an external service.
// Adapters never retry and never cache.
type Adapter interface {
	Capability() Capability
	Invoke(ctx context.Context, in Input) (Output, error)
}

// Error is a failure reported by an external service. The message is the
// provider's own text.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s Error: %s", e.Provider, e.Err.Error())
}

func (e *Error) Unwrap() error { return e.Err }

func fail(provider string, err error) error {
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Provider: provider, Err: err}
}

// Registry maps capabilities to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[Capability]Adapter
}

func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[Capability]Adapter)}
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a; a second adapter for the same capability is an error.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.adapters[a.Capability()]; ok {
		return fmt.Errorf("provider: duplicate adapter for %s", a.Capability())
	}
	r.adapters[a.Capability()] = a
	return nil
}

// Get returns the adapter for c.
func (r *Registry) Get(c Capability) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[c]
	return a, ok
}

// Capabilities lists the registered capabilities in name order.
func (r *Registry) Capabilities() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Capability, 0, len(r.adapters))
	for c := range r.adapters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
