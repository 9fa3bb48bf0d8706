// Package memory provides an in-process visited-URL set.
package memory

import (
	"context"
	"sync"
)

// Set is a mutex-guarded set of URLs, safe for concurrent workers.
type Set struct {
	mu   sync.RWMutex
	urls map[string]struct{}
}

// New returns an empty Set.
func New() *Set {
	return &Set{urls: make(map[string]struct{})}
}

// MarkVisited records url.
func (s *Set) MarkVisited(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls[url] = struct{}{}
	return nil
}

// IsVisited reports whether url has been recorded.
func (s *Set) IsVisited(_ context.Context, url string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.urls[url]
	return ok, nil
}

// Count returns the number of distinct URLs recorded.
func (s *Set) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.urls), nil
}

// Reset forgets every URL.
func (s *Set) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = make(map[string]struct{})
	return nil
}
