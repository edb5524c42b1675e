package pagemap

import (
	"context"
	"fmt"
	"sync"
)

// Session keeps the latest build for one page. Identifiers are only ever
// resolved against that build, so an identifier held across an Observe call
// fails with ErrNotFound unless the new build reuses it.
type Session struct {
	builder *Builder
	src     Source
	mode    Mode

	mu      sync.RWMutex
	current *PageMap
}

func NewSession(b *Builder, src Source, mode Mode) *Session {
	return &Session{builder: b, src: src, mode: mode}
}

// Observe builds a fresh page map and makes it current.
func (s *Session) Observe(ctx context.Context) (*PageMap, error) {
	pm, err := s.builder.Build(ctx, s.src, s.mode)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.current = pm
	s.mu.Unlock()
	return pm, nil
}

// Current returns the latest build, or nil before the first Observe.
func (s *Session) Current() *PageMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Invalidate drops the current build, e.g. after navigating away.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Resolve resolves id against the current build.
func (s *Session) Resolve(id string) (string, error) {
	pm := s.Current()
	if pm == nil {
		return "", fmt.Errorf("%w: %s (page not observed)", ErrNotFound, id)
	}
	return pm.Resolve(id)
}
