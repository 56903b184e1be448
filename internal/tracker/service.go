// Package tracker implements tenant-scoped reads, aggregate statistics and
// single-row mutations over organizations, projects, tasks and comments.
//
// Every operation takes an organization slug. Single-entity reads and all
// mutations fail with ErrNotFound when the scoping chain does not resolve;
// collection and aggregate reads return an empty result instead.
package tracker

import (
	"github.com/joescharf/tracker/internal/store"
)

// Observer is notified after every mutation.
type Observer interface {
	Mutation(operation string, err error)
}

// Service is the single entry point used by every surface.
type Service struct {
	store    store.Store
	observer Observer
}

// Option configures a Service.
type Option func(*Service)

// WithObserver registers an Observer for mutation outcomes.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// NewService creates a Service over the given store.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{store: st}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) observe(operation string, err error) {
	if s.observer != nil {
		s.observer.Mutation(operation, err)
	}
}
