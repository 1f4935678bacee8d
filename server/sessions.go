package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/plancraft/plancraft/catalog"
	"github.com/plancraft/plancraft/pricing"
	"github.com/plancraft/plancraft/store"
	"github.com/plancraft/plancraft/workflow"
)

// Deps is the component graph a session engine is built from.
type Deps struct {
	Catalog   *catalog.Catalog
	Validator workflow.Validator
	Pricer    *pricing.Calculator
	Discounts []pricing.Discount
	Store     store.Store
	Logger    *slog.Logger
}

// Sessions tracks live engines by session id and resumes cold sessions
// from the store.
type Sessions struct {
	mu      sync.Mutex
	engines map[string]*workflow.Engine
	deps    Deps
}

func NewSessions(deps Deps) *Sessions {
	return &Sessions{
		engines: make(map[string]*workflow.Engine),
		deps:    deps,
	}
}

// Create starts a new configuration session with a fresh id.
func (s *Sessions) Create() (string, *workflow.Engine) {
	id := uuid.New().String()
	engine := workflow.NewEngine(id, s.deps.Catalog, s.deps.Validator, s.deps.Pricer, s.deps.Discounts, s.deps.Store, s.deps.Logger)

	s.mu.Lock()
	s.engines[id] = engine
	s.mu.Unlock()

	return id, engine
}

// Get returns the live engine for the session, resuming it from the
// store when this process has not seen the id before.
func (s *Sessions) Get(ctx context.Context, id string) (*workflow.Engine, error) {
	s.mu.Lock()
	if engine, ok := s.engines[id]; ok {
		s.mu.Unlock()
		return engine, nil
	}
	s.mu.Unlock()

	engine, err := workflow.Resume(ctx, id, s.deps.Catalog, s.deps.Validator, s.deps.Pricer, s.deps.Discounts, s.deps.Store, s.deps.Logger)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// another request may have resumed it concurrently; keep the first
	if existing, ok := s.engines[id]; ok {
		return existing, nil
	}
	s.engines[id] = engine
	return engine, nil
}

// Drop removes a live engine, e.g. after its session was deleted.
func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.engines, id)
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
