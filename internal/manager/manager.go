// Package manager implements the session manager (spec §4.7): a registry
// mapping session IDs to sessions, with reader-writer concurrency for
// lookups versus insert/remove. It is a plain sync.RWMutex-guarded map,
// not an lnd actor, because an actor's single mailbox would serialize the
// "many concurrent lookups" spec §4.7 explicitly asks for — the same
// reasoning that keeps internal/session's state machine off the actor
// system.
package manager

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dapbridge/mcp-debugger/internal/adapter"
	"github.com/dapbridge/mcp-debugger/internal/errs"
	"github.com/dapbridge/mcp-debugger/internal/session"
)

// Manager owns every live Session for this process.
type Manager struct {
	outputSink io.Writer

	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// New creates an empty Manager. outputSink receives forwarded `output`
// events from every session (diagnostic only, not part of state).
func New(outputSink io.Writer) *Manager {
	return &Manager{
		outputSink: outputSink,
		sessions:   make(map[string]*session.Session),
	}
}

// CreateSession builds a session, runs its startup sequence to completion
// (Running, or Stopped if stopOnEntry), and only then inserts it into the
// registry. A failure at any step tears the partial session down before
// the error is returned (spec §4.7).
func (m *Manager) CreateSession(ctx context.Context, params session.StartParams) (*session.Session, error) {
	cfg, ok := adapter.Lookup(params.Language)
	if !ok {
		return nil, errs.AdapterNotFound(params.Language)
	}

	s := session.New(params, cfg, m.outputSink)

	if err := s.Start(ctx); err != nil {
		_ = s.Disconnect(context.Background())
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s, nil
}

// Get looks up a session by id.
func (m *Manager) Get(id string) (*session.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errs.SessionNotFound(id)
	}
	return s, nil
}

// DestroySession disconnects and removes a session. Idempotent: an unknown
// or already-removed id is not an error.
func (m *Manager) DestroySession(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Disconnect(ctx)
}

// List returns every currently registered session.
func (m *Manager) List() []*session.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Shutdown tears down every session concurrently, for clean process exit.
// Each session's Disconnect has its own bounded timeout (spec §5), so a
// slow or wedged adapter cannot delay the others; golang.org/x/sync's
// errgroup just waits for the whole fan-out instead of reimplementing a
// WaitGroup-plus-error-collection by hand.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*session.Session)
	m.mu.Unlock()

	var g errgroup.Group
	for _, s := range sessions {
		s := s
		g.Go(func() error { return s.Disconnect(ctx) })
	}
	_ = g.Wait()
}
