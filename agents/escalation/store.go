package escalation

import (
	"sync"
	"time"
)

// flow is one in-progress escalation, keyed by session ID.
type flow struct {
	Slots     slots
	Stage     Stage
	UpdatedAt time.Time
}

// flowStore keeps per-session escalation flows. Separate from the
// conversation manager so the FSM state cannot leak into other handlers.
type flowStore struct {
	mu sync.Mutex
	m  map[string]*flow
}

func newFlowStore() *flowStore {
	return &flowStore{m: make(map[string]*flow)}
}

func (s *flowStore) get(sessionID string) (*flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.m[sessionID]
	if !ok {
		return nil, false
	}
	cp := *f
	return &cp, true
}

func (s *flowStore) put(sessionID string, f *flow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.UpdatedAt = time.Now()
	cp := *f
	s.m[sessionID] = &cp
}

func (s *flowStore) del(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, sessionID)
}

// active reports whether the session has an in-flight escalation.
func (s *flowStore) active(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[sessionID]
	return ok
}
