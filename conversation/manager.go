package conversation

import (
	"context"
	"log"
	"sync"

	"github.com/helpdeskhq/support-router/types"
)

// Snapshotter persists session snapshots outside the process. Failures are
// tolerated: the in-memory state stays authoritative.
type Snapshotter interface {
	Save(ctx context.Context, c *Context) error
	Load(ctx context.Context, sessionID string) (*Context, error)
}

// Manager is a thread-safe store of conversation contexts keyed by session
// ID. Reads hand out copies so callers never share mutable state.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Context
	snaps    Snapshotter
}

// NewManager creates a session manager. snaps may be nil for pure in-memory
// operation.
func NewManager(snaps Snapshotter) *Manager {
	return &Manager{
		sessions: make(map[string]*Context),
		snaps:    snaps,
	}
}

// get returns the live context, creating it on first use. Caller must hold mu.
func (m *Manager) get(sessionID string) *Context {
	c, ok := m.sessions[sessionID]
	if !ok {
		c = m.restore(sessionID)
		m.sessions[sessionID] = c
	}
	return c
}

// restore tries the snapshot store before starting fresh.
func (m *Manager) restore(sessionID string) *Context {
	if m.snaps != nil {
		if c, err := m.snaps.Load(context.Background(), sessionID); err == nil && c != nil {
			if c.HandlerState == nil {
				c.HandlerState = make(map[string]string)
			}
			if c.CollectedDetails == nil {
				c.CollectedDetails = make(map[string]string)
			}
			return c
		}
	}
	return newContext(sessionID)
}

// View returns a copy of the session context, creating the session if new.
func (m *Manager) View(sessionID string) Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyContext(m.get(sessionID))
}

// Lookup returns a copy of an existing session without creating one. Unknown
// IDs report types.ErrSessionNotFound so read surfaces can answer 404 instead
// of minting empty sessions.
func (m *Manager) Lookup(sessionID string) (Context, error) {
	m.mu.RLock()
	if c, ok := m.sessions[sessionID]; ok {
		defer m.mu.RUnlock()
		return copyContext(c), nil
	}
	m.mu.RUnlock()

	if m.snaps != nil {
		if c, err := m.snaps.Load(context.Background(), sessionID); err == nil && c != nil {
			m.mu.Lock()
			defer m.mu.Unlock()
			return copyContext(m.get(sessionID)), nil
		}
	}
	return Context{}, types.NewCollaboratorError(types.ErrorCodeSessionNotFound,
		"no conversation on record for "+sessionID, "sessions").WithCause(types.ErrSessionNotFound)
}

// AddMessage appends a turn to the session history.
func (m *Manager) AddMessage(sessionID string, msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(sessionID).addMessage(msg)
}

// SetActiveHandler marks handler as owning the conversation.
func (m *Manager) SetActiveHandler(sessionID, handler string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(sessionID).CurrentHandler = handler
}

// ClearActiveHandler releases the conversation: the handler, its state and
// any pending action are cleared together so no stale lock survives.
func (m *Manager) ClearActiveHandler(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.get(sessionID)
	c.CurrentHandler = ""
	c.PendingAction = ""
	c.HandlerState = make(map[string]string)
}

// SetPendingAction records what the active handler is waiting for.
func (m *Manager) SetPendingAction(sessionID, action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(sessionID).PendingAction = action
}

// SetHandlerState stores handler-scoped state, cleared with the handler.
func (m *Manager) SetHandlerState(sessionID, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(sessionID).HandlerState[key] = value
}

// CollectDetail stores a detail gathered during the conversation.
func (m *Manager) CollectDetail(sessionID, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(sessionID).CollectedDetails[key] = value
}

// CollectedDetails returns a copy of the gathered details.
func (m *Manager) CollectedDetails(sessionID string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyMap(m.get(sessionID).CollectedDetails)
}

// LastOrderReference returns the session's most recent order reference.
func (m *Manager) LastOrderReference(sessionID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(sessionID).LastOrderReference()
}

// Reset drops all state for the session.
func (m *Manager) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Persist writes the session snapshot to the configured store. Best-effort:
// failures are logged and ignored.
func (m *Manager) Persist(ctx context.Context, sessionID string) {
	if m.snaps == nil {
		return
	}
	snapshot := m.View(sessionID)
	if err := m.snaps.Save(ctx, &snapshot); err != nil {
		log.Printf("[conversation] snapshot save failed for %s: %v", sessionID, err)
	}
}

func copyContext(c *Context) Context {
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	out.HandlerState = copyMap(c.HandlerState)
	out.CollectedDetails = copyMap(c.CollectedDetails)
	return out
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
