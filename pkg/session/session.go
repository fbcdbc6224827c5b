// Package session implements the Session Store: the authoritative registry
// of logical user seats, each driven through its connect-state machine by
// its own per-session executor.
package session

import (
	"sync"
	"time"

	"github.com/ogon-project/sessionmgr/pkg/backend"
	"github.com/ogon-project/sessionmgr/pkg/permission"
)

// ConnectState is a Session's position in the connect-state machine:
// Init -> Connected -> Active -> Disconnected -> Active (reconnect) -> Down,
// with Active -> Shadow -> Active available while remote-controlled.
type ConnectState int

const (
	StateInit ConnectState = iota
	StateConnected
	StateActive
	StateDisconnected
	StateShadow
	StateDown
)

func (s ConnectState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateConnected:
		return "connected"
	case StateActive:
		return "active"
	case StateDisconnected:
		return "disconnected"
	case StateShadow:
		return "shadow"
	case StateDown:
		return "down"
	default:
		return "unknown"
	}
}

// Session is one logical user seat. The Store exclusively owns Session
// values; everyone else holds a sessionId and re-resolves through the
// store, per the ownership rule in SPEC_FULL.md section 4.

type Session struct {
	mu sync.Mutex

	ID                     uint32
	UserName               string
	Domain                 string
	AuthUserName           string
	AuthDomain             string
	ClientHostName         string
	ModuleConfigName       string
	ConnectState           ConnectState
	ConnectStateChangeTime time.Time
	UserToken              string
	AuthBackend            backend.Module
	Backend                backend.Module
	SBPCompatible          bool
	Permissions            permission.Flags

	// RemoteControlSourceID is the sessionId currently shadowing this
	// session (StateShadow only); 0 otherwise.
	RemoteControlSourceID uint32
}

// setState transitions the session, stamping the change time. Callers must
// already hold a SessionAccessor bound to this session (i.e. run on its
// executor goroutine) so this needs no additional locking beyond mu, which
// exists to protect reads from outside the executor (e.g. admin-API status
// queries) rather than to serialize writers.
func (s *Session) setState(st ConnectState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ConnectState = st
	s.ConnectStateChangeTime = time.Now()
}

// Snapshot is a read-only copy of a Session's fields, safe to hand to
// callers outside the owning executor (administrative status queries,
// DBus notifications).
type Snapshot struct {
	ID                     uint32
	UserName               string
	Domain                 string
	ClientHostName         string
	ConnectState           ConnectState
	ConnectStateChangeTime time.Time
	Permissions            permission.Flags
}

func (s *Session) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:                     s.ID,
		UserName:               s.UserName,
		Domain:                 s.Domain,
		ClientHostName:         s.ClientHostName,
		ConnectState:           s.ConnectState,
		ConnectStateChangeTime: s.ConnectStateChangeTime,
		Permissions:            s.Permissions,
	}
}

// Store is the concurrent Session registry. The zero value is not usable;
// use NewStore.
type Store struct {
	mu      sync.RWMutex
	nextID  uint32
	byID    map[uint32]*Session
}

// NewStore returns an empty, ready-to-use Store.
func NewStore() *Store {
	return &Store{byID: make(map[uint32]*Session)}
}

// Create allocates a new sessionId (monotonic, never reused within the
// process lifetime) and registers a Session in StateInit.
func (st *Store) Create(userName, domain, authUserName, authDomain, clientHostName, moduleConfigName string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.nextID++
	s := &Session{
		ID:                     st.nextID,
		UserName:               userName,
		Domain:                 domain,
		AuthUserName:           authUserName,
		AuthDomain:             authDomain,
		ClientHostName:         clientHostName,
		ModuleConfigName:       moduleConfigName,
		ConnectState:           StateInit,
		ConnectStateChangeTime: time.Now(),
	}
	st.byID[s.ID] = s
	return s
}

// Get returns the session for id, or nil if absent. Absence is not an
// error: callers must treat a nil result as a recoverable lookup-miss.
func (st *Store) Get(id uint32) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.byID[id]
}

// Remove drops the session for id. A miss is a no-op.
func (st *Store) Remove(id uint32) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.byID, id)
}

// Enumerate returns a snapshot sequence of every live session's id, taken
// under the store lock and copied out so callers never block the store.
func (st *Store) Enumerate() []uint32 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]uint32, 0, len(st.byID))
	for id := range st.byID {
		ids = append(ids, id)
	}
	return ids
}

// GetAllSessions returns a read-only snapshot of every live session.
func (st *Store) GetAllSessions() []Snapshot {
	st.mu.RLock()
	sessions := make([]*Session, 0, len(st.byID))
	for _, s := range st.byID {
		sessions = append(sessions, s)
	}
	st.mu.RUnlock()

	out := make([]Snapshot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.snapshot())
	}
	return out
}

// Snapshot returns a read-only copy of one session's fields, or the zero
// Snapshot and false if id is not registered.
func (st *Store) Snapshot(id uint32) (Snapshot, bool) {
	s := st.Get(id)
	if s == nil {
		return Snapshot{}, false
	}
	return s.snapshot(), true
}
