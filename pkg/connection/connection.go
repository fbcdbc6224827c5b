// Package connection implements the Connection Store: the registry of live
// client transports, each bound to at most one Session.
package connection

import (
	"sync"

	"github.com/ogon-project/sessionmgr/pkg/permission"
)

// Connection represents one live client transport. SessionID is 0 when the
// connection is detached from any session (e.g. before logon completes).
type Connection struct {
	ID          uint32
	SessionID   uint32
	AuthToken   string
	Permissions permission.Flags
}

// Store is the concurrent Connection registry, with a secondary index for
// getConnectionIdForSessionId. The zero value is not usable; use NewStore.
type Store struct {
	mu             sync.RWMutex
	nextID         uint32
	byID           map[uint32]*Connection
	bySessionID    map[uint32]uint32 // sessionId -> connectionId
	byAuthToken    map[string]uint32 // authToken -> connectionId
}

// NewStore returns an empty, ready-to-use Store.
func NewStore() *Store {
	return &Store{
		byID:        make(map[uint32]*Connection),
		bySessionID: make(map[uint32]uint32),
		byAuthToken: make(map[string]uint32),
	}
}

// Create registers a new, initially session-less Connection and returns it.
func (st *Store) Create() *Connection {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.nextID++
	c := &Connection{ID: st.nextID}
	st.byID[c.ID] = c
	return c
}

// Get returns the connection for id, or nil if absent.
func (st *Store) Get(id uint32) *Connection {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.byID[id]
}

// Remove drops the connection for id, clearing its secondary index entries
// and revoking its authToken. A miss is a no-op.
func (st *Store) Remove(id uint32) {
	st.mu.Lock()
	defer st.mu.Unlock()
	c, ok := st.byID[id]
	if !ok {
		return
	}
	delete(st.byID, id)
	if c.SessionID != 0 {
		delete(st.bySessionID, c.SessionID)
	}
	if c.AuthToken != "" {
		delete(st.byAuthToken, c.AuthToken)
	}
}

// Enumerate returns a snapshot sequence of every live connection's id.
func (st *Store) Enumerate() []uint32 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]uint32, 0, len(st.byID))
	for id := range st.byID {
		ids = append(ids, id)
	}
	return ids
}

// GetConnectionIDForSessionID returns the connectionId bound to sid, or 0
// if no connection is currently bound.
func (st *Store) GetConnectionIDForSessionID(sid uint32) uint32 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.bySessionID[sid]
}

// BindSession associates connectionId with sessionId, replacing any prior
// binding for that connection. Used on logon and on reconnect.
func (st *Store) BindSession(connectionID, sessionID uint32) {
	st.mu.Lock()
	defer st.mu.Unlock()
	c, ok := st.byID[connectionID]
	if !ok {
		return
	}
	if c.SessionID != 0 {
		delete(st.bySessionID, c.SessionID)
	}
	c.SessionID = sessionID
	if sessionID != 0 {
		st.bySessionID[sessionID] = connectionID
	}
}

// SetAuthToken installs (and indexes) the authToken minted for connectionID
// at logon, along with the permissions bitmask derived from the session at
// bind time.
func (st *Store) SetAuthToken(connectionID uint32, token string, perms permission.Flags) {
	st.mu.Lock()
	defer st.mu.Unlock()
	c, ok := st.byID[connectionID]
	if !ok {
		return
	}
	if c.AuthToken != "" {
		delete(st.byAuthToken, c.AuthToken)
	}
	c.AuthToken = token
	c.Permissions = perms
	if token != "" {
		st.byAuthToken[token] = connectionID
	}
}

// GetByAuthToken resolves an authToken to its connection, or nil if the
// token is unknown or has been revoked.
func (st *Store) GetByAuthToken(token string) *Connection {
	st.mu.RLock()
	defer st.mu.RUnlock()
	id, ok := st.byAuthToken[token]
	if !ok {
		return nil
	}
	return st.byID[id]
}
