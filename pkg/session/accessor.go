package session

import (
	"time"

	"github.com/ogon-project/sessionmgr/pkg/backend"
	"github.com/ogon-project/sessionmgr/pkg/permission"
)

// Accessor is the capability token through which a session is mutated. It
// is bound to exactly one Session at a time by Bind; binding
// takes no lock because only the owning executor goroutine ever binds a
// given session, so mutations through a bound Accessor are already
// serialized by that invariant (see SPEC_FULL.md section 4.2).
type Accessor struct {
	session *Session
}

// NewAccessor returns an unbound Accessor.
func NewAccessor() *Accessor {
	return &Accessor{}
}

// Bind attaches s to this accessor. Must only be called from the goroutine
// that owns s's executor.
func (a *Accessor) Bind(s *Session) {
	a.session = s
}

// Unbind detaches the accessor from whatever session it held.
func (a *Accessor) Unbind() {
	a.session = nil
}

// Bound reports whether the accessor currently holds a session.
func (a *Accessor) Bound() bool {
	return a.session != nil
}

// SetState transitions the bound session's connect state.
func (a *Accessor) SetState(st ConnectState) {
	a.session.setState(st)
}

// State returns the bound session's current connect state.
func (a *Accessor) State() ConnectState {
	a.session.mu.Lock()
	defer a.session.mu.Unlock()
	return a.session.ConnectState
}

// SetUserToken installs a freshly (re)generated identity handle.
func (a *Accessor) SetUserToken(token string) {
	a.session.mu.Lock()
	defer a.session.mu.Unlock()
	a.session.UserToken = token
}

// SetPermissions applies a new permission bitmask to the session.
func (a *Accessor) SetPermissions(p permission.Flags) {
	a.session.mu.Lock()
	defer a.session.mu.Unlock()
	a.session.Permissions = p
}

// StartBackend installs the resolved backend module handle, replacing
// whatever staged auth backend was held.
func (a *Accessor) StartBackend(b backend.Module) {
	a.session.mu.Lock()
	defer a.session.mu.Unlock()
	a.session.AuthBackend = nil
	a.session.Backend = b
}

// StopBackend stops and clears the backend module handle without changing
// connect state; used by Disconnect, which preserves the session.
func (a *Accessor) StopBackend() {
	a.session.mu.Lock()
	b := a.session.Backend
	a.session.Backend = nil
	a.session.mu.Unlock()
	if b != nil {
		_ = b.Stop()
	}
}

// StageAuthBackend installs a backend handle used only during logon
// authentication, before a Session is fully active.
func (a *Accessor) StageAuthBackend(b backend.Module) {
	a.session.mu.Lock()
	defer a.session.mu.Unlock()
	a.session.AuthBackend = b
}

// DestroyAuthBackend stops and clears a staged auth backend. TaskShutdown
// calls this before its state-transition switch, not after, so that a
// concurrent status query never observes a session reporting Down while its
// auth backend handle is still live.
func (a *Accessor) DestroyAuthBackend() {
	a.session.mu.Lock()
	b := a.session.AuthBackend
	a.session.AuthBackend = nil
	a.session.mu.Unlock()
	if b != nil {
		_ = b.Stop()
	}
}

// Disconnect stops the backend module but preserves the session record,
// transitioning it to Disconnected. Used by Task Disconnect, which differs
// from Logoff in that the seat itself survives.
func (a *Accessor) Disconnect() {
	a.StopBackend()
	a.SetState(StateDisconnected)
}

// SetSBPCompatible records whether the session negotiated SBP-capable
// version info; recomputed on every VersionInfo call rather than sticky
// (see DESIGN.md Open Question decisions).
func (a *Accessor) SetSBPCompatible(v bool) {
	a.session.mu.Lock()
	defer a.session.mu.Unlock()
	a.session.SBPCompatible = v
}

// StartRemoteControl marks the bound session as shadowed by sourceID.
func (a *Accessor) StartRemoteControl(sourceID uint32) {
	a.session.mu.Lock()
	defer a.session.mu.Unlock()
	a.session.RemoteControlSourceID = sourceID
	a.session.ConnectState = StateShadow
	a.session.ConnectStateChangeTime = time.Now()
}

// StopRemoteControl clears shadow state, returning to Active.
func (a *Accessor) StopRemoteControl() {
	a.session.mu.Lock()
	defer a.session.mu.Unlock()
	a.session.RemoteControlSourceID = 0
	a.session.ConnectState = StateActive
	a.session.ConnectStateChangeTime = time.Now()
}

// ID returns the bound session's id, or 0 if unbound.
func (a *Accessor) ID() uint32 {
	if a.session == nil {
		return 0
	}
	return a.session.ID
}
