// Package notify emits session lifecycle events as D-Bus signals on the
// system bus, grounded verbatim on the wire contract the reference
// snmon monitor listens for: interface ogon.SessionManager.session.notification,
// member SessionNotification, signature (uu) — notification type then
// session id.
package notify

import (
	"github.com/godbus/dbus/v5"

	"github.com/ogon-project/sessionmgr/pkg/logger"
)

// Type is one of the eleven WTS session notification kinds.
type Type uint32

const (
	ConsoleConnect     Type = 0x1
	ConsoleDisconnect  Type = 0x2
	RemoteConnect      Type = 0x3
	RemoteDisconnect   Type = 0x4
	SessionLogon       Type = 0x5
	SessionLogoff      Type = 0x6
	SessionLock        Type = 0x7
	SessionUnlock      Type = 0x8
	SessionRemoteCtrl  Type = 0x9
	SessionCreate      Type = 0xA
	SessionTerminate   Type = 0xB
)

func (t Type) String() string {
	switch t {
	case ConsoleConnect:
		return "WTS_CONSOLE_CONNECT"
	case ConsoleDisconnect:
		return "WTS_CONSOLE_DISCONNECT"
	case RemoteConnect:
		return "WTS_REMOTE_CONNECT"
	case RemoteDisconnect:
		return "WTS_REMOTE_DISCONNECT"
	case SessionLogon:
		return "WTS_SESSION_LOGON"
	case SessionLogoff:
		return "WTS_SESSION_LOGOFF"
	case SessionLock:
		return "WTS_SESSION_LOCK"
	case SessionUnlock:
		return "WTS_SESSION_UNLOCK"
	case SessionRemoteCtrl:
		return "WTS_SESSION_REMOTE_CONTROL"
	case SessionCreate:
		return "WTS_SESSION_CREATE"
	case SessionTerminate:
		return "WTS_SESSION_TERMINATE"
	default:
		return "UNKNOWN_MESSAGE"
	}
}

const (
	interfaceName = "ogon.SessionManager.session.notification"
	member        = "SessionNotification"
	objectPath    = dbus.ObjectPath("/ogon/SessionManager")
)

// Emitter publishes session notifications onto the D-Bus system bus.
type Emitter struct {
	conn *dbus.Conn
}

// Connect opens (and keeps open) a connection to the system bus.
func Connect() (*Emitter, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, err
	}
	return &Emitter{conn: conn}, nil
}

// Close releases the underlying bus connection.
func (e *Emitter) Close() error {
	return e.conn.Close()
}

// Emit broadcasts a SessionNotification signal for sessionID.
func (e *Emitter) Emit(t Type, sessionID uint32) error {
	err := e.conn.Emit(objectPath, interfaceName+"."+member, uint32(t), sessionID)
	if err != nil {
		logger.Warnf("notify: failed to emit %s for session %d: %v", t, sessionID, err)
		return err
	}
	return nil
}
