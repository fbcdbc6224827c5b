// Package tasks implements the control-plane task bodies: the executor-bound
// operations that drive a session through Shutdown, Disconnect, Logoff,
// StartRemoteControl, StopRemoteControl, and the idle-session timeout
// sweeper. Each task is submitted onto its target session's executor, so
// its mutations of that session are automatically serialized against every
// other task touching the same session.
package tasks

import (
	"github.com/ogon-project/sessionmgr/pkg/connection"
	"github.com/ogon-project/sessionmgr/pkg/config"
	"github.com/ogon-project/sessionmgr/pkg/executor"
	"github.com/ogon-project/sessionmgr/pkg/icp"
	"github.com/ogon-project/sessionmgr/pkg/logger"
	"github.com/ogon-project/sessionmgr/pkg/notify"
	"github.com/ogon-project/sessionmgr/pkg/session"
)

// Context bundles the registries and collaborators every task body needs.
type Context struct {
	Sessions    *session.Store
	Connections *connection.Store
	Properties  *config.Store
	Executors   *executor.Registry
	Dispatcher  *icp.Dispatcher

	// Notify emits session lifecycle events to the D-Bus system bus. A nil
	// Notify disables emission, which test harnesses rely on since there is
	// no system bus in a test sandbox.
	Notify *notify.Emitter
}

func (c *Context) emit(t notify.Type, sessionID uint32) {
	if c.Notify == nil {
		return
	}
	if err := c.Notify.Emit(t, sessionID); err != nil {
		logger.Warnf("tasks: notify emit %s for session %d failed: %v", t, sessionID, err)
	}
}
