package tasks

import (
	"context"
	"time"

	"github.com/ogon-project/sessionmgr/pkg/executor"
	"github.com/ogon-project/sessionmgr/pkg/icp/calls"
	"github.com/ogon-project/sessionmgr/pkg/logger"
	"github.com/ogon-project/sessionmgr/pkg/notify"
	"github.com/ogon-project/sessionmgr/pkg/session"
)

// Logoff is Disconnect's terminal counterpart: after the frontend confirms
// (or is fire-and-forget notified, if wait is false) the session record is
// removed entirely. Submitted to the target session's executor.
type Logoff struct {
	parent  context.Context
	c       *Context
	target  uint32
	wait    bool
	timeout time.Duration

	done     *executor.Latch
	result   bool
	connID   uint32
}

// NewLogoff returns a Logoff task for sessionID.
func NewLogoff(parent context.Context, c *Context, sessionID uint32, wait bool, timeout time.Duration) *Logoff {
	return &Logoff{parent: parent, c: c, target: sessionID, wait: wait, timeout: timeout, done: executor.NewLatch()}
}

func (t *Logoff) TargetSessionID() uint32 { return t.target }
func (t *Logoff) Done() *executor.Latch   { return t.done }

// Result reports whether the logoff completed successfully. Only
// meaningful after Done() has fired.
func (t *Logoff) Result() bool { return t.result }

// ConnectionID returns the connectionId that was bound to the session at
// the time of logoff (0 if none), so the administrative API layer can
// additionally retire the connection record once this task completes.
func (t *Logoff) ConnectionID() uint32 { return t.connID }

func (t *Logoff) Run(acc *session.Accessor) {
	defer t.done.Signal()
	if !acc.Bound() {
		t.result = false
		return
	}

	if !stopRemoteControl(t.parent, t.c, acc, t.timeout) {
		logger.Warnf("tasks: session %d: shadowing could not be stopped, continuing anyway", t.target)
	}

	connID := t.c.Connections.GetConnectionIDForSessionID(t.target)
	t.connID = connID

	result := true
	if connID != 0 {
		call := &calls.LogOffUserSession{ConnectionID: connID}
		if t.wait {
			ctx, cancel := context.WithTimeout(t.parent, t.timeout)
			defer cancel()
			if err := t.c.Dispatcher.SendCallOut(ctx, call); err != nil {
				logger.Debugf("tasks: session %d: LogOffUserSession timed out: %v", t.target, err)
				result = false
			} else {
				result = call.LoggedOff
			}
		} else if _, err := t.c.Dispatcher.EnqueueCallOut(t.parent, call); err != nil {
			logger.Debugf("tasks: session %d: LogOffUserSession not sent: %v", t.target, err)
		}
		// wait=false is treated as an immediate success without waiting on
		// the frontend, and the session is unconditionally removed below —
		// carried forward from the original's non-waiting Logoff path.
	}

	t.c.Properties.RemoveSession(t.target)
	t.c.Sessions.Remove(t.target)
	t.c.Executors.Remove(t.target)
	t.c.emit(notify.SessionLogoff, t.target)
	t.c.emit(notify.SessionTerminate, t.target)

	t.result = result
}
