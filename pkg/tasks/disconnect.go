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

// Disconnect detaches a session's client transport while preserving the
// session itself, so a later logon can reconnect to the same seat. It
// stops remote control first if the session is currently shadowed, since
// reading the bound connectionId before that could confuse the shadow
// connection with the primary one. Submitted to the target session's
// executor.
type Disconnect struct {
	parent  context.Context
	c       *Context
	target  uint32
	wait    bool
	timeout time.Duration

	done   *executor.Latch
	result bool
}

// NewDisconnect returns a Disconnect task for sessionID. If wait is true,
// Run blocks for up to timeout for the frontend's confirmation before
// mutating state; if false, the frontend notification is fire-and-forget.
func NewDisconnect(parent context.Context, c *Context, sessionID uint32, wait bool, timeout time.Duration) *Disconnect {
	return &Disconnect{parent: parent, c: c, target: sessionID, wait: wait, timeout: timeout, done: executor.NewLatch()}
}

func (t *Disconnect) TargetSessionID() uint32 { return t.target }
func (t *Disconnect) Done() *executor.Latch   { return t.done }

// Result reports whether the session was disconnected. Only meaningful
// after Done() has fired.
func (t *Disconnect) Result() bool { return t.result }

func (t *Disconnect) Run(acc *session.Accessor) {
	defer t.done.Signal()
	if !acc.Bound() {
		t.result = false
		return
	}

	if !stopRemoteControl(t.parent, t.c, acc, t.timeout) {
		logger.Warnf("tasks: session %d: shadowing could not be stopped, continuing anyway", t.target)
	}

	connID := t.c.Connections.GetConnectionIDForSessionID(t.target)
	if connID == 0 {
		// Already detached: nothing to notify, nothing to tear down.
		t.result = true
		return
	}

	call := &calls.LogOffUserSession{ConnectionID: connID}
	if t.wait {
		ctx, cancel := context.WithTimeout(t.parent, t.timeout)
		defer cancel()
		if err := t.c.Dispatcher.SendCallOut(ctx, call); err != nil {
			logger.Debugf("tasks: session %d: disconnect notification timed out: %v", t.target, err)
			t.result = false
			return
		}
	} else if _, err := t.c.Dispatcher.EnqueueCallOut(t.parent, call); err != nil {
		t.result = false
		return
	}

	acc.Disconnect()
	t.c.Connections.Remove(connID)
	t.c.emit(notify.RemoteDisconnect, t.target)
	t.result = true
}
