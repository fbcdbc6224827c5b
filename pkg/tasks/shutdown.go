package tasks

import (
	"github.com/ogon-project/sessionmgr/pkg/executor"
	"github.com/ogon-project/sessionmgr/pkg/notify"
	"github.com/ogon-project/sessionmgr/pkg/session"
)

// Shutdown is the terminal, unconditional teardown of a session: it runs
// regardless of prior connect state and is the task the idle-session
// sweeper enqueues. It destroys the staged auth backend before the
// state-transition switch, not after, so a concurrent status read never
// observes a session reporting Down while its auth backend handle is still
// live.
type Shutdown struct {
	ctx  *Context
	done *executor.Latch
}

// NewShutdown returns a Shutdown task bound to ctx, ready to submit to a
// session's executor.
func NewShutdown(ctx *Context) *Shutdown {
	return &Shutdown{ctx: ctx, done: executor.NewLatch()}
}

func (t *Shutdown) Done() *executor.Latch { return t.done }

func (t *Shutdown) Run(acc *session.Accessor) {
	defer t.done.Signal()
	if !acc.Bound() {
		return
	}

	sid := acc.ID()
	acc.DestroyAuthBackend()

	switch acc.State() {
	case session.StateActive:
		acc.SetState(session.StateDisconnected)
		acc.SetState(session.StateDown)
	case session.StateConnected:
		acc.SetState(session.StateDown)
	case session.StateDisconnected:
		acc.SetState(session.StateDown)
	}

	acc.StopBackend()

	if connID := t.ctx.Connections.GetConnectionIDForSessionID(sid); connID != 0 {
		t.ctx.Connections.SetAuthToken(connID, "", 0)
	}

	t.ctx.Properties.RemoveSession(sid)
	t.ctx.Sessions.Remove(sid)
	t.ctx.Executors.Remove(sid)
	t.ctx.emit(notify.SessionTerminate, sid)
}
