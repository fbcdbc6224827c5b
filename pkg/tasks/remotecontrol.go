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

// stopRemoteControl ends shadowing of the session acc is bound to, if it is
// currently shadowed; a no-op success otherwise. Shared by the standalone
// StopRemoteControl task and by Disconnect/Logoff, which must stop remote
// control before reading the bound connectionId: a session being shadowed
// could otherwise have its shadow connection confused with its primary one.
func stopRemoteControl(parent context.Context, c *Context, acc *session.Accessor, timeout time.Duration) bool {
	if acc.State() != session.StateShadow {
		return true
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	call := &calls.OtsApiStopRemoteControl{TargetSessionID: acc.ID()}
	if err := c.Dispatcher.SendCallOut(ctx, call); err != nil {
		logger.Warnf("tasks: stop remote control for session %d did not complete: %v", acc.ID(), err)
		return false
	}

	acc.StopRemoteControl()
	c.emit(notify.SessionRemoteCtrl, acc.ID())
	return true
}

// StopRemoteControl is the standalone admin-facing operation: a no-op
// success when the session is not currently shadowed.
type StopRemoteControl struct {
	parent  context.Context
	c       *Context
	timeout time.Duration

	done   *executor.Latch
	result bool
}

// NewStopRemoteControl returns a StopRemoteControl task ready to submit to
// the target session's executor.
func NewStopRemoteControl(parent context.Context, c *Context, timeout time.Duration) *StopRemoteControl {
	return &StopRemoteControl{parent: parent, c: c, timeout: timeout, done: executor.NewLatch()}
}

func (t *StopRemoteControl) Done() *executor.Latch { return t.done }

// Result reports whether remote control was stopped (or was already off).
// Only meaningful after Done() has fired.
func (t *StopRemoteControl) Result() bool { return t.result }

func (t *StopRemoteControl) Run(acc *session.Accessor) {
	defer t.done.Signal()
	if !acc.Bound() {
		t.result = false
		return
	}
	t.result = stopRemoteControl(t.parent, t.c, acc, t.timeout)
}

// StartRemoteControl shadows TargetSessionID from SourceSessionID: it waits
// for the frontend to confirm the shadow session is mirroring before
// transitioning TargetSessionID's connect state to Shadow. Submitted to
// TargetSessionID's executor.
type StartRemoteControl struct {
	parent context.Context
	c      *Context

	source          uint32
	target          uint32
	hotkeyVk        uint8
	hotkeyModifiers int16
	flags           uint32
	timeout         time.Duration

	done   *executor.Latch
	result bool
}

// NewStartRemoteControl returns a StartRemoteControl task shadowing
// targetSessionID from sourceSessionID.
func NewStartRemoteControl(parent context.Context, c *Context, sourceSessionID, targetSessionID uint32, hotkeyVk uint8, hotkeyModifiers int16, flags uint32, timeout time.Duration) *StartRemoteControl {
	return &StartRemoteControl{
		parent: parent, c: c,
		source: sourceSessionID, target: targetSessionID,
		hotkeyVk: hotkeyVk, hotkeyModifiers: hotkeyModifiers, flags: flags,
		timeout: timeout,
		done:    executor.NewLatch(),
	}
}

// TargetSessionID is the session being shadowed, used by callers to choose
// which executor to submit this task to.
func (t *StartRemoteControl) TargetSessionID() uint32 { return t.target }

func (t *StartRemoteControl) Done() *executor.Latch { return t.done }

// Result reports whether shadowing was established. Only meaningful after
// Done() has fired.
func (t *StartRemoteControl) Result() bool { return t.result }

func (t *StartRemoteControl) Run(acc *session.Accessor) {
	defer t.done.Signal()
	if !acc.Bound() {
		t.result = false
		return
	}

	ctx, cancel := context.WithTimeout(t.parent, t.timeout)
	defer cancel()

	call := &calls.OtsApiStartRemoteControl{
		SourceSessionID: t.source,
		TargetSessionID: t.target,
		HotkeyVk:        t.hotkeyVk,
		HotkeyModifiers: t.hotkeyModifiers,
		Flags:           t.flags,
	}
	if err := t.c.Dispatcher.SendCallOut(ctx, call); err != nil {
		logger.Warnf("tasks: start remote control of session %d from %d did not complete: %v", t.target, t.source, err)
		t.result = false
		return
	}

	acc.StartRemoteControl(t.source)
	t.c.emit(notify.SessionRemoteCtrl, t.target)
	t.result = true
}
