package tasks

import (
	"testing"

	"github.com/ogon-project/sessionmgr/pkg/session"
	"github.com/stretchr/testify/assert"
)

func TestShutdown_FromActiveRemovesSessionAndExecutor(t *testing.T) {
	c, sessions := newTestContext(t)
	s := sessions.Create("alice", "CORP", "alice", "CORP", "ws-1", "rdp")
	conn := c.Connections.Create()
	c.Connections.BindSession(conn.ID, s.ID)
	c.Connections.SetAuthToken(conn.ID, "tok-1", 0)

	exec := c.Executors.StartFor(s.ID)

	acc := session.NewAccessor()
	acc.Bind(s)
	acc.SetState(session.StateActive)
	acc.Unbind()

	shutdown := NewShutdown(c)
	exec.Submit(shutdown)
	shutdown.Done().Wait()

	assert.Nil(t, sessions.Get(s.ID))
	assert.Nil(t, c.Executors.Get(s.ID))
	assert.Empty(t, c.Connections.Get(conn.ID).AuthToken)
}

func TestShutdown_FromInitIsNoOpTransitionButStillTearsDown(t *testing.T) {
	c, sessions := newTestContext(t)
	s := sessions.Create("bob", "CORP", "bob", "CORP", "ws-2", "rdp")
	exec := c.Executors.StartFor(s.ID)

	shutdown := NewShutdown(c)
	exec.Submit(shutdown)
	shutdown.Done().Wait()

	assert.Nil(t, sessions.Get(s.ID))
}

func TestShutdown_UnboundAccessorIsSafeNoOp(t *testing.T) {
	c, _ := newTestContext(t)
	shutdown := NewShutdown(c)
	shutdown.Run(session.NewAccessor())
	assert.True(t, true) // must not panic on an unbound accessor
}
