package tasks

import (
	"testing"

	"github.com/ogon-project/sessionmgr/pkg/session"
	"github.com/stretchr/testify/assert"
)

func TestSweeper_EndsSessionPastTimeout(t *testing.T) {
	c, sessions := newTestContext(t)
	s := sessions.Create("alice", "CORP", "alice", "CORP", "ws-1", "rdp")
	c.Executors.StartFor(s.ID)

	acc := session.NewAccessor()
	acc.Bind(s)
	acc.SetState(session.StateDisconnected)
	acc.Unbind()

	c.Properties.SetSessionProperty(s.ID, "session.timeout", int64(0))

	sw := NewSweeper(c)
	submitted := sw.sweep()
	for _, shutdown := range submitted {
		shutdown.Done().Wait()
	}

	assert.Len(t, submitted, 1)
	assert.Nil(t, sessions.Get(s.ID))
}

func TestSweeper_SkipsSessionsStillConnected(t *testing.T) {
	c, sessions := newTestContext(t)
	s := sessions.Create("bob", "CORP", "bob", "CORP", "ws-2", "rdp")
	c.Executors.StartFor(s.ID)
	c.Properties.SetSessionProperty(s.ID, "session.timeout", int64(0))

	sw := NewSweeper(c)
	submitted := sw.sweep()

	assert.Empty(t, submitted)
	assert.NotNil(t, sessions.Get(s.ID))
}

func TestSweeper_NegativeTimeoutDisablesSweep(t *testing.T) {
	c, sessions := newTestContext(t)
	s := sessions.Create("carol", "CORP", "carol", "CORP", "ws-3", "rdp")
	c.Executors.StartFor(s.ID)

	acc := session.NewAccessor()
	acc.Bind(s)
	acc.SetState(session.StateDisconnected)
	acc.Unbind()

	c.Properties.SetSessionProperty(s.ID, "session.timeout", int64(-1))

	sw := NewSweeper(c)
	submitted := sw.sweep()

	assert.Empty(t, submitted)
	assert.NotNil(t, sessions.Get(s.ID))
}
