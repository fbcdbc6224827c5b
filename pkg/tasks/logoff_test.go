package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/ogon-project/sessionmgr/pkg/icp"
	"github.com/stretchr/testify/assert"
)

func TestLogoff_WaitTrueRemovesSessionOnConfirmation(t *testing.T) {
	c, sessions := newTestContext(t)
	s := sessions.Create("bob", "CORP", "bob", "CORP", "ws-1", "rdp")
	conn := c.Connections.Create()
	c.Connections.BindSession(conn.ID, s.ID)

	_, clientConn, cleanup := withPipeDispatcher(t, c)
	defer cleanup()
	respondOnce(t, clientConn, map[string]any{"loggedOff": true})

	exec := c.Executors.StartFor(s.ID)
	task := NewLogoff(context.Background(), c, s.ID, true, 2*time.Second)
	exec.Submit(task)
	task.Done().Wait()

	assert.True(t, task.Result())
	assert.Equal(t, conn.ID, task.ConnectionID())
	assert.Nil(t, sessions.Get(s.ID))
}

func TestLogoff_WaitFalseIsImmediateSuccessAndRemovesSession(t *testing.T) {
	c, sessions := newTestContext(t)
	s := sessions.Create("carol", "CORP", "carol", "CORP", "ws-2", "rdp")
	conn := c.Connections.Create()
	c.Connections.BindSession(conn.ID, s.ID)

	_, clientConn, cleanup := withPipeDispatcher(t, c)
	defer cleanup()
	go func() { _, _ = icp.ReadFrame(clientConn) }()

	exec := c.Executors.StartFor(s.ID)
	task := NewLogoff(context.Background(), c, s.ID, false, time.Second)
	exec.Submit(task)
	task.Done().Wait()

	assert.True(t, task.Result())
	assert.Nil(t, sessions.Get(s.ID))
}

func TestLogoff_NoBoundConnectionStillRemovesSession(t *testing.T) {
	c, sessions := newTestContext(t)
	s := sessions.Create("dave", "CORP", "dave", "CORP", "ws-3", "rdp")
	exec := c.Executors.StartFor(s.ID)

	task := NewLogoff(context.Background(), c, s.ID, true, time.Second)
	exec.Submit(task)
	task.Done().Wait()

	assert.True(t, task.Result())
	assert.Zero(t, task.ConnectionID())
	assert.Nil(t, sessions.Get(s.ID))
}
