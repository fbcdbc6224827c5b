package executor

import (
	"testing"
	"time"

	"github.com/ogon-project/sessionmgr/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_RunsTasksInOrder(t *testing.T) {
	store := session.NewStore()
	s := store.Create("alice", "CORP", "alice", "CORP", "ws-1", "rdp")

	e := Start(s.ID, store)
	defer e.Stop()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		e.Submit(TaskFunc(func(acc *session.Accessor) {
			order = append(order, i)
			if i == 4 {
				close(done)
			}
		}))
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tasks did not complete in time")
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestExecutor_InformableSignalsCompletion(t *testing.T) {
	store := session.NewStore()
	s := store.Create("alice", "CORP", "alice", "CORP", "ws-1", "rdp")

	e := Start(s.ID, store)
	defer e.Stop()

	latch := NewLatch()
	ran := false
	e.Submit(&InformableFunc{
		Fn: func(acc *session.Accessor) {
			ran = true
			acc.SetState(session.StateActive)
		},
		Latch: latch,
	})

	select {
	case <-latch.Channel():
	case <-time.After(time.Second):
		t.Fatal("latch never signaled")
	}

	assert.True(t, ran)
	assert.Equal(t, session.StateActive, s.ConnectState)
}

func TestExecutor_TaskAfterSessionRemovedIsRecoverable(t *testing.T) {
	store := session.NewStore()
	s := store.Create("alice", "CORP", "alice", "CORP", "ws-1", "rdp")

	e := Start(s.ID, store)
	defer e.Stop()

	store.Remove(s.ID)

	latch := NewLatch()
	e.Submit(&InformableFunc{
		Fn:    func(acc *session.Accessor) { t.Fatal("Run should not execute once session is gone") },
		Latch: latch,
	})

	select {
	case <-latch.Channel():
	case <-time.After(time.Second):
		t.Fatal("latch never signaled for a missing session")
	}
}

func TestLatch_SignalIsIdempotent(t *testing.T) {
	l := NewLatch()
	require.NotPanics(t, func() {
		l.Signal()
		l.Signal()
	})
	l.Wait()
}

func TestExecutor_StopDrainsAndIsIdempotent(t *testing.T) {
	store := session.NewStore()
	s := store.Create("alice", "CORP", "alice", "CORP", "ws-1", "rdp")

	e := Start(s.ID, store)
	ran := false
	e.Submit(TaskFunc(func(acc *session.Accessor) { ran = true }))

	e.Stop()
	assert.NotPanics(t, func() { e.Stop() })
	assert.True(t, ran)
}
