package tasks

import (
	"context"
	"time"

	"github.com/ogon-project/sessionmgr/pkg/logger"
	"github.com/ogon-project/sessionmgr/pkg/session"
)

// sweepInterval is how often the Sweeper checks disconnected sessions
// against their session.timeout property.
const sweepInterval = 10 * time.Second

// Sweeper is the sole path by which idle sessions are garbage-collected:
// on each tick it enumerates every session, and for each one sitting in
// Disconnected longer than its session.timeout property (in minutes)
// enqueues a Shutdown on that session's executor. A negative timeout
// disables the sweep for that session.
type Sweeper struct {
	c *Context

	stop chan struct{}
	done chan struct{}
}

// NewSweeper returns a Sweeper bound to c, not yet running.
func NewSweeper(c *Context) *Sweeper {
	return &Sweeper{c: c, stop: make(chan struct{}), done: make(chan struct{})}
}

// Run ticks every sweepInterval until ctx is canceled or Stop is called. It
// blocks, so callers run it on its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// Stop signals Run to exit and blocks until it has. Safe to call once.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

// sweep submits a Shutdown for every session that is due, and returns the
// tasks it submitted so tests can await their completion deterministically
// instead of racing the executor teardown each Shutdown triggers.
func (s *Sweeper) sweep() []*Shutdown {
	var submitted []*Shutdown
	for _, snap := range s.c.Sessions.GetAllSessions() {
		if snap.ConnectState != session.StateDisconnected {
			continue
		}

		timeoutMinutes, found := s.c.Properties.GetPropertyNumber(snap.ID, "session.timeout")
		if !found {
			timeoutMinutes = 0
		}
		if timeoutMinutes < 0 {
			continue
		}

		elapsed := time.Since(snap.ConnectStateChangeTime)
		if elapsed < time.Duration(timeoutMinutes)*time.Minute {
			continue
		}

		logger.Infof("tasks: session %d for user %s stopped after %s disconnected", snap.ID, snap.UserName, elapsed)

		exec := s.c.Executors.Get(snap.ID)
		if exec == nil {
			continue
		}
		shutdown := NewShutdown(s.c)
		exec.Submit(shutdown)
		submitted = append(submitted, shutdown)
	}
	return submitted
}
