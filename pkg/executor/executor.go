// Package executor implements the per-session single-writer actor: one
// goroutine per live Session draining a FIFO mailbox of Task values (a
// channel buffered to 64 entries), so every mutation of a given session is
// strictly serialized.
package executor

import (
	"sync"

	"github.com/ogon-project/sessionmgr/pkg/session"
)

// Task is one unit of work run on a session's executor goroutine. Run
// receives the Accessor already bound to the owning session.
type Task interface {
	Run(acc *session.Accessor)
}

// Informable is a Task whose completion another goroutine can wait on, via
// the Latch returned by Done. Mirrors the original InformableTask's
// auto-reset completion event.
type Informable interface {
	Task
	Done() *Latch
}

// Latch is a one-shot, idempotent completion signal: closing it more than
// once is safe, and Wait/Channel can be called before or after Signal.
type Latch struct {
	once sync.Once
	ch   chan struct{}
}

// NewLatch returns a ready-to-signal Latch.
func NewLatch() *Latch {
	return &Latch{ch: make(chan struct{})}
}

// Signal closes the latch, waking every current and future waiter. Safe to
// call more than once or concurrently.
func (l *Latch) Signal() {
	l.once.Do(func() { close(l.ch) })
}

// Channel returns the underlying channel, closed when the latch fires; use
// directly in a select alongside a timeout.
func (l *Latch) Channel() <-chan struct{} {
	return l.ch
}

// Wait blocks until the latch is signaled.
func (l *Latch) Wait() {
	<-l.ch
}

// Executor runs Tasks for exactly one session, one at a time, in the order
// they were submitted.
type Executor struct {
	sessionID uint32
	store     *session.Store
	mailbox   chan Task
	done      chan struct{}
	stopOnce  sync.Once
}

// Start launches the executor goroutine for sessionID and returns
// immediately; the goroutine exits once the mailbox is closed and drained.
func Start(sessionID uint32, store *session.Store) *Executor {
	e := &Executor{
		sessionID: sessionID,
		store:     store,
		mailbox:   make(chan Task, 64),
		done:      make(chan struct{}),
	}
	go e.loop()
	return e
}

func (e *Executor) loop() {
	defer close(e.done)
	acc := session.NewAccessor()
	for t := range e.mailbox {
		s := e.store.Get(e.sessionID)
		if s == nil {
			// The session was already removed out from under us; every
			// queued task re-resolves and treats a miss as recoverable.
			if inf, ok := t.(Informable); ok {
				inf.Done().Signal()
			}
			continue
		}
		acc.Bind(s)
		t.Run(acc)
		acc.Unbind()
	}
}

// Submit enqueues t for execution. Submit does not wait for Run to
// complete, but it blocks while the mailbox already holds 64 queued tasks;
// the mailbox is not unbounded. Callers that need the result use an
// Informable Task and wait on its Latch.
func (e *Executor) Submit(t Task) {
	e.mailbox <- t
}

// Stop closes the mailbox so the executor goroutine drains any queued
// tasks and exits; Stop blocks until that drain completes. Safe to call
// more than once.
func (e *Executor) Stop() {
	e.stopOnce.Do(func() {
		close(e.mailbox)
	})
	<-e.done
}

// TaskFunc adapts a plain function to the Task interface for simple,
// fire-and-forget mutations that don't need completion signaling.
type TaskFunc func(acc *session.Accessor)

func (f TaskFunc) Run(acc *session.Accessor) { f(acc) }

// InformableFunc adapts a function plus a Latch to the Informable
// interface.
type InformableFunc struct {
	Fn    func(acc *session.Accessor)
	Latch *Latch
}

func (f *InformableFunc) Run(acc *session.Accessor) {
	defer f.Latch.Signal()
	f.Fn(acc)
}

func (f *InformableFunc) Done() *Latch { return f.Latch }
