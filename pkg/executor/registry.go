package executor

import (
	"sync"

	"github.com/ogon-project/sessionmgr/pkg/session"
)

// Registry tracks the live executor for each session, so the ICP
// dispatcher, administrative API, and timeout sweeper can all reach the
// same per-session actor without any of them owning its lifecycle
// directly.
type Registry struct {
	store *session.Store

	mu  sync.Mutex
	all map[uint32]*Executor
}

// NewRegistry returns an empty Registry backed by store.
func NewRegistry(store *session.Store) *Registry {
	return &Registry{store: store, all: make(map[uint32]*Executor)}
}

// StartFor starts (or returns the existing) executor for sessionID.
func (r *Registry) StartFor(sessionID uint32) *Executor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.all[sessionID]; ok {
		return e
	}
	e := Start(sessionID, r.store)
	r.all[sessionID] = e
	return e
}

// Get returns the executor for sessionID, or nil if none is running.
func (r *Registry) Get(sessionID uint32) *Executor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.all[sessionID]
}

// Remove stops sessionID's executor and drops it from the registry. It
// returns immediately: the actual drain-and-join happens on a background
// goroutine, so a task running on that very executor can call Remove on
// itself without deadlocking against its own completion.
func (r *Registry) Remove(sessionID uint32) {
	r.mu.Lock()
	e, ok := r.all[sessionID]
	if ok {
		delete(r.all, sessionID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	go e.Stop()
}

// Len reports the number of executors currently tracked, for tests and
// teardown bookkeeping.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.all)
}

// StopAll stops every tracked executor and blocks until all have drained.
// Used during ApplicationContext teardown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	executors := make([]*Executor, 0, len(r.all))
	for _, e := range r.all {
		executors = append(executors, e)
	}
	r.all = make(map[uint32]*Executor)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, e := range executors {
		wg.Add(1)
		go func(e *Executor) {
			defer wg.Done()
			e.Stop()
		}(e)
	}
	wg.Wait()
}
