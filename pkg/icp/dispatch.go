package icp

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogon-project/sessionmgr/pkg/config"
	"github.com/ogon-project/sessionmgr/pkg/connection"
	"github.com/ogon-project/sessionmgr/pkg/executor"
	"github.com/ogon-project/sessionmgr/pkg/logger"
	"github.com/ogon-project/sessionmgr/pkg/session"
)

// CallIn is an inbound call from the frontend to the manager, carried
// through the four-stage lifecycle described in SPEC_FULL.md section 4.3.
type CallIn interface {
	CallType() CallType
	DecodeRequest(payload *structpb.Struct) error
	// Prepare decides dispatch: true means respond synchronously on the
	// reader goroutine (DoStuff runs with a nil Accessor); false means
	// enqueue DoStuff onto TargetSessionID's executor.
	Prepare(d *Dispatcher) bool
	DoStuff(d *Dispatcher, acc *session.Accessor)
	EncodeResponse() (*structpb.Struct, error)
	TargetSessionID() uint32
	Status() uint32
}

// CallInFactory constructs a zero-valued CallIn for a given CallType, so
// the dispatcher can decode arbitrary inbound frames by kind.
type CallInFactory func() CallIn

// CallOut is an outbound call from the manager to the frontend. Requests
// are sent by the manager and matched to a response by tag.
type CallOut interface {
	CallType() CallType
	EncodeRequest() (*structpb.Struct, error)
	DecodeResponse(payload *structpb.Struct) error
}

// Authenticator validates a logon attempt against an external auth module.
// The concrete implementation (pkg/authmodule) is an out-of-scope external
// collaborator per SPEC_FULL.md; icp only depends on this narrow interface.
type Authenticator interface {
	Authenticate(userName, domain, password string) (ok bool, authUserName, authDomain string, err error)
}

// Executors resolves (or lazily starts) the per-session executor used to
// run session-mutating CallIn/CallOut work, keeping pkg/icp decoupled from
// whatever owns the executor lifecycle (normally pkg/appcontext).
type Executors interface {
	Get(sessionID uint32) *executor.Executor
	StartFor(sessionID uint32) *executor.Executor
	Remove(sessionID uint32)
}

// Dispatcher owns one ICP channel: decoding inbound frames, running
// CallIn handlers, framing CallOut requests, and matching CallOut
// responses back to their waiters by tag.
type Dispatcher struct {
	rw io.ReadWriter

	Sessions    *session.Store
	Connections *connection.Store
	Properties  *config.Store
	Executors   Executors
	Auth        Authenticator

	factories map[CallType]CallInFactory

	outgoing chan Frame

	nextTag uint32

	pendingMu sync.Mutex
	pending   map[uint32]chan Frame

	wg sync.WaitGroup
}

// NewDispatcher constructs a Dispatcher bound to rw (a Unix domain socket
// connection in production, an in-memory net.Pipe in tests).
func NewDispatcher(rw io.ReadWriter, sessions *session.Store, connections *connection.Store, properties *config.Store, executors Executors, auth Authenticator) *Dispatcher {
	return &Dispatcher{
		rw:          rw,
		Sessions:    sessions,
		Connections: connections,
		Properties:  properties,
		Executors:   executors,
		Auth:        auth,
		factories:   make(map[CallType]CallInFactory),
		outgoing:    make(chan Frame, 256),
		pending:     make(map[uint32]chan Frame),
	}
}

// Register associates a CallType with the factory used to decode inbound
// frames of that kind. Call before Run.
func (d *Dispatcher) Register(ct CallType, factory CallInFactory) {
	d.factories[ct] = factory
}

// Run starts the reader and writer goroutines and blocks until ctx is
// canceled or the underlying channel is closed.
func (d *Dispatcher) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.wg.Add(2)
	go func() {
		defer cancel()
		d.readLoop(ctx)
	}()
	go d.writeLoop(ctx)
	d.wg.Wait()
}

func (d *Dispatcher) readLoop(ctx context.Context) {
	defer d.wg.Done()
	for {
		frame, err := ReadFrame(d.rw)
		if err != nil {
			if err != io.EOF {
				logger.Warnf("icp: read loop stopped: %v", err)
			}
			return
		}

		if frame.Header.Direction == DirectionResponse {
			d.deliverResponse(frame)
			continue
		}

		d.handleCallIn(frame)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (d *Dispatcher) handleCallIn(frame Frame) {
	factory, ok := d.factories[CallType(frame.Header.CallType)]
	if !ok {
		logger.Warnf("icp: no handler registered for call type %d", frame.Header.CallType)
		d.outgoing <- Frame{
			Header: Header{
				CallType:  frame.Header.CallType,
				Tag:       frame.Header.Tag,
				Direction: DirectionResponse,
				Status:    1,
			},
		}
		return
	}
	call := factory()
	if err := call.DecodeRequest(frame.Payload); err != nil {
		logger.Warnf("icp: decode request for %s failed: %v", call.CallType(), err)
		d.enqueueResponse(frame.Header.Tag, call, 1)
		return
	}

	respondNow := call.Prepare(d)
	if respondNow {
		call.DoStuff(d, nil)
		d.enqueueResponse(frame.Header.Tag, call, call.Status())
		return
	}

	target := call.TargetSessionID()
	tag := frame.Header.Tag

	if target == 0 {
		// No session exists yet to serialize against (e.g. LogonUser,
		// authenticating and creating the session as a side effect);
		// run off the reader goroutine on its own one-off goroutine,
		// matching the original TaskCallInLogonUser's dedicated task.
		go func() {
			call.DoStuff(d, nil)
			d.enqueueResponse(tag, call, call.Status())
		}()
		return
	}

	exec := d.Executors.Get(target)
	if exec == nil {
		logger.Warnf("icp: no executor for session %d, cannot run %s", target, call.CallType())
		d.enqueueResponse(frame.Header.Tag, call, 1)
		return
	}
	exec.Submit(executor.TaskFunc(func(acc *session.Accessor) {
		call.DoStuff(d, acc)
		d.enqueueResponse(tag, call, call.Status())
	}))
}

func (d *Dispatcher) enqueueResponse(tag uint32, call CallIn, status uint32) {
	payload, err := call.EncodeResponse()
	if err != nil {
		logger.Warnf("icp: encode response for %s failed: %v", call.CallType(), err)
		status = 1
		payload = nil
	}
	d.outgoing <- Frame{
		Header: Header{
			CallType:  uint32(call.CallType()),
			Tag:       tag,
			Direction: DirectionResponse,
			Status:    status,
		},
		Payload: payload,
	}
}

func (d *Dispatcher) writeLoop(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-d.outgoing:
			if !ok {
				return
			}
			if err := WriteFrame(d.rw, frame); err != nil {
				logger.Warnf("icp: write loop stopped: %v", err)
				return
			}
		}
	}
}

// EnqueueCallOut frames and sends a CallOut request without blocking for a
// response, returning a channel that receives the raw reply frame whenever
// it arrives. Used by control-plane tasks that only conditionally wait for
// a frontend confirmation (Disconnect/Logoff's wait=false path): the
// pending entry lingers in the dispatcher until the response arrives (and
// is then discarded) or the dispatcher is torn down, matching the original
// CallOut object's lifetime.
func (d *Dispatcher) EnqueueCallOut(ctx context.Context, call CallOut) (<-chan Frame, error) {
	payload, err := call.EncodeRequest()
	if err != nil {
		return nil, fmt.Errorf("icp: encode request for %s: %w", call.CallType(), err)
	}

	tag := atomic.AddUint32(&d.nextTag, 1)
	replyCh := make(chan Frame, 1)
	d.pendingMu.Lock()
	d.pending[tag] = replyCh
	d.pendingMu.Unlock()

	frame := Frame{
		Header: Header{
			CallType:  uint32(call.CallType()),
			Tag:       tag,
			Direction: DirectionRequest,
		},
		Payload: payload,
	}

	select {
	case d.outgoing <- frame:
	case <-ctx.Done():
		d.pendingMu.Lock()
		delete(d.pending, tag)
		d.pendingMu.Unlock()
		return nil, ctx.Err()
	}

	return replyCh, nil
}

// SendCallOut frames and enqueues a CallOut request, then blocks until the
// matching response arrives, ctx is canceled, or it times out. The
// returned error wraps context.DeadlineExceeded on timeout.
func (d *Dispatcher) SendCallOut(ctx context.Context, call CallOut) error {
	replyCh, err := d.EnqueueCallOut(ctx, call)
	if err != nil {
		return err
	}

	select {
	case reply := <-replyCh:
		if reply.Header.Status != 0 {
			return fmt.Errorf("icp: %s failed with status %d", call.CallType(), reply.Header.Status)
		}
		return call.DecodeResponse(reply.Payload)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) deliverResponse(frame Frame) {
	d.pendingMu.Lock()
	ch, ok := d.pending[frame.Header.Tag]
	if ok {
		delete(d.pending, frame.Header.Tag)
	}
	d.pendingMu.Unlock()
	if !ok {
		logger.Warnf("icp: response for unknown tag %d dropped", frame.Header.Tag)
		return
	}
	ch <- frame
}
