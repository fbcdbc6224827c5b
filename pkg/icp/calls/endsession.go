package calls

import (
	"github.com/ogon-project/sessionmgr/pkg/icp"
	"github.com/ogon-project/sessionmgr/pkg/session"
	"google.golang.org/protobuf/types/known/structpb"
)

// EndSession implements CallInEndSession: the SBP backend reports that a
// session has ended, so the manager tears it down. Queued on the target
// session's executor, mirroring the original's putInSessionExecutor_sesId.
type EndSession struct {
	sessionID uint32
	success   bool
	found     bool
}

func NewEndSession() icp.CallIn { return &EndSession{} }

func (c *EndSession) CallType() icp.CallType { return icp.CallTypeEndSession }

func (c *EndSession) DecodeRequest(p *structpb.Struct) error {
	c.sessionID = getUint32(p, "sessionId")
	return nil
}

func (c *EndSession) Prepare(d *icp.Dispatcher) bool { return false }

func (c *EndSession) DoStuff(d *icp.Dispatcher, acc *session.Accessor) {
	if acc == nil || !acc.Bound() {
		c.found = false
		return
	}
	c.found = true
	acc.SetState(session.StateDown)
	d.Properties.RemoveSession(c.sessionID)
	d.Executors.Remove(c.sessionID)
	d.Sessions.Remove(c.sessionID)
	c.success = true
}

func (c *EndSession) EncodeResponse() (*structpb.Struct, error) {
	return newStruct(map[string]any{"success": c.success})
}

func (c *EndSession) TargetSessionID() uint32 { return c.sessionID }

func (c *EndSession) Status() uint32 {
	if !c.found {
		return 1
	}
	return 0
}
