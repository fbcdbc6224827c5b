package calls

import (
	"github.com/ogon-project/sessionmgr/pkg/icp"
	"github.com/ogon-project/sessionmgr/pkg/session"
	"google.golang.org/protobuf/types/known/structpb"
)

// PropertyBool implements CallInPropertyBool: a synchronous read of a
// boolean property, resolved through the connection's bound session. It
// never touches an executor — prepare answers immediately, matching the
// original CallInPropertyBool::prepare, which calls doStuff() inline and
// queues the answer without involving a session's task queue.
type PropertyBool struct {
	connectionID uint32
	path         string
	found        bool
	value        bool
	status       uint32
}

func NewPropertyBool() icp.CallIn { return &PropertyBool{} }

func (c *PropertyBool) CallType() icp.CallType { return icp.CallTypePropertyBool }

func (c *PropertyBool) DecodeRequest(p *structpb.Struct) error {
	c.connectionID = getUint32(p, "connectionId")
	c.path = getString(p, "path")
	return nil
}

func (c *PropertyBool) Prepare(d *icp.Dispatcher) bool { return true }

func (c *PropertyBool) DoStuff(d *icp.Dispatcher, _ *session.Accessor) {
	var sessionID uint32
	if conn := d.Connections.Get(c.connectionID); conn != nil {
		sessionID = conn.SessionID
	}
	c.value, c.found = d.Properties.GetPropertyBool(sessionID, c.path)
}

func (c *PropertyBool) EncodeResponse() (*structpb.Struct, error) {
	return newStruct(map[string]any{"success": c.found, "value": c.value})
}

func (c *PropertyBool) TargetSessionID() uint32 { return 0 }
func (c *PropertyBool) Status() uint32          { return c.status }

// PropertyNumber implements CallInPropertyNumber, the int64 counterpart of
// PropertyBool.
type PropertyNumber struct {
	connectionID uint32
	path         string
	found        bool
	value        int64
	status       uint32
}

func NewPropertyNumber() icp.CallIn { return &PropertyNumber{} }

func (c *PropertyNumber) CallType() icp.CallType { return icp.CallTypePropertyNumber }

func (c *PropertyNumber) DecodeRequest(p *structpb.Struct) error {
	c.connectionID = getUint32(p, "connectionId")
	c.path = getString(p, "path")
	return nil
}

func (c *PropertyNumber) Prepare(d *icp.Dispatcher) bool { return true }

func (c *PropertyNumber) DoStuff(d *icp.Dispatcher, _ *session.Accessor) {
	var sessionID uint32
	if conn := d.Connections.Get(c.connectionID); conn != nil {
		sessionID = conn.SessionID
	}
	c.value, c.found = d.Properties.GetPropertyNumber(sessionID, c.path)
}

func (c *PropertyNumber) EncodeResponse() (*structpb.Struct, error) {
	return newStruct(map[string]any{"success": c.found, "value": float64(c.value)})
}

func (c *PropertyNumber) TargetSessionID() uint32 { return 0 }
func (c *PropertyNumber) Status() uint32          { return c.status }

// PropertyString implements CallInPropertyString, the string counterpart.
type PropertyString struct {
	connectionID uint32
	path         string
	found        bool
	value        string
	status       uint32
}

func NewPropertyString() icp.CallIn { return &PropertyString{} }

func (c *PropertyString) CallType() icp.CallType { return icp.CallTypePropertyString }

func (c *PropertyString) DecodeRequest(p *structpb.Struct) error {
	c.connectionID = getUint32(p, "connectionId")
	c.path = getString(p, "path")
	return nil
}

func (c *PropertyString) Prepare(d *icp.Dispatcher) bool { return true }

func (c *PropertyString) DoStuff(d *icp.Dispatcher, _ *session.Accessor) {
	var sessionID uint32
	if conn := d.Connections.Get(c.connectionID); conn != nil {
		sessionID = conn.SessionID
	}
	c.value, c.found = d.Properties.GetPropertyString(sessionID, c.path)
}

func (c *PropertyString) EncodeResponse() (*structpb.Struct, error) {
	return newStruct(map[string]any{"success": c.found, "value": c.value})
}

func (c *PropertyString) TargetSessionID() uint32 { return 0 }
func (c *PropertyString) Status() uint32          { return c.status }
