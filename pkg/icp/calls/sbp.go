package calls

import (
	"github.com/ogon-project/sessionmgr/pkg/icp"
	"github.com/ogon-project/sessionmgr/pkg/session"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	protocolVersionMajor = 2
	protocolVersionMinor = 0
)

// SBPVersionInfo implements CallInSBPVersion: the frontend announces its
// SBP protocol version for a session, and the manager records whether the
// major version matches (sbpCompatible gates all further SBP traffic to
// that session). sbpCompatible is recomputed on every call rather than
// sticky: a reconnecting client simply overwrites the prior value (see
// DESIGN.md Open Question decisions).
type SBPVersionInfo struct {
	sessionID    uint32
	clientMajor  uint32
	clientMinor  uint32
	sessionFound bool
}

func NewSBPVersionInfo() icp.CallIn { return &SBPVersionInfo{} }

func (c *SBPVersionInfo) CallType() icp.CallType { return icp.CallTypeSBPVersionInfo }

func (c *SBPVersionInfo) DecodeRequest(p *structpb.Struct) error {
	c.sessionID = getUint32(p, "sessionId")
	c.clientMajor = getUint32(p, "vMajor")
	c.clientMinor = getUint32(p, "vMinor")
	return nil
}

// Prepare resolves the session and records compatibility immediately; like
// the original, it always answers synchronously rather than scheduling
// doStuff on the session's executor — there is nothing here that needs
// serializing against other session mutations beyond the single boolean
// field, which Session guards internally.
func (c *SBPVersionInfo) Prepare(d *icp.Dispatcher) bool {
	s := d.Sessions.Get(c.sessionID)
	if s == nil {
		c.sessionFound = false
		return true
	}
	c.sessionFound = true
	acc := session.NewAccessor()
	acc.Bind(s)
	acc.SetSBPCompatible(c.clientMajor == protocolVersionMajor)
	acc.Unbind()
	return true
}

func (c *SBPVersionInfo) DoStuff(d *icp.Dispatcher, _ *session.Accessor) {}

func (c *SBPVersionInfo) EncodeResponse() (*structpb.Struct, error) {
	return newStruct(map[string]any{
		"vMajor": float64(protocolVersionMajor),
		"vMinor": float64(protocolVersionMinor),
	})
}

func (c *SBPVersionInfo) TargetSessionID() uint32 { return c.sessionID }

func (c *SBPVersionInfo) Status() uint32 {
	if !c.sessionFound {
		return 1
	}
	return 0
}
