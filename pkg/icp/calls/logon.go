package calls

import (
	"github.com/ogon-project/sessionmgr/pkg/icp"
	"github.com/ogon-project/sessionmgr/pkg/permission"
	"github.com/ogon-project/sessionmgr/pkg/session"
	"google.golang.org/protobuf/types/known/structpb"
)

// LogonUser implements CallInLogonUser (TaskCallInLogonUser in the
// original): authenticates a user through the external auth module and,
// on success, creates the Session record. It carries no session yet, so
// it runs off a one-off goroutine rather than any executor
// (TargetSessionID returns 0).
type LogonUser struct {
	userName       string
	domain         string
	password       string
	clientHostName string
	moduleConfig   string

	success   bool
	sessionID uint32
}

func NewLogonUser() icp.CallIn { return &LogonUser{} }

func (c *LogonUser) CallType() icp.CallType { return icp.CallTypeLogonUser }

func (c *LogonUser) DecodeRequest(p *structpb.Struct) error {
	c.userName = getString(p, "userName")
	c.domain = getString(p, "domain")
	c.password = getString(p, "password")
	c.clientHostName = getString(p, "clientHostName")
	c.moduleConfig = getString(p, "moduleConfigName")
	return nil
}

func (c *LogonUser) Prepare(d *icp.Dispatcher) bool { return false }

func (c *LogonUser) DoStuff(d *icp.Dispatcher, _ *session.Accessor) {
	if d.Auth == nil {
		return
	}
	ok, authUser, authDomain, err := d.Auth.Authenticate(c.userName, c.domain, c.password)
	if err != nil || !ok {
		c.success = false
		return
	}

	s := d.Sessions.Create(c.userName, c.domain, authUser, authDomain, c.clientHostName, c.moduleConfig)
	acc := session.NewAccessor()
	acc.Bind(s)
	acc.SetPermissions(permission.User)
	acc.SetState(session.StateConnected)
	acc.Unbind()
	d.Executors.StartFor(s.ID)

	c.success = true
	c.sessionID = s.ID
}

func (c *LogonUser) EncodeResponse() (*structpb.Struct, error) {
	return newStruct(map[string]any{
		"success":   c.success,
		"sessionId": float64(c.sessionID),
	})
}

func (c *LogonUser) TargetSessionID() uint32 { return 0 }

func (c *LogonUser) Status() uint32 {
	if !c.success {
		return 1
	}
	return 0
}
