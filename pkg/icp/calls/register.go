package calls

import "github.com/ogon-project/sessionmgr/pkg/icp"

// RegisterAll wires every CallIn factory this package provides into d.
// Call once, before d.Run.
func RegisterAll(d *icp.Dispatcher) {
	d.Register(icp.CallTypePropertyBool, NewPropertyBool)
	d.Register(icp.CallTypePropertyNumber, NewPropertyNumber)
	d.Register(icp.CallTypePropertyString, NewPropertyString)
	d.Register(icp.CallTypeSBPVersionInfo, NewSBPVersionInfo)
	d.Register(icp.CallTypeEndSession, NewEndSession)
	d.Register(icp.CallTypeLogonUser, NewLogonUser)
}
