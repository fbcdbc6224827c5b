package icp

// CallType enumerates every recognized ICP call kind, in both directions.
type CallType uint32

const (
	CallTypeUnknown CallType = iota
	CallTypePropertyBool
	CallTypePropertyNumber
	CallTypePropertyString
	CallTypeSBPVersionInfo
	CallTypeEndSession
	CallTypeLogonUser

	// CallOut kinds: manager -> frontend.
	CallTypeLogOffUserSession
	CallTypeDisconnectUserSession
	CallTypeOtsApiVirtualChannelOpen
	CallTypeOtsApiVirtualChannelClose
	CallTypeOtsApiStartRemoteControl
	CallTypeOtsApiStopRemoteControl
	CallTypeOtsApiSendMessage
)

func (c CallType) String() string {
	switch c {
	case CallTypePropertyBool:
		return "PropertyBool"
	case CallTypePropertyNumber:
		return "PropertyNumber"
	case CallTypePropertyString:
		return "PropertyString"
	case CallTypeSBPVersionInfo:
		return "SBPVersionInfo"
	case CallTypeEndSession:
		return "EndSession"
	case CallTypeLogonUser:
		return "LogonUser"
	case CallTypeLogOffUserSession:
		return "LogOffUserSession"
	case CallTypeDisconnectUserSession:
		return "DisconnectUserSession"
	case CallTypeOtsApiVirtualChannelOpen:
		return "OtsApiVirtualChannelOpen"
	case CallTypeOtsApiVirtualChannelClose:
		return "OtsApiVirtualChannelClose"
	case CallTypeOtsApiStartRemoteControl:
		return "OtsApiStartRemoteControl"
	case CallTypeOtsApiStopRemoteControl:
		return "OtsApiStopRemoteControl"
	case CallTypeOtsApiSendMessage:
		return "OtsApiSendMessage"
	default:
		return "Unknown"
	}
}
