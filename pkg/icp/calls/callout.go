package calls

import (
	"github.com/ogon-project/sessionmgr/pkg/icp"
	"google.golang.org/protobuf/types/known/structpb"
)

// LogOffUserSession implements CallOutLogOffUserSession: the manager asks
// the frontend to log a connection off, and waits for confirmation.
type LogOffUserSession struct {
	ConnectionID uint32
	LoggedOff    bool
}

func (c *LogOffUserSession) CallType() icp.CallType { return icp.CallTypeLogOffUserSession }

func (c *LogOffUserSession) EncodeRequest() (*structpb.Struct, error) {
	return newStruct(map[string]any{"connectionId": float64(c.ConnectionID)})
}

func (c *LogOffUserSession) DecodeResponse(p *structpb.Struct) error {
	c.LoggedOff = getBool(p, "loggedOff")
	return nil
}

// DisconnectUserSession implements CallOutDisconnectUserSession: the
// manager asks the frontend to disconnect a connection's transport while
// preserving the session, grounded verbatim on
// CallOutDisconnectUserSession.cpp.
type DisconnectUserSession struct {
	ConnectionID uint32
	Disconnected bool
}

func (c *DisconnectUserSession) CallType() icp.CallType { return icp.CallTypeDisconnectUserSession }

func (c *DisconnectUserSession) EncodeRequest() (*structpb.Struct, error) {
	return newStruct(map[string]any{"connectionId": float64(c.ConnectionID)})
}

func (c *DisconnectUserSession) DecodeResponse(p *structpb.Struct) error {
	c.Disconnected = getBool(p, "disconnected")
	return nil
}

// OtsApiVirtualChannelOpen implements CallOutOtsApiVirtualChannelOpen.
type OtsApiVirtualChannelOpen struct {
	SessionID    uint32
	ChannelName  string
	IsDynChannel bool
	Flags        uint32
	ChannelID    uint32
	Opened       bool
}

func (c *OtsApiVirtualChannelOpen) CallType() icp.CallType {
	return icp.CallTypeOtsApiVirtualChannelOpen
}

func (c *OtsApiVirtualChannelOpen) EncodeRequest() (*structpb.Struct, error) {
	return newStruct(map[string]any{
		"sessionId":    float64(c.SessionID),
		"channelName":  c.ChannelName,
		"isDynChannel": c.IsDynChannel,
		"flags":        float64(c.Flags),
	})
}

func (c *OtsApiVirtualChannelOpen) DecodeResponse(p *structpb.Struct) error {
	c.Opened = getBool(p, "opened")
	c.ChannelID = getUint32(p, "channelId")
	return nil
}

// OtsApiVirtualChannelClose implements CallOutOtsApiVirtualChannelClose.
type OtsApiVirtualChannelClose struct {
	SessionID uint32
	ChannelID uint32
	Closed    bool
}

func (c *OtsApiVirtualChannelClose) CallType() icp.CallType {
	return icp.CallTypeOtsApiVirtualChannelClose
}

func (c *OtsApiVirtualChannelClose) EncodeRequest() (*structpb.Struct, error) {
	return newStruct(map[string]any{
		"sessionId": float64(c.SessionID),
		"channelId": float64(c.ChannelID),
	})
}

func (c *OtsApiVirtualChannelClose) DecodeResponse(p *structpb.Struct) error {
	c.Closed = getBool(p, "closed")
	return nil
}

// OtsApiStartRemoteControl implements CallOutOtsApiStartRemoteControl: the
// manager asks the frontend to shadow TargetSessionID from SourceSessionID,
// carrying the hotkey the shadowed user can press to end the session
// (HotkeyVk/HotkeyModifiers) and a backend-defined Flags word, mirroring
// TaskStartRemoteControl's constructor arguments.
type OtsApiStartRemoteControl struct {
	SourceSessionID uint32
	TargetSessionID uint32
	HotkeyVk        uint8
	HotkeyModifiers int16
	Flags           uint32
	Started         bool
}

func (c *OtsApiStartRemoteControl) CallType() icp.CallType {
	return icp.CallTypeOtsApiStartRemoteControl
}

func (c *OtsApiStartRemoteControl) EncodeRequest() (*structpb.Struct, error) {
	return newStruct(map[string]any{
		"sourceSessionId": float64(c.SourceSessionID),
		"targetSessionId": float64(c.TargetSessionID),
		"hotkeyVk":        float64(c.HotkeyVk),
		"hotkeyModifiers": float64(c.HotkeyModifiers),
		"flags":           float64(c.Flags),
	})
}

func (c *OtsApiStartRemoteControl) DecodeResponse(p *structpb.Struct) error {
	c.Started = getBool(p, "started")
	return nil
}

// OtsApiStopRemoteControl implements CallOutOtsApiStopRemoteControl.
type OtsApiStopRemoteControl struct {
	TargetSessionID uint32
	Stopped         bool
}

func (c *OtsApiStopRemoteControl) CallType() icp.CallType {
	return icp.CallTypeOtsApiStopRemoteControl
}

func (c *OtsApiStopRemoteControl) EncodeRequest() (*structpb.Struct, error) {
	return newStruct(map[string]any{"targetSessionId": float64(c.TargetSessionID)})
}

func (c *OtsApiStopRemoteControl) DecodeResponse(p *structpb.Struct) error {
	c.Stopped = getBool(p, "stopped")
	return nil
}

// OtsApiSendMessage implements CallOutOtsApiSendMessage: the manager asks
// the frontend to display a message box in sessionId and, if Wait is set,
// waits for the user's chosen button before Response is meaningful. No
// surviving source for this CallOut remains in the retained pack; the
// shape follows OTSApiHandler.h's sendMessage signature and this file's
// established CallOut pattern.
type OtsApiSendMessage struct {
	SessionID uint32
	Title     string
	Message   string
	Style     uint32
	Timeout   uint32
	Wait      bool
	Response  uint32
}

func (c *OtsApiSendMessage) CallType() icp.CallType { return icp.CallTypeOtsApiSendMessage }

func (c *OtsApiSendMessage) EncodeRequest() (*structpb.Struct, error) {
	return newStruct(map[string]any{
		"sessionId": float64(c.SessionID),
		"title":     c.Title,
		"message":   c.Message,
		"style":     float64(c.Style),
		"timeout":   float64(c.Timeout),
		"wait":      c.Wait,
	})
}

func (c *OtsApiSendMessage) DecodeResponse(p *structpb.Struct) error {
	c.Response = getUint32(p, "response")
	return nil
}
