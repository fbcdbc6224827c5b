package adminapi

import (
	"context"
	"net/http"
	"strconv"

	apierrors "github.com/ogon-project/sessionmgr/pkg/errors"
	"github.com/ogon-project/sessionmgr/pkg/icp/calls"
	"github.com/ogon-project/sessionmgr/pkg/permission"
	"github.com/ogon-project/sessionmgr/pkg/tasks"
)

// Permission requirements per OTSApiHandler.h's method set.
const (
	vcPermission            = permission.VirtualChannel
	disconnectPermission    = permission.Disconnect
	logoffPermission        = permission.Logoff
	queryPermission         = permission.QueryInformation
	remoteControlPermission = permission.RemoteControl
	messagePermission       = permission.Message
)

const adminAPIVersionMajor, adminAPIVersionMinor = 2, 0

type versionInfo struct {
	Major int32 `json:"major"`
	Minor int32 `json:"minor"`
}

func (s *Server) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, versionInfo{Major: adminAPIVersionMajor, Minor: adminAPIVersionMinor})
	return nil
}

type logonRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
	Domain   string `json:"domain"`
}

type logonResponse struct {
	Success     bool   `json:"success"`
	AuthToken   string `json:"authToken"`
	Permissions uint16 `json:"permissions"`
}

// handleLogonConnection is the only unauthenticated call: it validates
// credentials against the external auth module, mints a connection and an
// authToken, and returns the permission bitmask the token carries. Every
// logon is granted the User preset; nothing in the retained IDL surface
// conveys a richer role to assign instead (see DESIGN.md).
func (s *Server) handleLogonConnection(w http.ResponseWriter, r *http.Request) error {
	var req logonRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	if s.cfg.Auth == nil {
		return apierrors.New(apierrors.ErrInternal, "no auth module configured")
	}
	ok, _, _, err := s.cfg.Auth.Authenticate(req.UserName, req.Domain, req.Password)
	if err != nil {
		return apierrors.Wrap(apierrors.ErrInternal, "authentication backend error", err)
	}
	if !ok {
		writeJSON(w, http.StatusOK, logonResponse{Success: false})
		return nil
	}

	conn := s.ctx.Connections.Create()
	perms := permission.User
	token, err := s.tokens.issue(conn.ID)
	if err != nil {
		return apierrors.Wrap(apierrors.ErrInternal, "mint authToken", err)
	}
	s.ctx.Connections.SetAuthToken(conn.ID, token, perms)

	writeJSON(w, http.StatusOK, logonResponse{Success: true, AuthToken: token, Permissions: uint16(perms)})
	return nil
}

func (s *Server) handleGetPermissionForToken(w http.ResponseWriter, r *http.Request) error {
	ac := authFromContext(r)
	writeJSON(w, http.StatusOK, struct {
		Permissions uint16 `json:"permissions"`
	}{uint16(ac.permissions)})
	return nil
}

// handleLogoffConnection revokes the caller's own authToken without
// touching whatever session it may be bound to, distinct from
// logoffSession which tears a target RDP session down.
func (s *Server) handleLogoffConnection(w http.ResponseWriter, r *http.Request) error {
	ac := authFromContext(r)
	s.ctx.Connections.Remove(ac.connectionID)
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{true})
	return nil
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Input uint32 `json:"input"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, struct {
		Output uint32 `json:"output"`
	}{req.Input})
	return nil
}

type virtualChannelOpenRequest struct {
	SessionID    uint32 `json:"sessionId"`
	VirtualName  string `json:"virtualName"`
	IsDynChannel bool   `json:"isDynChannel"`
	Flags        uint32 `json:"flags"`
}

func (s *Server) handleVirtualChannelOpen(w http.ResponseWriter, r *http.Request) error {
	var req virtualChannelOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	call := &calls.OtsApiVirtualChannelOpen{
		SessionID:    req.SessionID,
		ChannelName:  req.VirtualName,
		IsDynChannel: req.IsDynChannel,
		Flags:        req.Flags,
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CallTimeout)
	defer cancel()
	if err := s.ctx.Dispatcher.SendCallOut(ctx, call); err != nil {
		return apierrors.Wrap(apierrors.ErrTimeout, "virtualChannelOpen did not complete", err)
	}

	writeJSON(w, http.StatusOK, struct {
		Success   bool   `json:"success"`
		ChannelID uint32 `json:"channelId"`
	}{call.Opened, call.ChannelID})
	return nil
}

type virtualChannelCloseRequest struct {
	SessionID   uint32 `json:"sessionId"`
	VirtualName string `json:"virtualName"`
	Instance    uint32 `json:"instance"`
}

func (s *Server) handleVirtualChannelClose(w http.ResponseWriter, r *http.Request) error {
	var req virtualChannelCloseRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	call := &calls.OtsApiVirtualChannelClose{SessionID: req.SessionID, ChannelID: req.Instance}
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CallTimeout)
	defer cancel()
	if err := s.ctx.Dispatcher.SendCallOut(ctx, call); err != nil {
		return apierrors.Wrap(apierrors.ErrTimeout, "virtualChannelClose did not complete", err)
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{call.Closed})
	return nil
}

type sessionTargetRequest struct {
	SessionID uint32 `json:"sessionId"`
	Wait      bool   `json:"wait"`
}

func (s *Server) handleDisconnectSession(w http.ResponseWriter, r *http.Request) error {
	var req sessionTargetRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	exec := s.ctx.Executors.Get(req.SessionID)
	if exec == nil {
		return apierrors.New(apierrors.ErrNotFound, "session not found")
	}

	task := tasks.NewDisconnect(r.Context(), s.ctx, req.SessionID, req.Wait, s.cfg.CallTimeout)
	exec.Submit(task)
	task.Done().Wait()

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{task.Result()})
	return nil
}

// handleLogoffSession submits tasks.Logoff and, on success, additionally
// retires the connection record Logoff deliberately left alone: Logoff
// only removes the session and its executor, since the connection is an
// admin-API-facing concept the task layer has no reason to know about.
func (s *Server) handleLogoffSession(w http.ResponseWriter, r *http.Request) error {
	var req sessionTargetRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	exec := s.ctx.Executors.Get(req.SessionID)
	if exec == nil {
		return apierrors.New(apierrors.ErrNotFound, "session not found")
	}

	task := tasks.NewLogoff(r.Context(), s.ctx, req.SessionID, req.Wait, s.cfg.CallTimeout)
	exec.Submit(task)
	task.Done().Wait()

	if task.Result() {
		if connID := task.ConnectionID(); connID != 0 {
			s.ctx.Connections.Remove(connID)
		}
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{task.Result()})
	return nil
}

type enumeratedSession struct {
	SessionID      uint32 `json:"sessionId"`
	UserName       string `json:"userName"`
	Domain         string `json:"domain"`
	ClientHostName string `json:"clientHostName"`
	ConnectState   string `json:"connectState"`
}

func (s *Server) handleEnumerateSessions(w http.ResponseWriter, _ *http.Request) error {
	snapshots := s.ctx.Sessions.GetAllSessions()
	out := make([]enumeratedSession, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, enumeratedSession{
			SessionID:      snap.ID,
			UserName:       snap.UserName,
			Domain:         snap.Domain,
			ClientHostName: snap.ClientHostName,
			ConnectState:   snap.ConnectState.String(),
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Sessions []enumeratedSession `json:"sessions"`
	}{out})
	return nil
}

// infoClass selects which field querySessionInformation reads, modeled on
// WTS_INFO_CLASS from the original IDL's surface.
type infoClass int32

const (
	infoClassUserName infoClass = iota
	infoClassDomainName
	infoClassConnectState
	infoClassClientHostName
)

func (s *Server) handleQuerySessionInformation(w http.ResponseWriter, r *http.Request) error {
	sessionID, err := parseUint32Query(r, "sessionId")
	if err != nil {
		return err
	}
	classRaw, err := parseInt32Query(r, "infoClass")
	if err != nil {
		return err
	}

	snap, ok := s.ctx.Sessions.Snapshot(sessionID)
	if !ok {
		return apierrors.New(apierrors.ErrNotFound, "session not found")
	}

	var value string
	switch infoClass(classRaw) {
	case infoClassUserName:
		value = snap.UserName
	case infoClassDomainName:
		value = snap.Domain
	case infoClassConnectState:
		value = snap.ConnectState.String()
	case infoClassClientHostName:
		value = snap.ClientHostName
	default:
		return apierrors.New(apierrors.ErrInvalidArgument, "unrecognized infoClass")
	}

	writeJSON(w, http.StatusOK, struct {
		Value string `json:"value"`
	}{value})
	return nil
}

type remoteControlRequest struct {
	SourceSessionID uint32 `json:"sourceSessionId"`
	TargetSessionID uint32 `json:"targetSessionId"`
	HotkeyVk        uint8  `json:"hotkeyVk"`
	HotkeyModifiers int16  `json:"hotkeyModifiers"`
	Flags           uint32 `json:"flags"`
}

func (s *Server) handleStartRemoteControlSession(w http.ResponseWriter, r *http.Request) error {
	var req remoteControlRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	exec := s.ctx.Executors.Get(req.TargetSessionID)
	if exec == nil {
		return apierrors.New(apierrors.ErrNotFound, "target session not found")
	}

	task := tasks.NewStartRemoteControl(r.Context(), s.ctx, req.SourceSessionID, req.TargetSessionID,
		req.HotkeyVk, req.HotkeyModifiers, req.Flags, s.cfg.CallTimeout)
	exec.Submit(task)
	task.Done().Wait()

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{task.Result()})
	return nil
}

func (s *Server) handleStopRemoteControlSession(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		SourceSessionID uint32 `json:"sourceSessionId"`
		TargetSessionID uint32 `json:"targetSessionId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	exec := s.ctx.Executors.Get(req.TargetSessionID)
	if exec == nil {
		return apierrors.New(apierrors.ErrNotFound, "target session not found")
	}

	task := tasks.NewStopRemoteControl(r.Context(), s.ctx, s.cfg.CallTimeout)
	exec.Submit(task)
	task.Done().Wait()

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{task.Result()})
	return nil
}

type sendMessageRequest struct {
	SessionID uint32 `json:"sessionId"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Style     uint32 `json:"style"`
	Timeout   uint32 `json:"timeout"`
	Wait      bool   `json:"wait"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) error {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	call := &calls.OtsApiSendMessage{
		SessionID: req.SessionID,
		Title:     req.Title,
		Message:   req.Message,
		Style:     req.Style,
		Timeout:   req.Timeout,
		Wait:      req.Wait,
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CallTimeout)
	defer cancel()
	if err := s.ctx.Dispatcher.SendCallOut(ctx, call); err != nil {
		return apierrors.Wrap(apierrors.ErrTimeout, "sendMessage did not complete", err)
	}

	writeJSON(w, http.StatusOK, struct {
		Response uint32 `json:"response"`
	}{call.Response})
	return nil
}

func parseUint32Query(r *http.Request, key string) (uint32, error) {
	raw := r.URL.Query().Get(key)
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, apierrors.Wrap(apierrors.ErrInvalidArgument, "missing or malformed "+key, err)
	}
	return uint32(v), nil
}

func parseInt32Query(r *http.Request, key string) (int32, error) {
	raw := r.URL.Query().Get(key)
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, apierrors.Wrap(apierrors.ErrInvalidArgument, "missing or malformed "+key, err)
	}
	return int32(v), nil
}
