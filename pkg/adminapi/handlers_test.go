package adminapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogon-project/sessionmgr/pkg/icp"
	"github.com/ogon-project/sessionmgr/pkg/permission"
	"github.com/ogon-project/sessionmgr/pkg/session"
)

// withPipeDispatcher wires ctx.Dispatcher to an in-memory net.Pipe so CallOut
// round trips have a peer to answer them, mirroring pkg/tasks' own test
// harness for the same dispatcher.
func withPipeDispatcher(t *testing.T, srv *Server) (net.Conn, func()) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	d := icp.NewDispatcher(serverConn, nil, nil, nil, srv.ctx.Executors, nil)
	srv.ctx.Dispatcher = d

	runCtx, cancel := context.WithCancel(context.Background())
	go d.Run(runCtx)

	return clientConn, func() {
		cancel()
		clientConn.Close()
		serverConn.Close()
	}
}

func respondOnce(t *testing.T, clientConn net.Conn, fields map[string]any) {
	t.Helper()
	go func() {
		frame, err := icp.ReadFrame(clientConn)
		if err != nil {
			return
		}
		resp, _ := structpb.NewStruct(fields)
		_ = icp.WriteFrame(clientConn, icp.Frame{
			Header: icp.Header{
				CallType:  frame.Header.CallType,
				Tag:       frame.Header.Tag,
				Direction: icp.DirectionResponse,
			},
			Payload: resp,
		})
	}()
}

// logonFull authenticates and upgrades the resulting token to the Full
// permission preset, since several admin calls require bits the ordinary
// User preset does not carry.
func logonFull(t *testing.T, srv *Server) string {
	t.Helper()
	token := logon(t, srv).AuthToken
	conn := srv.ctx.Connections.GetByAuthToken(token)
	require.NotNil(t, conn)
	srv.ctx.Connections.SetAuthToken(conn.ID, token, permission.Full)
	return token
}

func TestDisconnectSession_RoundTrip(t *testing.T) {
	srv, ctx := newTestServer(t, &fakeAuth{ok: true})
	s := ctx.Sessions.Create("carol", "CORP", "carol", "CORP", "ws-1", "rdp")
	conn := ctx.Connections.Create()
	ctx.Connections.BindSession(conn.ID, s.ID)
	ctx.Executors.StartFor(s.ID)

	acc := session.NewAccessor()
	acc.Bind(s)
	acc.SetState(session.StateActive)
	acc.Unbind()

	clientConn, cleanup := withPipeDispatcher(t, srv)
	defer cleanup()
	respondOnce(t, clientConn, map[string]any{"loggedOff": true})

	token := logonFull(t, srv)
	rec := doJSON(t, srv, http.MethodPost, "/otsapi/disconnectSession", token, sessionTargetRequest{SessionID: s.ID, Wait: true})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Nil(t, ctx.Connections.Get(conn.ID))
}

func TestDisconnectSession_UnknownSessionNotFound(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAuth{ok: true})
	token := logonFull(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/otsapi/disconnectSession", token, sessionTargetRequest{SessionID: 999, Wait: true})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogoffSession_RemovesConnectionAndSession(t *testing.T) {
	srv, ctx := newTestServer(t, &fakeAuth{ok: true})
	s := ctx.Sessions.Create("dave", "CORP", "dave", "CORP", "ws-2", "rdp")
	conn := ctx.Connections.Create()
	ctx.Connections.BindSession(conn.ID, s.ID)
	ctx.Executors.StartFor(s.ID)

	clientConn, cleanup := withPipeDispatcher(t, srv)
	defer cleanup()
	respondOnce(t, clientConn, map[string]any{"loggedOff": true})

	token := logonFull(t, srv)
	rec := doJSON(t, srv, http.MethodPost, "/otsapi/logoffSession", token, sessionTargetRequest{SessionID: s.ID, Wait: true})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Nil(t, ctx.Sessions.Get(s.ID))
	require.Nil(t, ctx.Connections.Get(conn.ID))
}

func TestStartStopRemoteControlSession_RoundTrip(t *testing.T) {
	srv, ctx := newTestServer(t, &fakeAuth{ok: true})
	source := ctx.Sessions.Create("alice", "CORP", "alice", "CORP", "ws-1", "rdp")
	target := ctx.Sessions.Create("bob", "CORP", "bob", "CORP", "ws-2", "rdp")
	ctx.Executors.StartFor(source.ID)
	ctx.Executors.StartFor(target.ID)

	clientConn, cleanup := withPipeDispatcher(t, srv)
	defer cleanup()
	respondOnce(t, clientConn, map[string]any{"started": true})

	token := logonFull(t, srv)
	rec := doJSON(t, srv, http.MethodPost, "/otsapi/startRemoteControlSession", token, remoteControlRequest{
		SourceSessionID: source.ID, TargetSessionID: target.ID, HotkeyVk: 0x70,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	snap, ok := ctx.Sessions.Snapshot(target.ID)
	require.True(t, ok)
	require.Equal(t, session.StateShadow, snap.ConnectState)

	respondOnce(t, clientConn, map[string]any{"stopped": true})
	rec = doJSON(t, srv, http.MethodPost, "/otsapi/stopRemoteControlSession", token, struct {
		SourceSessionID uint32 `json:"sourceSessionId"`
		TargetSessionID uint32 `json:"targetSessionId"`
	}{source.ID, target.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
}

func TestSendMessage_RoundTrip(t *testing.T) {
	srv, ctx := newTestServer(t, &fakeAuth{ok: true})
	s := ctx.Sessions.Create("erin", "CORP", "erin", "CORP", "ws-3", "rdp")

	clientConn, cleanup := withPipeDispatcher(t, srv)
	defer cleanup()
	respondOnce(t, clientConn, map[string]any{"response": float64(1)})

	token := logonFull(t, srv)
	rec := doJSON(t, srv, http.MethodPost, "/otsapi/sendMessage", token, sendMessageRequest{
		SessionID: s.ID, Title: "Notice", Message: "server restarting", Style: 0, Timeout: 30, Wait: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Response uint32 `json:"response"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, uint32(1), resp.Response)
}

func TestQuerySessionInformation_ReadsRequestedField(t *testing.T) {
	srv, ctx := newTestServer(t, &fakeAuth{ok: true})
	s := ctx.Sessions.Create("frank", "CORP", "frank", "CORP", "ws-4", "rdp")
	token := logonFull(t, srv)

	path := fmt.Sprintf("/otsapi/querySessionInformation?sessionId=%d&infoClass=0", s.ID)
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Value string `json:"value"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "frank", resp.Value)
}
