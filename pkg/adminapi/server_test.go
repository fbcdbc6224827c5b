package adminapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ogon-project/sessionmgr/pkg/config"
	"github.com/ogon-project/sessionmgr/pkg/connection"
	"github.com/ogon-project/sessionmgr/pkg/executor"
	"github.com/ogon-project/sessionmgr/pkg/session"
	"github.com/ogon-project/sessionmgr/pkg/tasks"
)

type fakeAuth struct {
	ok               bool
	userName, domain string
}

func (f *fakeAuth) Authenticate(userName, domain, _ string) (bool, string, string, error) {
	f.userName, f.domain = userName, domain
	return f.ok, userName, domain, nil
}

// newTestServer builds a Server over fresh in-memory stores, with no
// Dispatcher (tests that need CallOut round trips build their own harness).
func newTestServer(t *testing.T, auth *fakeAuth) (*Server, *tasks.Context) {
	t.Helper()
	sessions := session.NewStore()
	connections := connection.NewStore()
	properties, err := config.Load("")
	require.NoError(t, err)
	registry := executor.NewRegistry(sessions)

	ctx := &tasks.Context{
		Sessions:    sessions,
		Connections: connections,
		Properties:  properties,
		Executors:   registry,
	}

	srv, err := NewServer(Config{Auth: auth}, ctx)
	require.NoError(t, err)
	return srv, ctx
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func logon(t *testing.T, srv *Server) logonResponse {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/otsapi/logonConnection", "", logonRequest{UserName: "alice", Domain: "CORP", Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp logonResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestLogonConnection_SuccessIssuesUserPreset(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAuth{ok: true})
	resp := logon(t, srv)
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.AuthToken)
	require.Equal(t, uint16(0x49), resp.Permissions) // Connect|QueryInformation|Logon
}

func TestLogonConnection_AuthFailure(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAuth{ok: false})
	resp := logon(t, srv)
	require.False(t, resp.Success)
	require.Empty(t, resp.AuthToken)
}

func TestProtectedCall_RejectsMissingToken(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAuth{ok: true})
	rec := doJSON(t, srv, http.MethodPost, "/otsapi/ping", "", struct {
		Input uint32 `json:"input"`
	}{5})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPing_RoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAuth{ok: true})
	token := logon(t, srv).AuthToken

	rec := doJSON(t, srv, http.MethodPost, "/otsapi/ping", token, struct {
		Input uint32 `json:"input"`
	}{42})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Output uint32 `json:"output"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, uint32(42), resp.Output)
}

func TestEnumerateSessions_DeniedWithoutQueryPermission(t *testing.T) {
	srv, ctx := newTestServer(t, &fakeAuth{ok: true})
	token := logon(t, srv).AuthToken
	conn := ctx.Connections.GetByAuthToken(token)
	require.NotNil(t, conn)
	ctx.Connections.SetAuthToken(conn.ID, token, 0) // strip all permissions

	rec := doJSON(t, srv, http.MethodPost, "/otsapi/enumerateSessions", token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEnumerateSessions_ListsLiveSessions(t *testing.T) {
	srv, ctx := newTestServer(t, &fakeAuth{ok: true})
	ctx.Sessions.Create("bob", "CORP", "bob", "CORP", "ws-1", "rdp")
	token := logon(t, srv).AuthToken

	rec := doJSON(t, srv, http.MethodPost, "/otsapi/enumerateSessions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sessions []enumeratedSession `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sessions, 1)
	require.Equal(t, "bob", resp.Sessions[0].UserName)
}

func TestLogoffConnection_RevokesToken(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAuth{ok: true})
	token := logon(t, srv).AuthToken

	rec := doJSON(t, srv, http.MethodPost, "/otsapi/logoffConnection", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/otsapi/ping", token, struct {
		Input uint32 `json:"input"`
	}{1})
	require.Equal(t, http.StatusForbidden, rec.Code)
}
