package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_LogonAndEnumerateSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/otsapi/logonConnection":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(logonResponse{Success: true, AuthToken: "tok-1", Permissions: 9})
		case "/otsapi/enumerateSessions":
			require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(struct {
				Sessions []sessionRow `json:"sessions"`
			}{[]sessionRow{{SessionID: 1, UserName: "alice", Domain: "CORP", ConnectState: "Active"}}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newClient(srv.URL, false)
	require.NoError(t, c.logon(context.Background(), "alice", "CORP", "secret"))
	require.Equal(t, "tok-1", c.authToken)

	rows, err := c.enumerateSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "alice", rows[0].UserName)
}

func TestClient_LogonFailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(logonResponse{Success: false})
	}))
	defer srv.Close()

	c := newClient(srv.URL, false)
	require.Error(t, c.logon(context.Background(), "alice", "CORP", "wrong"))
	require.Empty(t, c.authToken)
}

func TestClient_CallPropagatesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(struct {
			Error string `json:"error"`
		}{"permission denied"})
	}))
	defer srv.Close()

	c := newClient(srv.URL, false)
	_, err := c.enumerateSessions(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "permission denied")
}
