package app

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// client is a thin wrapper over the administrative API's HTTPS/JSON surface.
// It holds no session state beyond the authToken obtained from logon.
type client struct {
	baseURL   string
	authToken string
	http      *http.Client
}

// newClient constructs a client trusting insecureSkipVerify only for the
// self-signed certificates loadOrGenerateCert mints for local development;
// production deployments should point --insecure-skip-verify off and
// configure a real certificate on the server.
func newClient(baseURL string, insecureSkipVerify bool) *client {
	return &client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: insecureSkipVerify}, //nolint:gosec
			},
		},
	}
}

func (c *client) call(ctx context.Context, path string, req, resp any) error {
	var body bytes.Buffer
	if req != nil {
		if err := json.NewEncoder(&body).Encode(req); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(httpResp.Body).Decode(&errBody)
		return fmt.Errorf("%s: %s: %s", path, httpResp.Status, errBody.Error)
	}

	if resp == nil {
		return nil
	}
	return json.NewDecoder(httpResp.Body).Decode(resp)
}

type logonResponse struct {
	Success     bool   `json:"success"`
	AuthToken   string `json:"authToken"`
	Permissions uint16 `json:"permissions"`
}

// logon authenticates and stores the resulting authToken for subsequent calls.
func (c *client) logon(ctx context.Context, userName, domain, password string) error {
	var resp logonResponse
	if err := c.call(ctx, "/otsapi/logonConnection", map[string]string{
		"userName": userName,
		"domain":   domain,
		"password": password,
	}, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("logon rejected")
	}
	c.authToken = resp.AuthToken
	return nil
}

type sessionRow struct {
	SessionID      uint32 `json:"sessionId"`
	UserName       string `json:"userName"`
	Domain         string `json:"domain"`
	ClientHostName string `json:"clientHostName"`
	ConnectState   string `json:"connectState"`
}

// enumerateSessions lists every live session, as reported by the administrative API.
func (c *client) enumerateSessions(ctx context.Context) ([]sessionRow, error) {
	var resp struct {
		Sessions []sessionRow `json:"sessions"`
	}
	if err := c.call(ctx, "/otsapi/enumerateSessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}
