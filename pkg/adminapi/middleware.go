package adminapi

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/ogon-project/sessionmgr/pkg/errors"
	"github.com/ogon-project/sessionmgr/pkg/permission"
)

type ctxKey int

const connectionCtxKey ctxKey = 0

// authContext is what a handler needs about the authenticated caller,
// resolved once by requirePermission and stashed on the request context.
type authContext struct {
	connectionID uint32
	permissions  permission.Flags
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimPrefix(h, prefix)
}

// authenticate resolves the bearer token to its live Connection Store
// entry. A token that parses but whose connection has since been revoked
// (logoffConnection, logoffSession) is treated as unauthenticated: the
// Connection Store, not the token, is the source of truth for permissions.
func (s *Server) authenticate(r *http.Request) (*authContext, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, apierrors.New(apierrors.ErrPermissionDenied, "missing bearer token")
	}
	connID, err := s.tokens.parse(token)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.ErrPermissionDenied, "invalid authToken", err)
	}
	conn := s.ctx.Connections.Get(connID)
	if conn == nil || conn.AuthToken != token {
		return nil, apierrors.New(apierrors.ErrPermissionDenied, "authToken has been revoked")
	}
	return &authContext{connectionID: connID, permissions: conn.Permissions}, nil
}

// requirePermission decorates a HandlerWithError, authenticating the
// bearer token and rejecting the call before the handler body runs if the
// token's connection lacks want. On success the authContext is reachable
// from the request context via authFromContext.
func (s *Server) requirePermission(want permission.Flags, fn handlerWithError) http.HandlerFunc {
	return errorHandler(func(w http.ResponseWriter, r *http.Request) error {
		ac, err := s.authenticate(r)
		if err != nil {
			return err
		}
		if !ac.permissions.Has(want) {
			return apierrors.New(apierrors.ErrPermissionDenied, "authToken lacks required permission "+want.String())
		}
		return fn(w, r.WithContext(context.WithValue(r.Context(), connectionCtxKey, ac)))
	})
}

// requireAnyToken decorates fn with authentication only, no permission
// bit check: used by calls any logged-on connection may make about itself
// (getPermissionForToken, logoffConnection, ping).
func (s *Server) requireAnyToken(fn handlerWithError) http.HandlerFunc {
	return errorHandler(func(w http.ResponseWriter, r *http.Request) error {
		ac, err := s.authenticate(r)
		if err != nil {
			return err
		}
		return fn(w, r.WithContext(context.WithValue(r.Context(), connectionCtxKey, ac)))
	})
}

func authFromContext(r *http.Request) *authContext {
	ac, _ := r.Context().Value(connectionCtxKey).(*authContext)
	return ac
}
