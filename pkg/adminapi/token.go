package adminapi

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// claims is the payload carried by an authToken. ConnectionID ties the
// token back to the Connection Store entry that actually holds the live
// permission bitmask, so revoking a connection (logoffConnection,
// logoffSession) invalidates the token without needing a denylist.
type claims struct {
	ConnectionID uint32 `json:"connectionId"`
	jwt.RegisteredClaims
}

// tokenIssuer mints and verifies authTokens with an HMAC secret generated
// once at server startup. Tokens do not need to survive a process restart:
// every live connection is itself process-local state.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func newTokenIssuer(secret []byte, ttl time.Duration) *tokenIssuer {
	return &tokenIssuer{secret: secret, ttl: ttl}
}

func (i *tokenIssuer) issue(connectionID uint32) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		ConnectionID: connectionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
	return t.SignedString(i.secret)
}

func (i *tokenIssuer) parse(token string) (uint32, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("adminapi: unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return 0, err
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return 0, fmt.Errorf("adminapi: invalid token")
	}
	return c.ConnectionID, nil
}
