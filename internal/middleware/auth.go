package middleware

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"

	"github.com/kndrckm/splitbill/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// SessionIDKey is the context key for the session ID carried by a validated token.
const SessionIDKey contextKey = "session_id"

// ErrWrongSession is returned when a token is used for a session it was not issued for.
var ErrWrongSession = errors.New("token does not grant access to this session")

// SessionScoped is implemented by every request message that targets one session.
type SessionScoped interface {
	GetSessionID() string
}

// GetSessionID extracts the authorized session ID from the context.
// Returns empty string if not found.
func GetSessionID(ctx context.Context) string {
	sessionID, _ := ctx.Value(SessionIDKey).(string)
	return sessionID
}

// RequireSessionToken returns an interceptor that validates the bearer token
// and checks it was issued for the session the request targets.
// Procedures listed in public skip the check (session creation and opening).
func RequireSessionToken(jwtManager *auth.JWTManager, public ...string) connect.UnaryInterceptorFunc {
	open := make(map[string]bool, len(public))
	for _, p := range public {
		open[p] = true
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if open[req.Spec().Procedure] {
				return next(ctx, req)
			}

			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			if scoped, ok := req.Any().(SessionScoped); ok && scoped.GetSessionID() != claims.SessionID {
				return nil, connect.NewError(connect.CodePermissionDenied, ErrWrongSession)
			}

			ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID)
			return next(ctx, req)
		}
	}
}
