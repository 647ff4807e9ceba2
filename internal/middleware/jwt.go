// internal/middleware/jwt.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"riff-review/internal/api"
	"riff-review/internal/session"
	"riff-review/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// SessionCookie is the cookie the login flow sets to the session id.
const SessionCookie = "riff_session"

const issuer = "riff-review-api"

// Claims represents the JWT claims for our application
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Viewer is the authenticated person behind a request. Token is the
// credential the like flow checks.
type Viewer struct {
	UserID string
	Token  string
}

// Authenticator issues and checks viewer tokens. Authentication is optional
// for most routes: anonymous viewers can read, edit and post, and only likes
// and account routes need a viewer.
type Authenticator struct {
	secret   []byte
	ttl      time.Duration
	sessions session.Store
}

// NewAuthenticator builds an Authenticator. sessions may be nil, in which
// case only bearer tokens are accepted.
func NewAuthenticator(secret string, ttl time.Duration, sessions session.Store) *Authenticator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl, sessions: sessions}
}

// GenerateToken creates a new JWT token for the given user ID
func (a *Authenticator) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken validates the provided JWT token
func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return a.secret, nil
		},
	)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "Invalid token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "Invalid token", errors.New("missing user id"))
	}
	return claims, nil
}

// Resolve finds the viewer from, in order, the Authorization header, the
// session cookie, or a token query parameter (websocket upgrades cannot set
// headers). A request with none of them is anonymous: nil viewer, nil error.
func (a *Authenticator) Resolve(r *http.Request) (*Viewer, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return nil, utils.NewAppError(utils.ErrInvalidToken, "Invalid authorization format", nil)
		}
		return a.viewerFromToken(strings.TrimPrefix(authHeader, "Bearer "))
	}

	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" && a.sessions != nil {
		sess, err := a.sessions.Lookup(r.Context(), cookie.Value)
		if err != nil {
			// An expired session or an unreachable store both leave the viewer anonymous.
			if !utils.IsErrorCode(err, utils.ErrUnauthenticated) {
				log.Warn().Err(err).Msg("Session lookup failed")
			}
			return nil, nil
		}
		return &Viewer{UserID: sess.UserID, Token: sess.Token}, nil
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return a.viewerFromToken(token)
	}
	return nil, nil
}

func (a *Authenticator) viewerFromToken(token string) (*Viewer, error) {
	claims, err := a.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &Viewer{UserID: claims.UserID, Token: token}, nil
}

// Middleware attaches the viewer, when there is one, to the request context.
// Invalid credentials are rejected; missing credentials are not.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, err := a.Resolve(r)
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected request credentials")
			api.WriteError(w, err)
			return
		}
		if viewer != nil {
			r = r.WithContext(SetViewerInContext(r.Context(), *viewer))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireViewer rejects anonymous requests with 401.
func RequireViewer(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetViewerFromContext(r.Context()); !ok {
			api.WriteError(w, utils.NewAppError(utils.ErrUnauthenticated, "Sign in required", nil))
			return
		}
		handler(w, r)
	}
}

// Define a custom context key type to avoid collisions
type contextKey string

// ViewerKey is the key used to store the viewer in the context
const ViewerKey contextKey = "viewer"

// SetViewerInContext saves the viewer in the request context
func SetViewerInContext(ctx context.Context, viewer Viewer) context.Context {
	return context.WithValue(ctx, ViewerKey, viewer)
}

// GetViewerFromContext retrieves the viewer from the context
func GetViewerFromContext(ctx context.Context) (Viewer, bool) {
	viewer, ok := ctx.Value(ViewerKey).(Viewer)
	return viewer, ok
}
