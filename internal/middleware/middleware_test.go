package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"riff-review/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewerEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := GetViewerFromContext(r.Context())
		if !ok {
			w.Write([]byte("anonymous"))
			return
		}
		w.Write([]byte(viewer.UserID))
	})
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestAuthenticatorTokenRoundTrip(t *testing.T) {
	auth := NewAuthenticator("secret", time.Hour, nil)

	token, err := auth.GenerateToken("user-hana")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-hana", claims.UserID)
	assert.Equal(t, issuer, claims.Issuer)

	other := NewAuthenticator("another-secret", time.Hour, nil)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthenticatorRejectsExpiredToken(t *testing.T) {
	auth := NewAuthenticator("secret", time.Hour, nil)
	auth.ttl = -time.Minute

	token, err := auth.GenerateToken("user-hana")
	require.NoError(t, err)
	_, err = auth.ValidateToken(token)
	assert.Error(t, err)
}

func TestMiddlewareBearerToken(t *testing.T) {
	auth := NewAuthenticator("secret", time.Hour, nil)
	token, err := auth.GenerateToken("user-hana")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/containers/review-1/comments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := serve(auth.Middleware(viewerEcho()), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-hana", rec.Body.String())
}

func TestMiddlewareAnonymous(t *testing.T) {
	auth := NewAuthenticator("secret", time.Hour, nil)

	rec := serve(auth.Middleware(viewerEcho()), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestMiddlewareRejectsBadCredentials(t *testing.T) {
	auth := NewAuthenticator("secret", time.Hour, nil)

	for _, header := range []string{"Bearer not-a-jwt", "Basic dXNlcjpwYXNz"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := serve(auth.Middleware(viewerEcho()), req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Contains(t, rec.Body.String(), "INVALID_TOKEN")
	}
}

func TestMiddlewareSessionCookie(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewRedisStoreWithClient(client)
	require.NoError(t, store.Save(context.Background(), "sid-1", session.Session{Token: "tok", UserID: "user-minjun"}, time.Hour))

	auth := NewAuthenticator("secret", time.Hour, store)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "sid-1"})
	rec := serve(auth.Middleware(viewerEcho()), req)
	assert.Equal(t, "user-minjun", rec.Body.String())

	// Unknown sessions stay anonymous instead of failing the request.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "sid-gone"})
	rec = serve(auth.Middleware(viewerEcho()), req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestMiddlewareQueryToken(t *testing.T) {
	auth := NewAuthenticator("secret", time.Hour, nil)
	token, err := auth.GenerateToken("user-hana")
	require.NoError(t, err)

	rec := serve(auth.Middleware(viewerEcho()), httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	assert.Equal(t, "user-hana", rec.Body.String())
}

func TestRequireViewer(t *testing.T) {
	handler := RequireViewer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req = req.WithContext(SetViewerInContext(req.Context(), Viewer{UserID: "u", Token: "t"}))
	rec = serve(handler, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCORSMiddleware(t *testing.T) {
	cors := CORSMiddleware(DefaultCORSConfig([]string{"http://app.test"}))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodOptions, "/containers/review-1/comments", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := serve(cors(next), req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	assert.Equal(t, "43200", rec.Header().Get("Access-Control-Max-Age"))

	// A simple request reaches the handler with the CORS headers set.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://app.test")
	rec = serve(cors(next), req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = serve(cors(next), req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardEchoesOrigin(t *testing.T) {
	cors := CORSMiddleware(DefaultCORSConfig(nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://anywhere.test")
	rec := serve(cors(next), req)
	assert.Equal(t, "http://anywhere.test", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestViewerSessionIssuesCookieOnce(t *testing.T) {
	var seen string
	handler := ViewerSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetViewerSessionFromContext(r.Context())
	}))

	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, ViewerSessionCookie, cookies[0].Name)
	assert.Equal(t, cookies[0].Value, seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = serve(handler, req)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, cookies[0].Value, seen)
}

func TestViewerSessionReplacesForgedCookie(t *testing.T) {
	var seen string
	handler := ViewerSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetViewerSessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: ViewerSessionCookie, Value: "not-a-uuid"})
	rec := serve(handler, req)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.NotEqual(t, "not-a-uuid", seen)
	assert.NotEmpty(t, seen)
}

func TestCheckOrigin(t *testing.T) {
	cfg := DefaultCORSConfig([]string{"http://app.test"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, cfg.CheckOrigin(req))
	req.Header.Set("Origin", "http://evil.test")
	assert.False(t, cfg.CheckOrigin(req))
}
