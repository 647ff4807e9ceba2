package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"riff-review/internal/api"
	"riff-review/internal/config"
	"riff-review/internal/database"
	"riff-review/internal/handlers"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	server := config.DefaultConfig()
	server.RequestTimeout = 2 * time.Second
	return &config.Config{
		Server:         server,
		Store:          config.DefaultStoreConfig(),
		Session:        config.DefaultSessionConfig(),
		Gateway:        &config.GatewayConfig{Timeout: 2 * time.Second, Dev: true},
		AllowedOrigins: []string{"*"},
		LogLevel:       "error",
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	app, err := NewApp(ctx, cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(app.Handler)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		app.Close(context.Background())
	})
	return srv
}

func postJSON(t *testing.T, url, token string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestIntegrationFlow(t *testing.T) {
	srv := newTestApp(t, testConfig())

	// Step 1: the fixture list renders
	resp, err := http.Get(srv.URL + "/containers/" + database.FixtureContainerID + "/comments")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list handlers.CommentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list.View.Cards, 3)

	// Step 2: log in against the dev gateway
	resp = postJSON(t, srv.URL+"/auth/login", "", handlers.LoginRequest{Username: devUsername, Password: devPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login api.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.Token)

	// Step 3: like a comment as the signed-in viewer
	resp = postJSON(t, srv.URL+"/containers/"+database.FixtureContainerID+"/comments/3/like", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var liked handlers.CommentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&liked))
	assert.Equal(t, 1, liked.View.Card("3").Comment.Likes)

	// Step 4: post a comment
	resp = postJSON(t, srv.URL+"/containers/"+database.FixtureContainerID+"/comments", "", handlers.SubmitCommentRequest{Text: "Side B is better"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var posted handlers.CommentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&posted))
	assert.Len(t, posted.View.Cards, 4)

	// Step 5: health reflects the traffic
	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	var status handlers.HealthResponse
	require.NoError(t, json.NewDecoder(health.Body).Decode(&status))
	require.NotNil(t, status.Metrics)
	assert.Contains(t, status.Metrics.Operations, "toggle_like")
	assert.Contains(t, status.Metrics.Operations, "submit_comment")
}

func TestLoginSetsSessionCookieWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Session.RedisURL = "redis://" + mr.Addr()
	srv := newTestApp(t, cfg)

	resp := postJSON(t, srv.URL+"/auth/login", "", handlers.LoginRequest{Username: devUsername, Password: devPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "riff_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, mr.Exists("session:"+cookie.Value))

	// The cookie alone is enough to reach viewer-only routes.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/notifications", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	notes, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer notes.Body.Close()
	assert.Equal(t, http.StatusOK, notes.StatusCode)
}

func TestNewAppRejectsBadRedisURL(t *testing.T) {
	cfg := testConfig()
	cfg.Session.RedisURL = "not a url"

	_, err := NewApp(context.Background(), cfg)
	assert.Error(t, err)
}
