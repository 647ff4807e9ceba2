package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"riff-review/internal/gateway"
	"riff-review/internal/gateway/devgateway"
	"riff-review/internal/middleware"
	"riff-review/internal/models"
	"riff-review/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testGateway struct {
	dev    *devgateway.Server
	client *gateway.Client
	userID string
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()
	auth := middleware.NewAuthenticator("test-secret", time.Hour, nil)
	dev := devgateway.New(auth, nil, time.Hour)
	userID, err := dev.AddUser("hana", "riffs4days")
	require.NoError(t, err)

	srv := httptest.NewServer(dev)
	t.Cleanup(srv.Close)
	return &testGateway{dev: dev, client: gateway.NewClient(srv.URL, time.Second), userID: userID}
}

func (g *testGateway) login(t *testing.T) string {
	t.Helper()
	result, err := g.client.Login(context.Background(), "hana", "riffs4days")
	require.NoError(t, err)
	assert.Equal(t, g.userID, result.UserID)
	return result.Token
}

func TestClientLogin(t *testing.T) {
	g := newTestGateway(t)
	g.login(t)

	_, err := g.client.Login(context.Background(), "hana", "wrong")
	assert.True(t, utils.IsErrorCode(err, utils.ErrUnauthenticated))
}

func TestClientUpdateProfile(t *testing.T) {
	g := newTestGateway(t)
	token := g.login(t)

	profile, err := g.client.UpdateProfile(context.Background(), token, models.ProfileUpdate{
		Nickname: "hana.b",
		Bio:      "shoegaze and city pop",
	})
	require.NoError(t, err)
	assert.Equal(t, "hana.b", profile.Nickname)
	assert.Equal(t, g.userID, profile.UserID)

	_, err = g.client.UpdateProfile(context.Background(), "", models.ProfileUpdate{Nickname: "x"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrUnauthenticated))
}

func TestClientNotifications(t *testing.T) {
	g := newTestGateway(t)
	token := g.login(t)
	g.dev.Notify(g.userID, models.Notification{ID: "n2", Type: "like", Message: "minjun liked your comment"})

	notifications, err := g.client.Notifications(context.Background(), token)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	assert.Equal(t, "welcome", notifications[0].Type)
	assert.Equal(t, "n2", notifications[1].ID)
}

func TestClientResetPassword(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	resetToken, err := g.dev.IssueResetToken("hana")
	require.NoError(t, err)

	err = g.client.ResetPassword(ctx, models.PasswordReset{Token: resetToken, NewPassword: "newriffs2024", ConfirmPassword: "newriffs2024"})
	require.NoError(t, err)

	_, err = g.client.Login(ctx, "hana", "newriffs2024")
	require.NoError(t, err)

	// Tokens are single use.
	err = g.client.ResetPassword(ctx, models.PasswordReset{Token: resetToken, NewPassword: "again12345", ConfirmPassword: "again12345"})
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
	assert.Equal(t, "This reset link is invalid or has already been used.", utils.AsAppError(err).Message)
}

func TestClientResetPasswordSanitizesLeakyErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"pq: connection refused at db.internal:5432"}`))
	}))
	defer srv.Close()

	client := gateway.NewClient(srv.URL, time.Second)
	err := client.ResetPassword(context.Background(), models.PasswordReset{Token: "t", NewPassword: "abcdefg1", ConfirmPassword: "abcdefg1"})
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrGateway))
	assert.Equal(t, gateway.GenericErrorMessage, utils.AsAppError(err).Message)
}

func TestClientUnreachableGateway(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := gateway.NewClient(url, 200*time.Millisecond)
	_, err := client.Notifications(context.Background(), "token")
	assert.True(t, utils.IsErrorCode(err, utils.ErrGateway))

	err = client.ResetPassword(context.Background(), models.PasswordReset{Token: "t"})
	assert.True(t, utils.IsErrorCode(err, utils.ErrGateway))
	assert.NotContains(t, utils.AsAppError(err).Message, "refused")
}
