// Package gateway talks to the backend gateway that owns accounts:
// profiles, notifications and password resets.
package gateway

import (
	"context"
	"net/http"
	"time"

	"riff-review/internal/models"
	"riff-review/internal/utils"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Gateway routes.
const (
	ProfilePath       = "/api/users/me/profile"
	NotificationsPath = "/api/notifications"
	PasswordResetPath = "/api/auth/password/reset"
	LoginPath         = "/api/auth/login"
)

// ErrorBody is the JSON error shape the gateway returns.
type ErrorBody struct {
	Message string `json:"message"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId,omitempty"`
}

// Client is a REST client for the gateway.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) request(ctx context.Context, token string) *resty.Request {
	r := c.http.R().SetContext(ctx).SetError(&ErrorBody{})
	if token != "" {
		r.SetAuthToken(token)
	}
	return r
}

// UpdateProfile sends the profile edit on behalf of the session token.
func (c *Client) UpdateProfile(ctx context.Context, token string, update models.ProfileUpdate) (*models.Profile, error) {
	var profile models.Profile
	resp, err := c.request(ctx, token).SetBody(update).SetResult(&profile).Put(ProfilePath)
	if err := responseError(resp, err); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Notifications fetches the session's notifications.
func (c *Client) Notifications(ctx context.Context, token string) ([]models.Notification, error) {
	var notifications []models.Notification
	resp, err := c.request(ctx, token).SetResult(&notifications).Get(NotificationsPath)
	if err := responseError(resp, err); err != nil {
		return nil, err
	}
	return notifications, nil
}

// ResetPassword submits a password reset. The returned error message is
// always safe to show to the viewer.
func (c *Client) ResetPassword(ctx context.Context, req models.PasswordReset) error {
	resp, err := c.request(ctx, "").SetBody(req).Post(PasswordResetPath)
	if err := responseError(resp, err); err != nil {
		appErr := utils.AsAppError(err)
		return utils.NewAppError(appErr.Code, SanitizeMessage(appErr.Message), appErr.Origin)
	}
	return nil
}

// Login exchanges credentials for a viewer token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var result LoginResult
	resp, err := c.request(ctx, "").
		SetBody(LoginRequest{Username: username, Password: password}).
		SetResult(&result).
		Post(LoginPath)
	if err := responseError(resp, err); err != nil {
		return nil, err
	}
	return &result, nil
}

// responseError turns a transport failure or non-2xx response into an
// AppError carrying the gateway's message.
func responseError(resp *resty.Response, err error) error {
	if err != nil {
		log.Warn().Err(err).Msg("Gateway request failed")
		return utils.NewAppError(utils.ErrGateway, "Gateway unreachable", err)
	}
	if !resp.IsError() {
		return nil
	}

	message := http.StatusText(resp.StatusCode())
	if body, ok := resp.Error().(*ErrorBody); ok && body.Message != "" {
		message = body.Message
	}
	log.Warn().
		Int("status", resp.StatusCode()).
		Str("method", resp.Request.Method).
		Str("url", resp.Request.URL).
		Msg("Gateway returned an error")

	code := utils.ErrGateway
	switch resp.StatusCode() {
	case http.StatusBadRequest:
		code = utils.ErrInvalidInput
	case http.StatusUnauthorized:
		code = utils.ErrUnauthenticated
	case http.StatusForbidden:
		code = utils.ErrUnauthorized
	case http.StatusNotFound:
		code = utils.ErrNotFound
	}
	return utils.NewAppError(code, message, nil)
}
