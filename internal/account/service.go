// Package account holds the viewer's account flows: profile edit,
// notifications, and password reset. The gateway does the work; this package
// validates forms and decides what the viewer sees when it fails.
package account

import (
	"context"
	"sort"
	"strings"

	"riff-review/internal/gateway"
	"riff-review/internal/models"
	"riff-review/internal/utils"

	"github.com/rs/zerolog/log"
)

// Gateway is the part of gateway.Client the account flows use.
type Gateway interface {
	UpdateProfile(ctx context.Context, token string, update models.ProfileUpdate) (*models.Profile, error)
	Notifications(ctx context.Context, token string) ([]models.Notification, error)
	ResetPassword(ctx context.Context, req models.PasswordReset) error
	Login(ctx context.Context, username, password string) (*gateway.LoginResult, error)
}

// ValidationError carries inline field errors for a form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

// Unwrap lets utils.IsErrorCode see the failure as invalid input.
func (e *ValidationError) Unwrap() error {
	return utils.NewInvalidInputError(e.Error())
}

type Service struct {
	gateway   Gateway
	validator *Validator
}

func NewService(gw Gateway) *Service {
	return &Service{gateway: gw, validator: NewValidator()}
}

// Login exchanges credentials for a viewer token and, when the gateway
// opened one, a session id.
func (s *Service) Login(ctx context.Context, username, password string) (*gateway.LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, &ValidationError{Fields: map[string]string{"username": "username and password are required"}}
	}
	result, err := s.gateway.Login(ctx, username, password)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Login failed")
		return nil, err
	}
	return result, nil
}

// UpdateProfile validates and submits a profile edit. Gateway failures are
// logged and come back as a nil profile with a generic error.
func (s *Service) UpdateProfile(ctx context.Context, token string, update models.ProfileUpdate) (*models.Profile, error) {
	update.Nickname = strings.TrimSpace(update.Nickname)
	update.Bio = strings.TrimSpace(update.Bio)
	update.AvatarURL = strings.TrimSpace(update.AvatarURL)
	if fields := s.validator.Validate(update); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	profile, err := s.gateway.UpdateProfile(ctx, token, update)
	if err != nil {
		log.Error().Err(err).Msg("Profile update failed")
		if utils.IsAuthError(err) {
			return nil, err
		}
		return nil, utils.NewAppError(utils.ErrGateway, "Couldn't save your profile. Please try again.", err)
	}
	log.Info().Str("user_id", profile.UserID).Msg("Profile updated")
	return profile, nil
}

// Notifications returns the viewer's notifications, or an empty list when
// they can't be fetched.
func (s *Service) Notifications(ctx context.Context, token string) []models.Notification {
	notifications, err := s.gateway.Notifications(ctx, token)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch notifications")
		return []models.Notification{}
	}
	if notifications == nil {
		return []models.Notification{}
	}
	return notifications
}

// ResetPassword validates the reset form and submits it. Errors from the
// gateway carry a message safe to show.
func (s *Service) ResetPassword(ctx context.Context, req models.PasswordReset) error {
	req.Token = strings.TrimSpace(req.Token)
	if fields := s.validator.Validate(req); fields != nil {
		return &ValidationError{Fields: fields}
	}

	if err := s.gateway.ResetPassword(ctx, req); err != nil {
		log.Warn().Err(err).Msg("Password reset rejected")
		return err
	}
	log.Info().Msg("Password reset")
	return nil
}
