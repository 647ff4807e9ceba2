package handlers

import (
	"context"
	"errors"
	"net/http"

	"riff-review/internal/account"
	"riff-review/internal/api"
	"riff-review/internal/middleware"
	"riff-review/internal/models"
	"riff-review/internal/utils"
)

// LoginRequest represents a request to log in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// writeAccountError writes validation failures with their field errors and
// everything else as a plain ErrorResponse.
func writeAccountError(w http.ResponseWriter, err error) {
	var verr *account.ValidationError
	if errors.As(err, &verr) {
		api.WriteJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Code:    utils.ErrInvalidInput,
			Message: "Please correct the highlighted fields.",
			Fields:  verr.Fields,
		})
		return
	}
	api.WriteError(w, err)
}

func (s *Server) gatewayContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.RequestTimeout)
}

// HandleLogin handles requests to log in a user
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		ctx, cancel := s.gatewayContext(r)
		defer cancel()

		result, err := s.Accounts.Login(ctx, req.Username, req.Password)
		if err != nil {
			var verr *account.ValidationError
			if errors.As(err, &verr) {
				writeAccountError(w, err)
				return
			}
			api.WriteJSON(w, utils.AppErrorToHTTPStatus(utils.AsAppError(err).Code), api.LoginResponse{
				Success: false,
				Error:   utils.AsAppError(err).Message,
			})
			return
		}

		if result.SessionID != "" {
			http.SetCookie(w, &http.Cookie{
				Name:     middleware.SessionCookie,
				Value:    result.SessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		api.WriteJSON(w, http.StatusOK, api.LoginResponse{
			Success: true,
			Token:   result.Token,
			UserID:  result.UserID,
		})
	}
}

// HandleUpdateProfile handles profile edits for the signed-in viewer
func (s *Server) HandleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetViewerFromContext(r.Context())

		var update models.ProfileUpdate
		if !decodeJSON(w, r, &update) {
			return
		}
		ctx, cancel := s.gatewayContext(r)
		defer cancel()

		profile, err := s.Accounts.UpdateProfile(ctx, viewer.Token, update)
		if err != nil {
			writeAccountError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, profile)
	}
}

// HandleNotifications lists the signed-in viewer's notifications
func (s *Server) HandleNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetViewerFromContext(r.Context())
		ctx, cancel := s.gatewayContext(r)
		defer cancel()

		api.WriteJSON(w, http.StatusOK, s.Accounts.Notifications(ctx, viewer.Token))
	}
}

// HandlePasswordReset submits the password reset form
func (s *Server) HandlePasswordReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.PasswordReset
		if !decodeJSON(w, r, &req) {
			return
		}
		ctx, cancel := s.gatewayContext(r)
		defer cancel()

		if err := s.Accounts.ResetPassword(ctx, req); err != nil {
			writeAccountError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
