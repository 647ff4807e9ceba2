// Package devgateway is an in-process stand-in for the account gateway,
// serving the same routes gateway.Client calls. Accounts live in memory.
package devgateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"riff-review/internal/gateway"
	"riff-review/internal/middleware"
	"riff-review/internal/models"
	"riff-review/internal/session"
	"riff-review/internal/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// ForgotPasswordPath issues a reset token. The real gateway mails it; this
// one returns it in the response.
const ForgotPasswordPath = "/api/auth/password/forgot"

// SessionSaver persists the browser session created at login.
type SessionSaver interface {
	Save(ctx context.Context, sessionID string, sess session.Session, ttl time.Duration) error
}

type account struct {
	id            string
	username      string
	passwordHash  []byte
	profile       models.Profile
	notifications []models.Notification
}

// Server implements the gateway routes over in-memory accounts.
type Server struct {
	mu       sync.Mutex
	auth     *middleware.Authenticator
	sessions SessionSaver
	ttl      time.Duration

	accounts map[string]*account // by user id
	byName   map[string]string   // username -> user id
	resets   map[string]string   // reset token -> user id

	mux *http.ServeMux
}

// New builds a dev gateway. sessions may be nil, in which case login only
// returns a bearer token.
func New(auth *middleware.Authenticator, sessions SessionSaver, ttl time.Duration) *Server {
	s := &Server{
		auth:     auth,
		sessions: sessions,
		ttl:      ttl,
		accounts: make(map[string]*account),
		byName:   make(map[string]string),
		resets:   make(map[string]string),
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("POST "+gateway.LoginPath, s.handleLogin)
	s.mux.HandleFunc("PUT "+gateway.ProfilePath, s.withUser(s.handleProfile))
	s.mux.HandleFunc("GET "+gateway.NotificationsPath, s.withUser(s.handleNotifications))
	s.mux.HandleFunc("POST "+gateway.PasswordResetPath, s.handleReset)
	s.mux.HandleFunc("POST "+ForgotPasswordPath, s.handleForgot)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// AddUser registers an account and returns its id.
func (s *Server) AddUser(username, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", utils.NewAppError(utils.ErrInvalidInput, "Unusable password", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[username]; exists {
		return "", utils.NewAppError(utils.ErrDuplicate, "Username already taken", nil)
	}

	now := time.Now()
	acc := &account{
		id:           uuid.NewString(),
		username:     username,
		passwordHash: hash,
	}
	acc.profile = models.Profile{UserID: acc.id, Nickname: username, UpdatedAt: now}
	acc.notifications = []models.Notification{{
		ID:        uuid.NewString(),
		Type:      "welcome",
		Message:   "Welcome to riff-review, " + username + "!",
		CreatedAt: now,
	}}
	s.accounts[acc.id] = acc
	s.byName[username] = acc.id
	return acc.id, nil
}

// Notify queues a notification for a user.
func (s *Server) Notify(userID string, n models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[userID]; ok {
		acc.notifications = append(acc.notifications, n)
	}
}

// IssueResetToken creates a one-time password reset token for username.
func (s *Server) IssueResetToken(username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[username]
	if !ok {
		return "", utils.NewNotFoundError("User", username)
	}
	token := uuid.NewString()
	s.resets[token] = id
	return token, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, gateway.ErrorBody{Message: message})
}

type userHandler func(w http.ResponseWriter, r *http.Request, acc *account)

func (s *Server) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		claims, err := s.auth.ValidateToken(token)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Please sign in again.")
			return
		}
		s.mu.Lock()
		acc, ok := s.accounts[claims.UserID]
		s.mu.Unlock()
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Please sign in again.")
			return
		}
		next(w, r, acc)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req gateway.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[s.byName[req.Username]]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Wrong username or password.")
		return
	}

	token, err := s.auth.GenerateToken(acc.id)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign token")
		writeMessage(w, http.StatusInternalServerError, "Login failed.")
		return
	}

	result := gateway.LoginResult{Token: token, UserID: acc.id}
	if s.sessions != nil {
		sid := uuid.NewString()
		if err := s.sessions.Save(r.Context(), sid, session.Session{Token: token, UserID: acc.id}, s.ttl); err != nil {
			log.Error().Err(err).Msg("Failed to save session")
			writeMessage(w, http.StatusInternalServerError, "Login failed.")
			return
		}
		result.SessionID = sid
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookie,
			Value:    sid,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	log.Info().Str("user_id", acc.id).Msg("Dev gateway login")
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, acc *account) {
	var update models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s.mu.Lock()
	acc.profile.Nickname = update.Nickname
	acc.profile.Bio = update.Bio
	acc.profile.AvatarURL = update.AvatarURL
	acc.profile.UpdatedAt = time.Now()
	profile := acc.profile
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request, acc *account) {
	s.mu.Lock()
	out := make([]models.Notification, len(acc.notifications))
	copy(out, acc.notifications)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleForgot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	token, err := s.IssueResetToken(req.Username)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "No account with that username.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordReset
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeMessage(w, http.StatusBadRequest, "Passwords do not match.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.resets[req.Token]
	if !ok {
		writeMessage(w, http.StatusBadRequest, "This reset link is invalid or has already been used.")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt rejects passwords over 72 bytes; its message is passed through.
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	s.accounts[userID].passwordHash = hash
	delete(s.resets, req.Token)
	log.Info().Str("user_id", userID).Msg("Dev gateway password reset")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
