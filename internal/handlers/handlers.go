package handlers

import (
	"net/http"
	"time"

	"riff-review/internal/account"
	"riff-review/internal/engine/actors"
	"riff-review/internal/middleware"
	"riff-review/internal/utils"
	"riff-review/internal/websocket"
)

// Server holds all server dependencies, including the actor engine
type Server struct {
	Engine         *actors.Engine
	Accounts       *account.Service
	Auth           *middleware.Authenticator
	Hub            *websocket.Hub
	Metrics        *utils.MetricsCollector
	CORS           *middleware.CORSConfig
	LoginPath      string
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	engine *actors.Engine,
	accounts *account.Service,
	auth *middleware.Authenticator,
	hub *websocket.Hub,
	metrics *utils.MetricsCollector,
	cors *middleware.CORSConfig,
	loginPath string,
) *Server {
	if cors == nil {
		cors = middleware.DefaultCORSConfig(nil)
	}
	return &Server{
		Engine:         engine,
		Accounts:       accounts,
		Auth:           auth,
		Hub:            hub,
		Metrics:        metrics,
		CORS:           cors,
		LoginPath:      loginPath,
		RequestTimeout: 5 * time.Second, // Default timeout for gateway calls
	}
}

// Routes registers every endpoint and wraps them in the CORS, request
// counting, viewer session and auth middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.HandleHealth())

	mux.HandleFunc("GET /containers/{containerID}/comments", s.HandleListComments())
	mux.HandleFunc("POST /containers/{containerID}/comments", s.HandleSubmitComment())
	mux.HandleFunc("POST /containers/{containerID}/comments/{commentID}/edit", s.HandleEnterEdit())
	mux.HandleFunc("PUT /containers/{containerID}/comments/{commentID}/edit", s.HandleConfirmEdit())
	mux.HandleFunc("DELETE /containers/{containerID}/comments/{commentID}/edit", s.HandleCancelEdit())
	mux.HandleFunc("POST /containers/{containerID}/comments/{commentID}/menu", s.HandleMenuAction())
	mux.HandleFunc("POST /containers/{containerID}/comments/{commentID}/like", s.HandleToggleLike())

	mux.HandleFunc("GET /ws", s.HandleWebSocket())

	mux.HandleFunc("POST /auth/login", s.HandleLogin())
	mux.HandleFunc("PUT /profile", middleware.RequireViewer(s.HandleUpdateProfile()))
	mux.HandleFunc("GET /notifications", middleware.RequireViewer(s.HandleNotifications()))
	mux.HandleFunc("POST /password-reset", s.HandlePasswordReset())

	var handler http.Handler = mux
	handler = s.Auth.Middleware(handler)
	handler = middleware.ViewerSession(handler)
	handler = s.countRequests(handler)
	handler = middleware.CORSMiddleware(s.CORS)(handler)
	return handler
}
