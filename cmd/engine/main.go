package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"riff-review/internal/account"
	"riff-review/internal/config"
	"riff-review/internal/database"
	"riff-review/internal/engine"
	"riff-review/internal/engine/actors"
	"riff-review/internal/gateway"
	"riff-review/internal/gateway/devgateway"
	"riff-review/internal/handlers"
	"riff-review/internal/middleware"
	"riff-review/internal/session"
	"riff-review/internal/utils"
	"riff-review/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog/log"
)

// Credentials seeded into the in-process gateway.
const (
	devUsername = "demo"
	devPassword = "riffreview1"
)

// App holds all long-lived components of the server
type App struct {
	Handler http.Handler
	Hub     *websocket.Hub
	Engine  *actors.Engine
	Metrics *utils.MetricsCollector

	closers []func(ctx context.Context)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.SetupLogger("info", true)
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	utils.SetupLogger(cfg.LogLevel, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("address", server.Addr).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	app.Close(shutdownCtx)
}

// NewApp wires the repository, session store, gateway, actor engine and
// HTTP routes from cfg. The hub runs until ctx is done.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{}
	if cfg.Server.MetricsEnabled {
		app.Metrics = utils.NewMetricsCollector()
	}

	repo, err := openRepository(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func(ctx context.Context) {
		if err := repo.Close(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to close comment repository")
		}
	})

	var sessions session.Store
	var saver devgateway.SessionSaver
	if cfg.Session.RedisURL != "" {
		store, err := session.NewRedisStore(cfg.Session.RedisURL)
		if err != nil {
			app.Close(ctx)
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = store.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("Redis not reachable, session cookies will resolve as anonymous")
		}
		sessions, saver = store, store
		app.closers = append(app.closers, func(context.Context) { store.Close() })
	}
	auth := middleware.NewAuthenticator(cfg.Session.JWTSecret, cfg.Session.TokenTTL, sessions)

	gatewayURL := cfg.Gateway.BaseURL
	if cfg.Gateway.Dev {
		url, shutdown, err := startDevGateway(auth, saver, cfg.Session.TokenTTL)
		if err != nil {
			app.Close(ctx)
			return nil, err
		}
		gatewayURL = url
		app.closers = append(app.closers, shutdown)
	}
	accounts := account.NewService(gateway.NewClient(gatewayURL, cfg.Gateway.Timeout))

	app.Hub = websocket.NewHub(cfg.Session.LoginPath)
	go app.Hub.Run(ctx)

	app.Engine = actors.NewEngine(actor.NewActorSystem(), engine.Deps{
		Repository: repo,
		Notifier:   app.Hub,
		Navigator:  app.Hub,
		Metrics:    app.Metrics,
	}, cfg.Server.RequestTimeout)
	app.closers = append(app.closers, func(context.Context) { app.Engine.Shutdown() })

	server := handlers.NewServer(app.Engine, accounts, auth, app.Hub, app.Metrics,
		middleware.DefaultCORSConfig(cfg.AllowedOrigins), cfg.Session.LoginPath)
	server.RequestTimeout = cfg.Server.RequestTimeout
	app.Handler = server.Routes()

	log.Info().
		Str("store", cfg.Store.Type).
		Bool("redis_sessions", sessions != nil).
		Str("gateway", gatewayURL).
		Msg("Server initialized")
	return app, nil
}

// Close releases components in reverse order of creation.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
	a.closers = nil
}

func openRepository(ctx context.Context, cfg *config.StoreConfig) (database.CommentRepository, error) {
	if cfg.Type != "mongo" {
		log.Info().Msg("Using in-memory comment store")
		return database.NewMemoryStore(database.MockComments()...), nil
	}

	db, err := database.NewMongoDB(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.EnsureCommentIndexes(setupCtx); err != nil {
		db.Close(setupCtx)
		return nil, err
	}
	if err := db.SeedComments(setupCtx, database.MockComments()); err != nil {
		db.Close(setupCtx)
		return nil, err
	}
	return db, nil
}

// startDevGateway serves an in-process gateway on a loopback port and
// returns its base URL.
func startDevGateway(auth *middleware.Authenticator, sessions devgateway.SessionSaver, ttl time.Duration) (string, func(context.Context), error) {
	dev := devgateway.New(auth, sessions, ttl)
	if _, err := dev.AddUser(devUsername, devPassword); err != nil {
		return "", nil, err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	srv := &http.Server{Handler: dev, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Dev gateway stopped")
		}
	}()

	url := "http://" + listener.Addr().String()
	log.Info().Str("url", url).Str("username", devUsername).Msg("Dev gateway listening")
	return url, func(ctx context.Context) { srv.Shutdown(ctx) }, nil
}
