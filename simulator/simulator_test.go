package simulator

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"riff-review/internal/account"
	"riff-review/internal/database"
	"riff-review/internal/engine"
	"riff-review/internal/engine/actors"
	"riff-review/internal/gateway"
	"riff-review/internal/gateway/devgateway"
	"riff-review/internal/handlers"
	"riff-review/internal/middleware"
	"riff-review/internal/utils"
	"riff-review/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	auth := middleware.NewAuthenticator("sim-secret", time.Hour, nil)
	dev := devgateway.New(auth, nil, time.Hour)
	_, err := dev.AddUser("demo", "riffreview1")
	require.NoError(t, err)
	gw := httptest.NewServer(dev)
	t.Cleanup(gw.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub("/login")
	go hub.Run(ctx)

	metrics := utils.NewMetricsCollector()
	eng := actors.NewEngine(actor.NewActorSystem(), engine.Deps{
		Repository: database.NewMemoryStore(database.MockComments()...),
		Notifier:   hub,
		Navigator:  hub,
		Metrics:    metrics,
	}, 2*time.Second)
	t.Cleanup(eng.Shutdown)

	server := handlers.NewServer(eng, account.NewService(gateway.NewClient(gw.URL, time.Second)),
		auth, hub, metrics, middleware.DefaultCORSConfig(nil), "/login")
	srv := httptest.NewServer(server.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestSimulationDrivesCommentAPI(t *testing.T) {
	srv := startServer(t)

	config := DefaultSimConfig()
	config.EngineURL = srv.URL
	config.NumViewers = 4
	config.Containers = []string{database.FixtureContainerID, "review-2"}
	config.TickInterval = 20 * time.Millisecond
	config.CommentProbability = 1
	config.LikeProbability = 0.5
	config.EditProbability = 0.5
	config.DeleteProbability = 0.2
	config.DisconnectRate = 0
	config.AnonymousShare = 0.5

	ctx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()

	sim := NewSimulator(config)
	require.NoError(t, sim.Run(ctx))

	m := sim.GetMetrics()
	assert.Equal(t, 4, m.TotalViewers)
	assert.Greater(t, m.TotalRequests, 0)
	assert.Greater(t, m.TotalComments, 0)
}

func TestSimulationFailsWithBadCredentials(t *testing.T) {
	srv := startServer(t)

	config := DefaultSimConfig()
	config.EngineURL = srv.URL
	config.Password = "wrong"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := NewSimulator(config).Run(ctx)
	assert.Error(t, err)
}

func TestPickContainerStaysInRange(t *testing.T) {
	sim := NewSimulator(SimConfig{Containers: []string{"a", "b", "c"}})
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		seen[sim.pickContainer()] = true
	}
	assert.True(t, seen["a"])
	for id := range seen {
		assert.Contains(t, []string{"a", "b", "c"}, id)
	}
}

func TestCommentsPathEscapes(t *testing.T) {
	assert.Equal(t, "/containers/review-1/comments", commentsPath("review-1"))
	assert.Equal(t, "/containers/a%2Fb/comments/7/like", commentsPath("a/b", "7", "like"))
}
