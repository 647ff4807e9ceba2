package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"riff-review/internal/api"
	"riff-review/internal/handlers"
	"riff-review/internal/middleware"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type SimConfig struct {
	NumViewers     int
	Containers     []string
	SimulationTime time.Duration
	TickInterval   time.Duration

	// Per-tick probabilities for each connected viewer.
	CommentProbability float64
	LikeProbability    float64
	EditProbability    float64
	DeleteProbability  float64
	ReportProbability  float64

	DisconnectRate float64
	ReconnectRate  float64
	ZipfS          float64 // container popularity skew, > 1
	EngineURL      string

	// Credentials used by every signed-in viewer. Viewers without a token
	// exercise the login redirect path when they try to like.
	Username       string
	Password       string
	AnonymousShare float64
}

// DefaultSimConfig returns a modest load against a local server.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		NumViewers:         10,
		Containers:         []string{"review-1", "review-2", "review-3"},
		SimulationTime:     time.Minute,
		TickInterval:       500 * time.Millisecond,
		CommentProbability: 0.2,
		LikeProbability:    0.3,
		EditProbability:    0.1,
		DeleteProbability:  0.05,
		ReportProbability:  0.02,
		DisconnectRate:     0.01,
		ReconnectRate:      0.05,
		ZipfS:              1.07,
		EngineURL:          "http://localhost:8080",
		Username:           "demo",
		Password:           "riffreview1",
		AnonymousShare:     0.2,
	}
}

type SimulationStats struct {
	mu              sync.RWMutex
	StartTime       time.Time
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	RefusedRequests int64
	AverageLatency  time.Duration
	ActiveViewers   int
	TotalComments   int
	TotalLikes      int
	TotalEdits      int
	TotalDeletes    int
	TotalReports    int
	LoginRedirects  int
}

// SimulatedViewer is one browser session looking at comment lists.
type SimulatedViewer struct {
	mu          sync.Mutex
	Name        string
	Session     string // viewer session cookie, one per simulated browser
	Token       string
	IsConnected bool
	LastActive  time.Time
	Posted      map[string][]string // container id -> ids of comments this viewer posted
}

type Simulator struct {
	config  SimConfig
	stats   *SimulationStats
	viewers []*SimulatedViewer
	cache   *viewCache
	http    *resty.Client
	zipf    *rand.Zipf
	rng     *rand.Rand
	rngMu   sync.Mutex
	mu      sync.RWMutex
}

func NewSimulator(config SimConfig) *Simulator {
	if config.TickInterval <= 0 {
		config.TickInterval = 500 * time.Millisecond
	}
	if len(config.Containers) == 0 {
		config.Containers = DefaultSimConfig().Containers
	}
	if config.ZipfS <= 1 {
		config.ZipfS = 1.07
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Simulator{
		config: config,
		stats:  &SimulationStats{StartTime: time.Now()},
		cache:  newViewCache(),
		http: resty.New().
			SetBaseURL(config.EngineURL).
			SetTimeout(5 * time.Second).
			SetCookieJar(nil).
			SetHeader("Content-Type", "application/json"),
		rng:  rng,
		zipf: rand.NewZipf(rng, config.ZipfS, 1, uint64(max(len(config.Containers)-1, 1))),
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	log.Info().Int("viewers", s.config.NumViewers).Strs("containers", s.config.Containers).Msg("Starting simulation")

	if err := s.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.SimulateActivities(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateConnectivity(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()

	wg.Wait()
	return nil
}

func (s *Simulator) initialize(ctx context.Context) error {
	var token string
	if s.config.Username != "" {
		var err error
		for retries := 0; retries < 3; retries++ {
			if token, err = s.login(ctx); err == nil {
				break
			}
			backoff := time.Duration(math.Pow(2, float64(retries))) * 100 * time.Millisecond
			log.Warn().Err(err).Dur("backoff", backoff).Msg("Login failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		if err != nil {
			return fmt.Errorf("failed to log in: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewers = make([]*SimulatedViewer, 0, s.config.NumViewers)
	for i := 0; i < s.config.NumViewers; i++ {
		viewer := &SimulatedViewer{
			Name:        fmt.Sprintf("viewer_%d", i),
			Session:     uuid.NewString(),
			IsConnected: true,
			LastActive:  time.Now(),
			Posted:      make(map[string][]string),
		}
		if s.chance(1 - s.config.AnonymousShare) {
			viewer.Token = token
		}
		s.viewers = append(s.viewers, viewer)
	}

	s.stats.mu.Lock()
	s.stats.ActiveViewers = len(s.viewers)
	s.stats.mu.Unlock()

	var first *SimulatedViewer
	if len(s.viewers) > 0 {
		first = s.viewers[0]
	}
	for _, containerID := range s.config.Containers {
		if _, err := s.listComments(ctx, first, containerID); err != nil {
			return fmt.Errorf("failed to load container %s: %w", containerID, err)
		}
	}
	log.Info().Int("viewers", len(s.viewers)).Msg("Initialization completed")
	return nil
}

func (s *Simulator) login(ctx context.Context) (string, error) {
	var result api.LoginResponse
	status, err := s.do(ctx, nil, http.MethodPost, "/auth/login", handlers.LoginRequest{
		Username: s.config.Username,
		Password: s.config.Password,
	}, &result)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK || result.Token == "" {
		return "", fmt.Errorf("login returned status %d", status)
	}
	return result.Token, nil
}

// do sends one request on behalf of viewer, which may be nil before any
// viewer exists. Refusals (409) are counted apart from failures; err is only
// set for transport errors and 5xx.
func (s *Simulator) do(ctx context.Context, viewer *SimulatedViewer, method, path string, body, result interface{}) (int, error) {
	req := s.http.R().SetContext(ctx).SetError(&api.ErrorResponse{})
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	if viewer != nil {
		req.SetCookie(&http.Cookie{Name: middleware.ViewerSessionCookie, Value: viewer.Session})
		if viewer.Token != "" {
			req.SetAuthToken(viewer.Token)
		}
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err == nil && resp.StatusCode() >= http.StatusInternalServerError {
		err = fmt.Errorf("%s %s failed with status %d", method, path, resp.StatusCode())
	}
	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	s.recordRequestMetrics(start, status, err)
	return status, err
}

func (s *Simulator) recordRequestMetrics(start time.Time, status int, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++
	switch {
	case err != nil:
		s.stats.FailedRequests++
	case status == http.StatusConflict:
		s.stats.RefusedRequests++
	default:
		s.stats.SuccessRequests++
	}

	totalLatency := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (totalLatency + latency) / time.Duration(s.stats.TotalRequests)
}

func (s *Simulator) chance(p float64) bool {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64() < p
}

func (s *Simulator) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

// pickContainer favors the first containers following a Zipf distribution.
func (s *Simulator) pickContainer() string {
	if len(s.config.Containers) == 1 {
		return s.config.Containers[0]
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.config.Containers[int(s.zipf.Uint64())]
}

func (s *Simulator) simulateConnectivity(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			active := 0
			for _, viewer := range s.viewers {
				if viewer.IsConnected && s.chance(s.config.DisconnectRate) {
					viewer.IsConnected = false
				} else if !viewer.IsConnected && s.chance(s.config.ReconnectRate) {
					viewer.IsConnected = true
				}
				if viewer.IsConnected {
					active++
				}
			}
			s.mu.Unlock()

			s.stats.mu.Lock()
			s.stats.ActiveViewers = active
			s.stats.mu.Unlock()
		}
	}
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := s.GetMetrics()
			log.Info().
				Float64("req_per_sec", m.RequestsPerSecond).
				Dur("avg_latency", m.AverageLatency).
				Int("active_viewers", m.ActiveViewers).
				Int("comments", m.TotalComments).
				Int("likes", m.TotalLikes).
				Int("edits", m.TotalEdits).
				Int("deletes", m.TotalDeletes).
				Int("refused", m.RefusedCount).
				Int("errors", m.ErrorCount).
				Msg("Simulation metrics")
		}
	}
}

// SimulationMetrics holds the metrics of the simulation
type SimulationMetrics struct {
	TotalViewers      int
	ActiveViewers     int
	TotalRequests     int
	TotalComments     int
	TotalLikes        int
	TotalEdits        int
	TotalDeletes      int
	TotalReports      int
	LoginRedirects    int
	AverageLatency    time.Duration
	RefusedCount      int
	ErrorCount        int
	RequestsPerSecond float64
}

// GetMetrics returns the current simulation metrics
func (s *Simulator) GetMetrics() SimulationMetrics {
	s.mu.RLock()
	totalViewers := len(s.viewers)
	s.mu.RUnlock()

	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	elapsed := time.Since(s.stats.StartTime)
	return SimulationMetrics{
		TotalViewers:      totalViewers,
		ActiveViewers:     s.stats.ActiveViewers,
		TotalRequests:     int(s.stats.TotalRequests),
		TotalComments:     s.stats.TotalComments,
		TotalLikes:        s.stats.TotalLikes,
		TotalEdits:        s.stats.TotalEdits,
		TotalDeletes:      s.stats.TotalDeletes,
		TotalReports:      s.stats.TotalReports,
		LoginRedirects:    s.stats.LoginRedirects,
		AverageLatency:    s.stats.AverageLatency,
		RefusedCount:      int(s.stats.RefusedRequests),
		ErrorCount:        int(s.stats.FailedRequests),
		RequestsPerSecond: float64(s.stats.TotalRequests) / elapsed.Seconds(),
	}
}
