// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/denlabs/denengine/internal/adapters/mq/queue"
	workerpool "github.com/denlabs/denengine/internal/adapters/mq/worker"
	"github.com/denlabs/denengine/internal/adapters/repository"
	"github.com/denlabs/denengine/internal/domain/inflight"
	"github.com/denlabs/denengine/internal/domain/model"
	"github.com/denlabs/denengine/internal/domain/scoring"
	"github.com/denlabs/denengine/internal/domain/types"
	"github.com/denlabs/denengine/pkg/logger"
	"github.com/denlabs/denengine/pkg/metrics"
)

// Service implements the recommendation engine: the refresh pipeline, its
// async dispatch, and the explore feed reads.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	scorer   scoring.Scorer
	jobQueue jobqueue.Queue
	tracker  inflight.Tracker
	pool     *workerpool.Pool

	// Configuration
	dbPath      string
	queueSize   int
	workerCount int
	window      time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of refresh workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the refresh job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWindow sets the trailing interaction window used by refresh runs.
func WithWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithDBPath sets the SQLite database path opened on Start.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithStore injects a pre-built store, used by tests and by callers that
// manage the database lifecycle themselves.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:      "den.db",
		queueSize:   10_000,
		workerCount: runtime.NumCPU() * 2,
		window:      7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting explore service...")

	if s.store == nil {
		store, err := repository.NewSQLiteStore(ctx, s.dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.logger.Info(ctx, "using sqlite store", logger.String("path", s.dbPath))
	}

	s.scorer = scoring.NewInteractionScorer(s.store)
	s.tracker = inflight.NewTracker()
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, s, s.tracker)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "explore service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Any("window", s.window),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping explore service...")

	if s.jobQueue != nil {
		_ = s.jobQueue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "explore service stopped")
}

// Refresh runs the full pipeline for one user: read the interaction window,
// score, replace the stored recommendation set. Returns the number of
// candidates written. This is the single implementation behind both the
// synchronous endpoint and the async jobs.
func (s *Service) Refresh(ctx context.Context, userID string) (int, error) {
	interactions, err := s.store.RecentInteractions(ctx, userID, s.window)
	if err != nil {
		return 0, fmt.Errorf("read interactions: %w", err)
	}

	scored, err := s.scorer.Score(ctx, userID, interactions)
	if err != nil {
		return 0, fmt.Errorf("score interactions: %w", err)
	}

	if err := s.store.ReplaceRecommendations(ctx, userID, scored); err != nil {
		return 0, fmt.Errorf("write recommendations: %w", err)
	}
	return len(scored), nil
}

// EnqueueRefresh schedules an async refresh for one user. Returns
// (queued=false, duplicate=true) when a job for the user is already in
// flight, and (false, false) on queue backpressure.
func (s *Service) EnqueueRefresh(ctx context.Context, userID string) (queued, duplicate bool) {
	if !s.tracker.Begin(ctx, userID) {
		metrics.RecordRefreshDuplicate()
		s.logger.Debug(ctx, "refresh already in flight", logger.String("userID", userID))
		return false, true
	}

	job := model.RefreshJob{
		JobID:      uuid.NewString(),
		UserID:     userID,
		EnqueuedAt: time.Now().UTC(),
	}
	if !s.jobQueue.Enqueue(ctx, job) {
		// Roll back the in-flight marker so the user can retry.
		s.tracker.Finish(ctx, userID)
		s.logger.Warn(ctx, "refresh queue full", logger.String("userID", userID))
		return false, false
	}
	return true, false
}

// EnqueueAll fans out one refresh job per known user and returns the number
// of users scheduled. It does not wait for any job to finish. Users with a
// job already in flight count as scheduled.
func (s *Service) EnqueueAll(ctx context.Context) (int, error) {
	ids, err := s.store.AllUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("enumerate users: %w", err)
	}

	scheduled := 0
	for _, id := range ids {
		queued, duplicate := s.EnqueueRefresh(ctx, id)
		if queued || duplicate {
			scheduled++
		}
	}
	s.logger.Info(ctx, "bulk refresh enqueued",
		logger.Int("users", len(ids)),
		logger.Int("scheduled", scheduled),
	)
	return scheduled, nil
}

// ExploreFeed returns up to limit resolved feed items for the user, ordered
// by recommendation score descending, or the oldest posts system-wide when
// the user has no stored recommendations.
func (s *Service) ExploreFeed(ctx context.Context, userID string, limit int) ([]types.FeedItem, error) {
	metrics.RecordFeedRequest()

	recs, err := s.store.TopRecommendations(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("read recommendations: %w", err)
	}
	if len(recs) == 0 {
		metrics.RecordFeedFallback()
		items, err := s.store.OldestPosts(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("fallback feed: %w", err)
		}
		return items, nil
	}

	items, err := s.store.ResolveFeed(ctx, recs)
	if err != nil {
		return nil, fmt.Errorf("resolve feed: %w", err)
	}
	return items, nil
}

// Profile returns the caller's profile row.
func (s *Service) Profile(ctx context.Context, userID string) (model.Profile, error) {
	p, err := s.store.ProfileByID(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}
	if s.started {
		ctx := context.Background()
		stats["queueLength"] = s.jobQueue.Len(ctx)
		stats["inFlight"] = s.tracker.Size()
	}
	return stats
}
