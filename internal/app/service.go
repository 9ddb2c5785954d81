// Package service wires the ticket store, the ranking core and the
// assignment pipeline into the operations the HTTP API and CLI expose.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/taskflow/internal/adapters/mq/queue"
	"github.com/okian/taskflow/internal/adapters/mq/worker"
	"github.com/okian/taskflow/internal/adapters/repository"
	"github.com/okian/taskflow/internal/config"
	"github.com/okian/taskflow/internal/domain/dedupe"
	"github.com/okian/taskflow/internal/domain/eligibility"
	"github.com/okian/taskflow/internal/domain/ranking"
	"github.com/okian/taskflow/internal/domain/scoring"
	"github.com/okian/taskflow/pkg/logger"
	"github.com/okian/taskflow/pkg/metrics"
)

const (
	defaultQueueSize  = 1024
	defaultDedupeSize = dedupe.DefaultMaxSize
	defaultMaxTopN    = 50
	defaultSchedule   = "@every 1m"
	stopTimeout       = 30 * time.Second
)

// Service implements the API dependencies for the recommendation system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	ranker   *ranking.Ranker
	deduper  dedupe.Deduper
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	watcher  *repository.Watcher
	cron     *cron.Cron
	tracker  *tracker
	cancel   context.CancelFunc
	external bool

	// Configuration
	version       string
	workerCount   int
	queueSize     int
	dedupeSize    int
	weights       scoring.Weights
	threshold     float64
	defaultTopN   int
	maxTopN       int
	rosterFile    string
	watchRoster   bool
	watchDebounce time.Duration
	schedule      string

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithVersion sets the version reported by Info.
func WithVersion(v string) Option {
	return func(s *Service) {
		if v != "" {
			s.version = v
		}
	}
}

// WithWorkerCount sets the number of assignment workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the assignment queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many assignment request IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
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

// WithWeights sets the scoring weights. Invalid weights are ignored.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		if w.Validate() == nil {
			s.weights = w
		}
	}
}

// WithCapacityThreshold sets the utilization ceiling used by eligibility.
func WithCapacityThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold <= 1 {
			s.threshold = threshold
		}
	}
}

// WithDefaultTopN sets the result size used when a request names none.
func WithDefaultTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultTopN = n
		}
	}
}

// WithMaxTopN caps the result size a request may ask for.
func WithMaxTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTopN = n
		}
	}
}

// WithRosterFile loads the store from a YAML or JSON fixture on Start.
func WithRosterFile(path string) Option {
	return func(s *Service) {
		s.rosterFile = path
	}
}

// WithWatchRoster reloads the roster file when it changes.
func WithWatchRoster(enabled bool, debounce time.Duration) Option {
	return func(s *Service) {
		s.watchRoster = enabled
		if debounce > 0 {
			s.watchDebounce = debounce
		}
	}
}

// WithStore uses an existing store instead of building one on Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
			s.external = true
		}
	}
}

// WithSnapshotSchedule sets the cron spec of the capacity snapshot job.
// An empty spec disables the job.
func WithSnapshotSchedule(spec string) Option {
	return func(s *Service) {
		s.schedule = spec
	}
}

// ConfigOptions translates a loaded configuration into service options.
func ConfigOptions(cfg *config.Config) []Option {
	return []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithWeights(cfg.Weights()),
		WithCapacityThreshold(cfg.CapacityThreshold),
		WithDefaultTopN(cfg.DefaultTopN),
		WithMaxTopN(cfg.MaxTopN),
		WithRosterFile(cfg.RosterFile),
		WithWatchRoster(cfg.WatchRoster, cfg.WatchDebounce),
		WithSnapshotSchedule(cfg.SnapshotSchedule),
	}
}

// New constructs a Service. The ranker is ready immediately; the store and
// the assignment pipeline are built by Start.
func New(opts ...Option) *Service {
	s := &Service{
		version:     "dev",
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		weights:     scoring.DefaultWeights(),
		threshold:   eligibility.DefaultCapacityThreshold,
		defaultTopN: ranking.DefaultTopN,
		maxTopN:     defaultMaxTopN,
		schedule:    defaultSchedule,
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.maxTopN < s.defaultTopN {
		s.maxTopN = s.defaultTopN
	}

	s.ranker = ranking.New(
		ranking.WithChecker(eligibility.New(eligibility.WithCapacityThreshold(s.threshold))),
		ranking.WithScorer(scoring.NewWeightedScorer(scoring.WithWeights(s.weights))),
		ranking.WithDefaultTopN(s.defaultTopN),
	)
	return s
}

// Start builds the store and starts the assignment pipeline, the optional
// roster watcher and the capacity snapshot job.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting taskflow service...")

	if !s.external {
		store, err := s.buildStore()
		if err != nil {
			return err
		}
		s.store = store
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.tracker = newTracker(s.dedupeSize)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store,
		worker.WithPicker(s),
		worker.WithResultHandler(s.tracker.complete),
	)
	s.pool.Start(runCtx)

	if s.watchRoster && s.rosterFile != "" {
		w, err := repository.NewWatcher(s.store, s.rosterFile,
			repository.WithDebounce(s.watchDebounce),
			repository.WithReloadHook(s.onReload),
		)
		if err == nil {
			err = w.Start(runCtx)
		}
		if err != nil {
			s.abort(ctx)
			return fmt.Errorf("start roster watcher: %w", err)
		}
		s.watcher = w
	}

	if s.schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(s.schedule, func() { s.publishUtilization(runCtx) }); err != nil {
			s.abort(ctx)
			return fmt.Errorf("schedule capacity snapshot %q: %w", s.schedule, err)
		}
		c.Start()
		s.cron = c
	}
	s.publishUtilization(runCtx)

	s.started = true
	s.logger.Info(ctx, "taskflow service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("roster", s.rosterFile),
		logger.Bool("watchRoster", s.watcher != nil),
		logger.String("snapshotSchedule", s.schedule),
	)
	return nil
}

func (s *Service) buildStore() (repository.Store, error) {
	var opts []repository.Option
	if s.rosterFile != "" {
		f, err := repository.LoadFile(s.rosterFile)
		if err != nil {
			return nil, fmt.Errorf("load roster: %w", err)
		}
		opts = append(opts, repository.WithFixture(f))
	}
	store, err := repository.NewInMemoryStore(opts...)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	return store, nil
}

// abort tears down what Start built before failing.
func (s *Service) abort(ctx context.Context) {
	if s.watcher != nil {
		_ = s.watcher.Stop()
		s.watcher = nil
	}
	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	s.cancel()
}

// Stop gracefully shuts down the service. Queued assignment requests are
// drained before the workers exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	pool, watcher, c, cancel := s.pool, s.watcher, s.cron, s.cancel
	s.watcher, s.cron = nil, nil
	s.mu.Unlock()

	ctx, done := context.WithTimeout(context.Background(), stopTimeout)
	defer done()

	s.logger.Info(ctx, "stopping taskflow service...")

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			s.logger.Warn(ctx, "error stopping roster watcher", logger.Error(err))
		}
	}
	// Workers call back into the service while draining, so the lock is
	// not held here.
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "error stopping worker pool", logger.Error(err))
	}
	cancel()

	s.logger.Info(ctx, "taskflow service stopped")
}

// ready returns ErrNotStarted until Start succeeded.
func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Info describes the running configuration.
type Info struct {
	Name              string          `json:"name"`
	Version           string          `json:"version"`
	Weights           scoring.Weights `json:"weights"`
	CapacityThreshold float64         `json:"capacityThreshold"`
	DefaultTopN       int             `json:"defaultTopN"`
	MaxTopN           int             `json:"maxTopN"`
	Workers           int             `json:"workers"`
	QueueSize         int             `json:"queueSize"`
	RosterFile        string          `json:"rosterFile,omitempty"`
	SnapshotSchedule  string          `json:"snapshotSchedule,omitempty"`
}

// Info returns the service configuration.
func (s *Service) Info() Info {
	return Info{
		Name:              "taskflow",
		Version:           s.version,
		Weights:           s.weights,
		CapacityThreshold: s.threshold,
		DefaultTopN:       s.defaultTopN,
		MaxTopN:           s.maxTopN,
		Workers:           s.workerCount,
		QueueSize:         s.queueSize,
		RosterFile:        s.rosterFile,
		SnapshotSchedule:  s.schedule,
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		counts := s.store.Count(ctx)
		queueLen := s.queue.Len(ctx)

		stats["queueLength"] = queueLen
		stats["members"] = counts.Members
		stats["items"] = counts.Items
		stats["assignedItems"] = counts.Assigned
		stats["unassignedItems"] = counts.Unassigned
		stats["dedupeEntries"] = s.deduper.Size()
		stats["trackedAssignments"] = s.tracker.len()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRosterMembers(counts.Members)
		metrics.UpdateWorkItems(counts.Assigned, counts.Unassigned)
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}
