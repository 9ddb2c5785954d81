// Package worker applies queued assignment requests to the ticket store.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/taskflow/internal/adapters/mq/queue"
	"github.com/okian/taskflow/internal/domain/model"
	"github.com/okian/taskflow/pkg/logger"
	"github.com/okian/taskflow/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	poolShutdownTimeout     = 30 * time.Second
)

// Assignment modes.
const (
	ModeManual = "manual"
	ModeAuto   = "auto"
)

// Event abstracts what workers read off the queue.
type Event = queue.Event

// Assigner writes an assignment back into the ticket store.
type Assigner interface {
	Assign(ctx context.Context, itemKey, memberID string) (model.WorkItem, error)
}

// Picker chooses a member for an item from a fresh snapshot.
type Picker interface {
	Pick(ctx context.Context, itemKey string) (string, error)
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Result describes the outcome of one request.
type Result struct {
	EventID   string    `json:"eventId"`
	ItemKey   string    `json:"itemKey"`
	MemberID  string    `json:"memberId,omitempty"`
	Mode      string    `json:"mode"`
	Err       error     `json:"-"`
	Completed time.Time `json:"completedAt"`
}

// ResultHandler receives request outcomes.
type ResultHandler func(ctx context.Context, r Result)

// Worker processes assignment requests.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the in-flight request.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	assigner Assigner
	picker   Picker
	onResult ResultHandler
	name     string
	active   *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, assigner Assigner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		assigner: assigner,
		name:     "worker",
		active:   &atomic.Int64{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := w.process(ctx, e); err != nil {
				w.logger.Warn(ctx, "assignment request failed",
					logger.String("eventID", e.EventID),
					logger.String("itemKey", e.ItemKey),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, e Event) (err error) {
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))

	r := Result{EventID: e.EventID, ItemKey: e.ItemKey, MemberID: e.MemberID, Mode: ModeManual}
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
		r.Err = err
		r.Completed = time.Now().UTC()
		if w.onResult != nil {
			w.onResult(ctx, r)
		}
	}()

	if e.Auto() {
		r.Mode = ModeAuto
		if w.picker == nil {
			metrics.RecordAssignmentError("no_picker")
			return ErrNoPicker
		}
		memberID, perr := w.picker.Pick(ctx, e.ItemKey)
		if perr != nil {
			metrics.RecordAssignmentError("no_candidate")
			return fmt.Errorf("pick member for %s: %w", e.ItemKey, perr)
		}
		r.MemberID = memberID
	}

	if _, err := w.assigner.Assign(ctx, e.ItemKey, r.MemberID); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordAssignmentError("store")
		metrics.RecordErrorByComponent("worker", "assign_error")
		return fmt.Errorf("assign %s to %s: %w", e.ItemKey, r.MemberID, err)
	}

	metrics.RecordAssignmentApplied(r.Mode)
	w.logger.Info(ctx, "assignment applied",
		logger.String("eventID", e.EventID),
		logger.String("itemKey", e.ItemKey),
		logger.String("memberID", r.MemberID),
		logger.String("mode", r.Mode),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one selects a
// multiple of the CPU count. opts apply to every worker.
func NewPool(workerCount int, q Queue, assigner Assigner, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	active := &atomic.Int64{}
	for i := range workerCount {
		w := NewInMemoryWorker(q, assigner, append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)...)
		w.active = active
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for every worker to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
		}
	}
	return nil
}
