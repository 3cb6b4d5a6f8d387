package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/metrics"
)

// StatusNotifier applies flyer status updates on background workers. Updates
// are best-effort: a full queue drops the update and write failures are only
// logged and counted.
type StatusNotifier struct {
	writer  StatusWriter
	metrics *metrics.Registry
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan StatusUpdate
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*StatusNotifier)

// WithWorkers sets the worker count. One worker keeps updates for a flyer in order.
func WithWorkers(n int) Option {
	return func(q *StatusNotifier) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *StatusNotifier) {
		if n > 0 {
			q.ch = make(chan StatusUpdate, n)
		}
	}
}
func WithUpdateTimeout(d time.Duration) Option {
	return func(q *StatusNotifier) {
		if d > 0 {
			q.timeout = d
		}
	}
}
func WithMetrics(m *metrics.Registry) Option {
	return func(q *StatusNotifier) {
		q.metrics = m
	}
}

func NewStatusNotifier(writer StatusWriter, logger *slog.Logger, opts ...Option) *StatusNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	q := &StatusNotifier{
		writer:  writer,
		logger:  logger,
		workers: 1,
		timeout: 10 * time.Second,
		ch:      make(chan StatusUpdate, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *StatusNotifier) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("status worker started", "worker_id", workerID)

				for u := range q.ch {
					q.apply(workerID, u)
				}

				q.logger.Debug("status worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *StatusNotifier) apply(workerID int, u StatusUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if u.TraceID != "" {
		ctx = common.WithRequestID(ctx, u.TraceID)
	}

	var err error
	if u.Status == constants.FlyerStatusExtracted && u.ExtractionID != "" {
		err = q.writer.MarkFlyerExtracted(ctx, u.FlyerID, u.ExtractionID)
	} else {
		err = q.writer.UpdateFlyerStatus(ctx, u.FlyerID, u.Status)
	}

	if err != nil {
		q.metrics.ObserveStatusUpdate("error")
		q.logger.Warn("flyer status update failed",
			"worker_id", workerID, "req_id", u.TraceID,
			"flyer_id", u.FlyerID, "status", u.Status, "error", err)
		return
	}
	q.metrics.ObserveStatusUpdate("ok")
	q.logger.Info("flyer status updated",
		"worker_id", workerID, "req_id", u.TraceID,
		"flyer_id", u.FlyerID, "status", u.Status,
		"lag_ms", time.Since(u.SubmittedAt).Milliseconds())
}

// Notify never blocks and never fails.
func (q *StatusNotifier) Notify(ctx context.Context, u StatusUpdate) {
	if u.SubmittedAt.IsZero() {
		u.SubmittedAt = time.Now()
	}
	if u.TraceID == "" {
		u.TraceID = common.RequestIDFromContext(ctx)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.metrics.ObserveStatusUpdate("dropped")
		q.logger.Warn("cannot notify: notifier is shutting down", "flyer_id", u.FlyerID, "status", u.Status)
		return
	}
	select {
	case q.ch <- u:
	default:
		q.metrics.ObserveStatusUpdate("dropped")
		q.logger.Warn("status queue full, dropping update", "flyer_id", u.FlyerID, "status", u.Status)
	}
}

// Shutdown stops accepting updates and waits for queued ones to be applied.
func (q *StatusNotifier) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("status notifier shutdown interrupted by context")
	case <-done:
		q.logger.Info("status queue drained, shutdown complete")
	}
}

var _ Notifier = (*StatusNotifier)(nil)
