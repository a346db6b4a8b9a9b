package messaging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/compass-cohort/compass-engagement/internal/application/evaluator"
	"github.com/compass-cohort/compass-engagement/internal/infrastructure/metrics"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION QUEUE
// Bounded fire-and-forget queue feeding the flag and achievement engines.
// Recording an event must never wait on evaluation, so Enqueue drops when the
// queue is full; the next event for the same user re-triggers evaluation and
// both engines are idempotent over the same snapshot history.
// ══════════════════════════════════════════════════════════════════════════════

// EvaluationQueue fans user IDs out to a worker pool running the evaluation
// service. Pending user IDs are coalesced: a user already queued is not
// queued twice.
type EvaluationQueue struct {
	service *evaluator.Service
	queue   chan string
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	pending map[string]struct{}
	closed  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// EvaluationQueueConfig contains configuration for EvaluationQueue.
type EvaluationQueueConfig struct {
	// Service runs the flag and achievement engines for one user.
	Service *evaluator.Service

	// QueueSize bounds how many users can wait for evaluation.
	QueueSize int

	// Workers is the number of concurrent evaluation workers.
	Workers int

	// Logger for structured logging.
	Logger *slog.Logger

	// Metrics records queue depth and drops when set.
	Metrics *metrics.Metrics
}

// NewEvaluationQueue creates the queue and starts its workers.
func NewEvaluationQueue(config EvaluationQueueConfig) *EvaluationQueue {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &EvaluationQueue{
		service: config.Service,
		queue:   make(chan string, config.QueueSize),
		logger:  config.Logger,
		metrics: config.Metrics,
		pending: make(map[string]struct{}),
		cancel:  cancel,
	}

	for i := 0; i < config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}

	return q
}

// Enqueue requests evaluation for a user. Returns false when the request was
// dropped (queue full or closed); the caller treats that as non-fatal.
func (q *EvaluationQueue) Enqueue(userID string) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	if _, already := q.pending[userID]; already {
		// An evaluation is already waiting; it will see this event's write.
		q.mu.Unlock()
		return true
	}
	q.pending[userID] = struct{}{}
	q.mu.Unlock()

	select {
	case q.queue <- userID:
		if q.metrics != nil {
			q.metrics.EvalQueueDepth.Inc()
		}
		return true
	default:
		q.mu.Lock()
		delete(q.pending, userID)
		q.mu.Unlock()

		if q.metrics != nil {
			q.metrics.EvalQueueDropped.Inc()
		}
		q.logger.Warn("evaluation queue full, dropping request",
			slog.String("user_id", userID),
		)
		return false
	}
}

func (q *EvaluationQueue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case userID, ok := <-q.queue:
			if !ok {
				return
			}

			q.mu.Lock()
			delete(q.pending, userID)
			q.mu.Unlock()

			if q.metrics != nil {
				q.metrics.EvalQueueDepth.Dec()
			}

			err := q.service.Evaluate(ctx, userID)
			if q.metrics != nil {
				result := "ok"
				if err != nil {
					result = "error"
				}
				q.metrics.Evaluations.WithLabelValues(result).Inc()
			}
			if err != nil {
				q.logger.Error("evaluation failed",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Close stops accepting work and waits for in-flight evaluations.
func (q *EvaluationQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	q.logger.Info("evaluation queue closed")
}
