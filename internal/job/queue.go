package job

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner executes one job end to end.
type Runner interface {
	Run(ctx context.Context, jobID string)
}

// Queue is the bounded worker pool that consumes submitted jobs, replacing
// fire-and-forget scheduling so concurrency and shutdown stay controllable.
type Queue struct {
	runner  Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan string
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan string, n)
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(runner Runner, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		runner:  runner,
		logger:  logger,
		workers: 4,
		ch:      make(chan string, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker iniciado", "worker_id", workerID)

				for jobID := range q.ch {
					ctx := context.Background()
					var cancel context.CancelFunc = func() {}
					if q.timeout > 0 {
						ctx, cancel = context.WithTimeout(ctx, q.timeout)
					}
					q.runner.Run(ctx, jobID)
					cancel()
				}

				q.logger.Info("worker finalizado", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue hands a job to the pool. A full queue blocks the caller
// (backpressure) rather than dropping the job.
func (q *Queue) Enqueue(jobID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("fila em encerramento; job recusado", "job_id", jobID)
		return
	}
	select {
	case q.ch <- jobID:
		q.logger.Info("job enfileirado", "job_id", jobID)
	default:
		q.logger.Warn("fila cheia, aplicando backpressure", "job_id", jobID)
		q.ch <- jobID
	}
}

// Shutdown drains the queue, bounded by ctx.
func (q *Queue) Shutdown(ctx context.Context) {
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
		q.logger.Warn("encerramento interrompido pelo contexto")
	case <-done:
		q.logger.Info("fila drenada, encerramento completo")
	}
}
