package reconciliation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"billing/internal/logger"
)

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("reconciliation: queue closed")

// Reconciler applies one job.
type Reconciler interface {
	Reconcile(ctx context.Context, job Job) (int, error)
}

// Queue schedules reconciliation jobs to run after the caller returns.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// LocalOptions tunes a LocalQueue.
type LocalOptions struct {
	Workers  int
	Buffer   int
	MaxRetry int
	Backoff  time.Duration // Doubles after every failed attempt
	Timeout  time.Duration // Per attempt
}

// LocalQueue runs jobs on in-process workers with bounded retries. A job
// whose key is already pending is dropped.
type LocalQueue struct {
	rec  Reconciler
	opts LocalOptions
	jobs chan Job
	log  zerolog.Logger

	mu      sync.Mutex
	closed  bool
	pending map[string]bool

	senders sync.WaitGroup
	workers sync.WaitGroup
}

// NewLocalQueue starts the workers of a LocalQueue.
func NewLocalQueue(rec Reconciler, opts LocalOptions) *LocalQueue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}
	if opts.MaxRetry < 0 {
		opts.MaxRetry = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	q := &LocalQueue{
		rec:     rec,
		opts:    opts,
		jobs:    make(chan Job, opts.Buffer),
		log:     logger.WithComponent("reconcile-queue"),
		pending: make(map[string]bool),
	}
	for i := 0; i < opts.Workers; i++ {
		q.workers.Add(1)
		go q.work()
	}
	return q
}

// Enqueue hands job to the workers. It blocks only while the buffer is full.
func (q *LocalQueue) Enqueue(ctx context.Context, job Job) error {
	key := job.Key()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if q.pending[key] {
		q.mu.Unlock()
		q.log.Debug().Str("job", key).Msg("Reconciliation already pending, dropping duplicate")
		return nil
	}
	q.pending[key] = true
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		q.release(key)
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued ones, retries included,
// to finish.
func (q *LocalQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.senders.Wait()
	close(q.jobs)
	q.workers.Wait()
}

func (q *LocalQueue) work() {
	defer q.workers.Done()
	for job := range q.jobs {
		q.run(job)
		q.release(job.Key())
	}
}

func (q *LocalQueue) run(job Job) {
	backoff := q.opts.Backoff
	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), q.opts.Timeout)
		_, err := q.rec.Reconcile(ctx, job)
		cancel()
		if err == nil {
			return
		}

		if attempt >= q.opts.MaxRetry {
			q.log.Error().
				Err(err).
				Str("job", job.Key()).
				Int("attempts", attempt+1).
				Msg("Reconciliation failed, giving up")
			return
		}

		q.log.Warn().
			Err(err).
			Str("job", job.Key()).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Reconciliation failed, retrying")

		time.Sleep(backoff)
		backoff *= 2
	}
}

func (q *LocalQueue) release(key string) {
	q.mu.Lock()
	delete(q.pending, key)
	q.mu.Unlock()
}

// Inline runs jobs synchronously in Enqueue. Failures are returned.
type Inline struct {
	Rec Reconciler
}

func (i Inline) Enqueue(ctx context.Context, job Job) error {
	_, err := i.Rec.Reconcile(ctx, job)
	return err
}
