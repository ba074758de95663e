package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"billing/internal/logger"
)

// TaskReconcileInvoice is the asynq task type of a reconciliation job.
const TaskReconcileInvoice = "reconcile:invoice"

// NewReconcileTask encodes job as an asynq task.
func NewReconcileTask(job Job) (*asynq.Task, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileInvoice, data), nil
}

// HandleReconcileTask returns the asynq handler for reconciliation tasks.
// Undecodable payloads are not retried.
func HandleReconcileTask(rec Reconciler) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var job Job
		if err := json.Unmarshal(t.Payload(), &job); err != nil {
			return fmt.Errorf("decode %s payload: %v: %w", TaskReconcileInvoice, err, asynq.SkipRetry)
		}
		_, err := rec.Reconcile(ctx, job)
		return err
	}
}

// AsynqQueue enqueues jobs on Redis for a Worker to run.
type AsynqQueue struct {
	client   *asynq.Client
	queue    string
	maxRetry int
	log      zerolog.Logger
}

// NewAsynqQueue returns an AsynqQueue on the named queue.
func NewAsynqQueue(redisOpts asynq.RedisClientOpt, queue string, maxRetry int) *AsynqQueue {
	return &AsynqQueue{
		client:   asynq.NewClient(redisOpts),
		queue:    queue,
		maxRetry: maxRetry,
		log:      logger.WithComponent("reconcile-queue"),
	}
}

// Enqueue submits job. A job with the same key still waiting in the queue
// makes this a no-op.
func (q *AsynqQueue) Enqueue(ctx context.Context, job Job) error {
	task, err := NewReconcileTask(job)
	if err != nil {
		return fmt.Errorf("reconciliation: encode job: %w", err)
	}

	info, err := q.client.EnqueueContext(ctx, task,
		asynq.Queue(q.queue),
		asynq.MaxRetry(q.maxRetry),
		asynq.TaskID(job.Key()),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		q.log.Debug().Str("job", job.Key()).Msg("Reconciliation already queued")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconciliation: enqueue %s: %w", job.Key(), err)
	}

	q.log.Info().Str("job", job.Key()).Str("task_id", info.ID).Str("queue", info.Queue).Msg("Queued reconciliation")
	return nil
}

// Close releases client resources.
func (q *AsynqQueue) Close() error {
	return q.client.Close()
}

// Worker wraps the asynq server that runs reconciliation tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker builds a Worker serving queue with the given concurrency.
func NewWorker(redisOpts asynq.RedisClientOpt, queue string, concurrency int, rec Reconciler) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	srv := asynq.NewServer(redisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskReconcileInvoice, HandleReconcileTask(rec))
	return &Worker{server: srv, mux: mux}
}

// Run processes tasks until ctx is cancelled, then waits for running
// tasks to finish.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("worker: start: %w", err)
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}
