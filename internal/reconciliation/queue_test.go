package reconciliation_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/reconciliation"
)

// countingReconciler fails the first failures calls.
type countingReconciler struct {
	mu       sync.Mutex
	calls    map[string]int
	failures int
	release  chan struct{}
}

func (c *countingReconciler) Reconcile(_ context.Context, job reconciliation.Job) (int, error) {
	if c.release != nil {
		<-c.release
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[job.Key()]++
	if c.failures > 0 {
		c.failures--
		return 0, errors.New("store unavailable")
	}
	return 1, nil
}

func (c *countingReconciler) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[key]
}

func TestLocalQueue_RetriesUntilSuccess(t *testing.T) {
	rec := &countingReconciler{failures: 2}
	q := reconciliation.NewLocalQueue(rec, reconciliation.LocalOptions{MaxRetry: 3, Backoff: time.Millisecond})

	job := reconciliation.Job{Firm: "ACME", SupplierCode: "S01", InvoiceNumber: "1"}
	require.NoError(t, q.Enqueue(context.Background(), job))
	q.Close()

	assert.Equal(t, 3, rec.count(job.Key()))
}

func TestLocalQueue_GivesUpAfterMaxRetry(t *testing.T) {
	rec := &countingReconciler{failures: 10}
	q := reconciliation.NewLocalQueue(rec, reconciliation.LocalOptions{MaxRetry: 2, Backoff: time.Millisecond})

	job := reconciliation.Job{Firm: "ACME", InvoiceNumber: "2"}
	require.NoError(t, q.Enqueue(context.Background(), job))
	q.Close()

	assert.Equal(t, 3, rec.count(job.Key()))
}

func TestLocalQueue_DropsPendingDuplicates(t *testing.T) {
	rec := &countingReconciler{release: make(chan struct{})}
	q := reconciliation.NewLocalQueue(rec, reconciliation.LocalOptions{})

	job := reconciliation.Job{Firm: "ACME", InvoiceNumber: "3"}
	require.NoError(t, q.Enqueue(context.Background(), job))
	require.NoError(t, q.Enqueue(context.Background(), job))
	close(rec.release)
	q.Close()

	assert.Equal(t, 1, rec.count(job.Key()))
	assert.ErrorIs(t, q.Enqueue(context.Background(), job), reconciliation.ErrQueueClosed)
}

func TestReconcileTask_RoundTrip(t *testing.T) {
	job := reconciliation.Job{
		Firm:          "ACME",
		SupplierCode:  "S01",
		InvoiceNumber: "7",
		Items:         []reconciliation.JobItem{{ChallanNo: "5", Description: "Cotton", Qty: dec("2.50")}},
	}
	task, err := reconciliation.NewReconcileTask(job)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.TaskReconcileInvoice, task.Type())

	var decoded reconciliation.Job
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, job.Key(), decoded.Key())
	assert.True(t, dec("2.5").Equal(decoded.Items[0].Qty))

	rec := &countingReconciler{}
	require.NoError(t, reconciliation.HandleReconcileTask(rec)(context.Background(), task))
	assert.Equal(t, 1, rec.count(job.Key()))
}

func TestReconcileTask_BadPayloadSkipsRetry(t *testing.T) {
	handler := reconciliation.HandleReconcileTask(&countingReconciler{})
	err := handler(context.Background(), asynq.NewTask(reconciliation.TaskReconcileInvoice, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
