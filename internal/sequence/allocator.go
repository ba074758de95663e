package sequence

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"billing/internal/logger"
)

// ErrLockNotObtained is returned by a Locker that could not take the lock
// before its deadline.
var ErrLockNotObtained = errors.New("sequence: lock not obtained")

// Locker serializes allocation for one ledger. The returned func releases
// the lock.
type Locker interface {
	Lock(ctx context.Context, ledger string) (func(), error)
}

// Watermarks remembers the last number handed out per ledger, so a number
// committed but not yet visible in a ledger read is never reissued.
type Watermarks interface {
	Last(ctx context.Context, ledger string) (int64, error)
	Record(ctx context.Context, ledger string, n int64) error
}

// ReadFunc lists the document numbers currently in a ledger.
type ReadFunc func(ctx context.Context) ([]string, error)

// CommitFunc persists a document under number while the ledger lock is held.
type CommitFunc func(ctx context.Context, number string) error

// Allocator hands out the next number of a ledger and commits it under the
// ledger's lock.
type Allocator struct {
	locker   Locker
	marks    Watermarks
	fallback Locker
	log      zerolog.Logger
}

// NewAllocator builds an Allocator. Nil arguments select the in-process
// lock and watermark table.
func NewAllocator(locker Locker, marks Watermarks) *Allocator {
	local := NewLocalLocker()
	if locker == nil {
		locker = local
	}
	if marks == nil {
		marks = NewLocalWatermarks()
	}
	return &Allocator{
		locker:   locker,
		marks:    marks,
		fallback: local,
		log:      logger.WithComponent("sequence"),
	}
}

// Peek returns the number the next allocation would use without taking
// the lock.
func (a *Allocator) Peek(ctx context.Context, ledger string, read ReadFunc) string {
	return Format(a.candidate(ctx, ledger, read))
}

// Allocate takes the ledger lock, picks the next number and runs commit
// with it. Read failures count as an empty ledger. The number is returned
// even when commit fails, together with commit's error.
func (a *Allocator) Allocate(ctx context.Context, ledger string, read ReadFunc, commit CommitFunc) (string, error) {
	const op = "Allocate"

	unlock, err := a.lock(ctx, ledger)
	if err != nil {
		return "", fmt.Errorf("%s: lock %s: %w", op, ledger, err)
	}
	defer unlock()

	n := a.candidate(ctx, ledger, read)
	number := Format(n)

	var commitErr error
	if commit != nil {
		commitErr = commit(ctx, number)
	}

	// The number is spent even if the ledger write failed: the document
	// carrying it has already been issued.
	if err := a.marks.Record(ctx, ledger, n); err != nil {
		a.log.Warn().Err(err).Str("ledger", ledger).Str("number", number).Msg("Failed to record number watermark")
	}

	if commitErr != nil {
		return number, fmt.Errorf("%s: commit %s #%s: %w", op, ledger, number, commitErr)
	}

	a.log.Info().Str("ledger", ledger).Str("number", number).Msg("Allocated document number")
	return number, nil
}

// lock takes the ledger lock. A lock held elsewhere or a done context is
// an error; only an unreachable shared lock backend falls back to the
// in-process lock.
func (a *Allocator) lock(ctx context.Context, ledger string) (func(), error) {
	unlock, err := a.locker.Lock(ctx, ledger)
	if err == nil {
		return unlock, nil
	}
	if errors.Is(err, ErrLockNotObtained) || ctx.Err() != nil || a.locker == a.fallback {
		return nil, err
	}
	a.log.Warn().Err(err).Str("ledger", ledger).Msg("Shared number lock unreachable, using in-process lock")
	return a.fallback.Lock(ctx, ledger)
}

func (a *Allocator) candidate(ctx context.Context, ledger string, read ReadFunc) int64 {
	var max int64
	if read != nil {
		values, err := read(ctx)
		if err != nil {
			a.log.Warn().Err(err).Str("ledger", ledger).Msg("Ledger unreadable, numbering from watermark")
		}
		max = Max(values)
	}
	last, err := a.marks.Last(ctx, ledger)
	if err != nil {
		a.log.Warn().Err(err).Str("ledger", ledger).Msg("Failed to read number watermark")
	}
	if last > max {
		max = last
	}
	return max + 1
}

// LocalLocker is a mutex per ledger name.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocalLocker returns an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]chan struct{})}
}

// Lock blocks until the ledger is free or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, ledger string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[ledger]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[ledger] = ch
	}
	l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockNotObtained, err)
	}
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrLockNotObtained, ctx.Err())
	}
}

// LocalWatermarks keeps watermarks in process memory.
type LocalWatermarks struct {
	mu   sync.Mutex
	last map[string]int64
}

// NewLocalWatermarks returns an empty watermark table.
func NewLocalWatermarks() *LocalWatermarks {
	return &LocalWatermarks{last: make(map[string]int64)}
}

func (w *LocalWatermarks) Last(_ context.Context, ledger string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last[ledger], nil
}

func (w *LocalWatermarks) Record(_ context.Context, ledger string, n int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n > w.last[ledger] {
		w.last[ledger] = n
	}
	return nil
}
