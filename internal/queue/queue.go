// Package queue captures side-effecting actions attempted while the backend
// connection is down and replays them in FIFO order once connectivity
// returns. A failing item is re-appended to the tail rather than retried in
// place, so one broken action cannot block the rest; after maxReplayAttempts
// failed replays it moves to a dead-letter list surfaced to callers.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultMaxReplayAttempts = 5

// Action is a deferred write, a closure over a prior request.
type Action func(ctx context.Context) error

// Probe reports whether the backend is currently reachable.
type Probe func(ctx context.Context) bool

// Item is one queued action.
type Item struct {
	ID          string
	Description string
	Action      Action
	EnqueuedAt  time.Time
	Attempts    int
}

// Queue is the connectivity-aware FIFO of deferred writes. All state is
// mutex-guarded; handlers call in from separate goroutines.
type Queue struct {
	mu        sync.Mutex
	online    bool
	draining  bool
	items     []*Item
	dead      []*Item
	maxReplay int
	logger    *zap.Logger
	onDrained func(remaining int)
}

// Option configures a Queue.
type Option func(*Queue)

// WithMaxReplayAttempts overrides the dead-letter threshold.
func WithMaxReplayAttempts(n int) Option {
	return func(q *Queue) { q.maxReplay = n }
}

// WithDrainedCallback is invoked after each drain with the number of items
// still pending.
func WithDrainedCallback(fn func(remaining int)) Option {
	return func(q *Queue) { q.onDrained = fn }
}

// New creates a Queue that starts online.
func New(logger *zap.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &Queue{
		online:    true,
		maxReplay: defaultMaxReplayAttempts,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Online reports the current connectivity state.
func (q *Queue) Online() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.online
}

// SetOffline records a lost connection. Subsequent writes should be enqueued
// instead of executed.
func (q *Queue) SetOffline() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.online {
		q.online = false
		q.logger.Warn("connection lost, deferring writes")
	}
}

// SetOnline records a restored connection and drains the queue.
func (q *Queue) SetOnline(ctx context.Context) {
	q.mu.Lock()
	wasOffline := !q.online
	q.online = true
	q.mu.Unlock()
	if wasOffline {
		q.logger.Info("connection restored, replaying deferred writes")
	}
	q.drain(ctx)
}

// Enqueue captures a deferred action and returns its queue entry.
func (q *Queue) Enqueue(description string, action Action) *Item {
	item := &Item{
		ID:          uuid.New().String(),
		Description: description,
		Action:      action,
		EnqueuedAt:  time.Now(),
	}
	q.mu.Lock()
	q.items = append(q.items, item)
	n := len(q.items)
	q.mu.Unlock()
	q.logger.Info("queued deferred write", zap.String("id", item.ID), zap.String("description", description), zap.Int("pending", n))
	return item
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// DeadLetters returns items evicted after exhausting their replay budget.
func (q *Queue) DeadLetters() []*Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Item, len(q.dead))
	copy(out, q.dead)
	return out
}

// Sync manually triggers a drain, the equivalent of the user pressing the
// "Sync" control.
func (q *Queue) Sync(ctx context.Context) {
	q.drain(ctx)
}

// Watch polls probe on the given interval and flips the connectivity state
// accordingly; a false-to-true transition drains the queue. It blocks until
// ctx is cancelled, so callers run it on its own goroutine.
func (q *Queue) Watch(ctx context.Context, probe Probe, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if probe(ctx) {
				q.SetOnline(ctx)
			} else {
				q.SetOffline()
			}
		}
	}
}

// drain replays queued items in enqueue order. Failures go back to the tail
// so they are retried on the next drain trigger, not in place. Drains are
// single-flight.
func (q *Queue) drain(ctx context.Context) {
	q.mu.Lock()
	if q.draining || !q.online || len(q.items) == 0 {
		q.mu.Unlock()
		return
	}
	q.draining = true
	batch := q.items
	q.items = nil
	q.mu.Unlock()

	var requeue, dead []*Item
	for _, item := range batch {
		if err := item.Action(ctx); err != nil {
			item.Attempts++
			if item.Attempts >= q.maxReplay {
				q.logger.Error("deferred write dead-lettered",
					zap.String("id", item.ID),
					zap.String("description", item.Description),
					zap.Int("attempts", item.Attempts),
					zap.Error(err))
				dead = append(dead, item)
				continue
			}
			q.logger.Warn("deferred write failed, re-queueing",
				zap.String("id", item.ID),
				zap.Int("attempts", item.Attempts),
				zap.Error(err))
			requeue = append(requeue, item)
			continue
		}
		q.logger.Info("deferred write replayed", zap.String("id", item.ID), zap.String("description", item.Description))
	}

	q.mu.Lock()
	// Writes enqueued while draining stay ahead of the failures we re-append.
	q.items = append(q.items, requeue...)
	q.dead = append(q.dead, dead...)
	remaining := len(q.items)
	q.draining = false
	q.mu.Unlock()

	if q.onDrained != nil {
		q.onDrained(remaining)
	}
}
