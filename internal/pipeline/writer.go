package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// writeTimeout bounds a single background save.
const writeTimeout = 10 * time.Second

// writeJob persists one collection snapshot.
type writeJob func(ctx context.Context) error

// writer is a write-behind persistence worker. Jobs are keyed by collection;
// a newer job for the same collection replaces one still pending.
type writer struct {
	logger *zap.Logger

	mu        sync.Mutex
	pending   map[string]writeJob
	queued    uint64
	completed uint64
	progress  chan struct{}
	closed    bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func newWriter(logger *zap.Logger) *writer {
	w := &writer{
		logger:   logger,
		pending:  make(map[string]writeJob),
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// enqueue schedules job under key and returns immediately.
// After close the job runs inline.
func (w *writer) enqueue(key string, job writeJob) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		w.execute(key, job)
		return
	}
	w.pending[key] = job
	w.queued++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			w.drain()
			return
		case <-w.wake:
			w.drain()
		}
	}
}

func (w *writer) drain() {
	w.mu.Lock()
	jobs := w.pending
	target := w.queued
	w.pending = make(map[string]writeJob)
	w.mu.Unlock()

	keys := make([]string, 0, len(jobs))
	for k := range jobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.execute(k, jobs[k])
	}

	w.mu.Lock()
	if target > w.completed {
		w.completed = target
	}
	close(w.progress)
	w.progress = make(chan struct{})
	w.mu.Unlock()
}

func (w *writer) execute(key string, job writeJob) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := job(ctx); err != nil {
		w.logger.Error("persist failed", zap.String("collection", key), zap.Error(err))
		return
	}
	w.logger.Debug("persisted", zap.String("collection", key))
}

// flush blocks until every job enqueued before the call has been written.
func (w *writer) flush(ctx context.Context) error {
	w.mu.Lock()
	target := w.queued
	w.mu.Unlock()

	for {
		w.mu.Lock()
		if w.completed >= target {
			w.mu.Unlock()
			return nil
		}
		ch := w.progress
		if w.closed {
			ch = w.done
		}
		w.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// close writes whatever is pending and stops the worker. It is safe to call twice.
func (w *writer) close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
