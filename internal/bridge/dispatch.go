package bridge

import (
	"context"
	"log/slog"
	"sync"
)

// Dispatcher runs tasks on the host's single UI thread.
// Dispatch must be safe from any goroutine and must never block the caller.
type Dispatcher interface {
	Dispatch(task func(ctx context.Context))
}

// Loop is a FIFO Dispatcher backed by one goroutine. Tasks run in submission
// order; a panicking task is logged and the loop keeps going.
type Loop struct {
	log *slog.Logger

	mu      sync.Mutex
	queue   []func(context.Context)
	stopped bool
	wake    chan struct{}
}

func NewLoop(log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{log: log, wake: make(chan struct{}, 1)}
}

// Dispatch queues task. Tasks submitted after Run has returned are dropped.
func (l *Loop) Dispatch(task func(ctx context.Context)) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		l.log.Debug("dispatcher stopped, dropping task")
		return
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run executes queued tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
	}()

	for {
		for {
			task, ok := l.next()
			if !ok {
				break
			}
			l.run(ctx, task)
		}
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (func(context.Context), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}

func (l *Loop) run(ctx context.Context, task func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("dispatched task panicked", "panic", r)
		}
	}()
	task(ctx)
}
