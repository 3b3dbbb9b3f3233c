package searchstate

import (
	"context"
	"log/slog"
	"runtime/debug"
)

// Loop is a minimal host loop: functions handed to Dispatch run one at a time
// on the goroutine calling Run. Hosts without an event loop of their own
// (the CLI, tests) use it to give the controller a single logical thread.
type Loop struct {
	ch     chan func()
	logger *slog.Logger
}

// NewLoop creates a loop whose queue holds buffer functions.
func NewLoop(buffer int) *Loop {
	return &Loop{
		ch:     make(chan func(), buffer),
		logger: slog.Default().With("component", "searchstate.loop"),
	}
}

// Dispatch queues fn. It blocks while the queue is full.
func (l *Loop) Dispatch(fn func()) {
	l.ch <- fn
}

// Run executes queued functions until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.ch:
			l.execute(fn)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOne executes the next queued function, waiting for one if necessary.
// It reports false if ctx ends first.
func (l *Loop) RunOne(ctx context.Context) bool {
	select {
	case fn := <-l.ch:
		l.execute(fn)
		return true
	case <-ctx.Done():
		return false
	}
}

// RunUntil executes queued functions until done reports true after one of
// them, or ctx ends.
func (l *Loop) RunUntil(ctx context.Context, done func() bool) error {
	for !done() {
		if !l.RunOne(ctx) {
			return ctx.Err()
		}
	}
	return nil
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
