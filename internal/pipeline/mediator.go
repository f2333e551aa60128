package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/JakeFAU/file2text/internal/progress"
)

// ErrMediatorClosed is returned for work submitted after Close.
var ErrMediatorClosed = errors.New("progress mediator closed")

const defaultMediatorBuffer = 256

// MediatorConfig controls a Mediator.
//   - BufferSize: pending operations before Do blocks (default 256).
//   - Logger: records operations that panic.
type MediatorConfig struct {
	BufferSize int
	Logger     *zap.Logger
}

type mediatorOp struct {
	fn   func() error
	done chan error
}

// Mediator owns an emitter tree on behalf of many goroutines. Submitted
// closures run one at a time on a single goroutine, in submission order, so
// emitters and consumers never see concurrent calls.
type Mediator struct {
	ops    chan mediatorOp
	stopCh chan struct{}
	doneCh chan struct{}
	logger *zap.Logger
	closed atomic.Bool

	closeOnce sync.Once
}

// NewMediator starts the serializing goroutine. Call Close to stop it.
func NewMediator(cfg MediatorConfig) *Mediator {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultMediatorBuffer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Mediator{
		ops:    make(chan mediatorOp, cfg.BufferSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		logger: logger,
	}
	go m.run()
	return m
}

// Do runs fn on the mediator goroutine and waits for its result.
func (m *Mediator) Do(ctx context.Context, fn func() error) error {
	if m.closed.Load() {
		return ErrMediatorClosed
	}
	op := mediatorOp{fn: fn, done: make(chan error, 1)}
	select {
	case m.ops <- op:
	case <-m.stopCh:
		return ErrMediatorClosed
	case <-ctx.Done():
		return fmt.Errorf("submit progress operation: %w", ctx.Err())
	}
	select {
	case err := <-op.done:
		return err
	case <-m.doneCh:
		select {
		case err := <-op.done:
			return err
		default:
			return ErrMediatorClosed
		}
	case <-ctx.Done():
		return fmt.Errorf("await progress operation: %w", ctx.Err())
	}
}

// Update advances e by delta on the mediator goroutine.
func (m *Mediator) Update(ctx context.Context, e *progress.Emitter, delta int, opts ...progress.UpdateOption) error {
	return m.Do(ctx, func() error {
		return e.Update(delta, opts...)
	})
}

// Complete completes e on the mediator goroutine.
func (m *Mediator) Complete(ctx context.Context, e *progress.Emitter) error {
	return m.Do(ctx, func() error {
		e.Complete()
		return nil
	})
}

// Close runs every operation already queued and stops the goroutine. It is
// safe to call multiple times.
func (m *Mediator) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		close(m.stopCh)
	})
	select {
	case <-m.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("progress mediator close wait: %w", ctx.Err())
	}
}

func (m *Mediator) run() {
	defer close(m.doneCh)
	for {
		select {
		case op := <-m.ops:
			m.apply(op)
		case <-m.stopCh:
			m.drain()
			return
		}
	}
}

func (m *Mediator) drain() {
	for {
		select {
		case op := <-m.ops:
			m.apply(op)
		default:
			return
		}
	}
}

func (m *Mediator) apply(op mediatorOp) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("progress operation panicked: %v", r)
				m.logger.Error("progress operation panicked", zap.Any("panic", r))
			}
		}()
		err = op.fn()
	}()
	op.done <- err
}
