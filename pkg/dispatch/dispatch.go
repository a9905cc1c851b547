// Package dispatch routes member invocations to the execution context named
// by their thread mode and resolves the returned future with the outcome.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuemby/tagbridge/pkg/events"
	"github.com/cuemby/tagbridge/pkg/future"
	"github.com/cuemby/tagbridge/pkg/log"
	"github.com/cuemby/tagbridge/pkg/member"
	"github.com/cuemby/tagbridge/pkg/metrics"
	"github.com/rs/zerolog"
)

var (
	// ErrNoDesignated is returned for Designated invocations on a
	// dispatcher without a designated loop.
	ErrNoDesignated = errors.New("dispatch: no designated loop configured")
	// ErrNoWorkers is returned for Worker invocations on a dispatcher
	// without an executor.
	ErrNoWorkers = errors.New("dispatch: no worker executor configured")
)

// Designated is the designated loop: it runs posted work one at a time and
// recognizes the contexts it hands to that work.
type Designated interface {
	Post(work func(ctx context.Context)) error
	IsCurrent(ctx context.Context) bool
}

// Executor runs submitted tasks on background goroutines.
type Executor interface {
	Submit(task func(ctx context.Context)) error
}

// Dispatcher executes handles according to their ThreadMode.
type Dispatcher struct {
	designated Designated
	workers    Executor
	broker     *events.Broker
	logger     zerolog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDesignated sets the loop used for Designated invocations.
func WithDesignated(d Designated) Option {
	return func(disp *Dispatcher) {
		disp.designated = d
	}
}

// WithWorkers sets the executor used for Worker invocations.
func WithWorkers(e Executor) Option {
	return func(disp *Dispatcher) {
		disp.workers = e
	}
}

// WithBroker publishes invocation.failed events to b.
func WithBroker(b *events.Broker) Option {
	return func(disp *Dispatcher) {
		disp.broker = b
	}
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(disp *Dispatcher) {
		disp.logger = l
	}
}

// New creates a dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger: log.WithComponent("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Exec invokes h with args in h's execution context and returns a future
// for the outcome. Caller-mode invocations and Designated invocations made
// from the loop itself complete before Exec returns; everything else is
// queued and the future is returned pending.
func (d *Dispatcher) Exec(ctx context.Context, h *member.Handle, args []any) *future.Future[any] {
	f := future.New[any]()

	switch h.Mode {
	case member.Designated:
		if d.designated == nil {
			d.reject(f, h, ErrNoDesignated)
			return f
		}
		if d.designated.IsCurrent(ctx) {
			d.invoke(ctx, f, h, args)
			return f
		}
		if err := d.designated.Post(func(loopCtx context.Context) {
			d.invoke(loopCtx, f, h, args)
		}); err != nil {
			d.reject(f, h, err)
		}

	case member.Worker:
		if d.workers == nil {
			d.reject(f, h, ErrNoWorkers)
			return f
		}
		if err := d.workers.Submit(func(poolCtx context.Context) {
			d.invoke(poolCtx, f, h, args)
		}); err != nil {
			d.reject(f, h, err)
		}

	default:
		d.invoke(ctx, f, h, args)
	}

	return f
}

func (d *Dispatcher) invoke(ctx context.Context, f *future.Future[any], h *member.Handle, args []any) {
	mode := h.Mode.String()
	timer := metrics.NewTimer()

	result, err := h.Invoke(ctx, args)
	timer.ObserveDurationVec(metrics.InvocationDuration, mode)

	if err != nil {
		d.logger.Error().
			Err(err).
			Str("tag", h.Tag).
			Str("member", h.Member).
			Str("mode", mode).
			Str("future_id", f.ID()).
			Msg("Invocation failed")
		d.publishFailure(h, err)

		outcome := metrics.OutcomeFailed
		if !f.Fail(err) {
			outcome = metrics.OutcomeDiscarded
		}
		d.count(h, outcome)
		return
	}

	outcome := metrics.OutcomeOK
	if !f.TrySet(result) {
		outcome = metrics.OutcomeDiscarded
		d.logger.Debug().
			Str("tag", h.Tag).
			Str("future_id", f.ID()).
			Msg("Result discarded, future was interrupted")
	}
	d.count(h, outcome)
}

func (d *Dispatcher) reject(f *future.Future[any], h *member.Handle, err error) {
	err = fmt.Errorf("dispatch %s: %w", h, err)
	d.logger.Warn().
		Err(err).
		Str("tag", h.Tag).
		Str("mode", h.Mode.String()).
		Msg("Invocation rejected")
	d.publishFailure(h, err)
	f.Fail(err)
	d.count(h, metrics.OutcomeRejected)
}

func (d *Dispatcher) count(h *member.Handle, outcome string) {
	metrics.InvocationsTotal.WithLabelValues(h.Mode.String(), h.Kind.String(), outcome).Inc()
}

func (d *Dispatcher) publishFailure(h *member.Handle, err error) {
	if d.broker == nil {
		return
	}
	d.broker.Publish(events.NewEvent(events.EventInvocationFailed, h.Tag, err.Error()).
		With("member", h.Member).
		With("mode", h.Mode.String()))
}
