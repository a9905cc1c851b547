// Package workerpool runs tasks on a fixed number of goroutines fed by one
// unbounded FIFO queue. Submitting never drops a task and never blocks on a
// saturated pool.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	infinity "github.com/Code-Hex/go-infinity-channel"
	"github.com/cuemby/tagbridge/pkg/log"
	"github.com/rs/zerolog"
)

// DefaultSize is the number of workers used when none is configured.
const DefaultSize = 5

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("workerpool: stopped")

// Task is a unit of work. ctx is the pool's context.
type Task func(ctx context.Context)

// Pool manages a fixed set of worker goroutines
type Pool struct {
	size   int
	queue  *infinity.Channel[Task]
	logger zerolog.Logger

	pending atomic.Int64
	active  atomic.Int64

	mu      sync.RWMutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// Option configures a Pool.
type Option func(*Pool)

// WithSize sets the number of worker goroutines.
func WithSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.size = n
		}
	}
}

// New creates a pool. Workers start with Start.
func New(opts ...Option) *Pool {
	p := &Pool{
		size:   DefaultSize,
		queue:  infinity.NewChannel[Task](),
		logger: log.WithComponent("workerpool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers. Tasks receive ctx; cancelling it stops the
// pool like Stop does.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true

	p.logger.Info().Int("size", p.size).Msg("worker pool starting")

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	context.AfterFunc(ctx, func() { p.closeQueue() })
}

// Submit queues task for execution.
func (p *Pool) Submit(task func(ctx context.Context)) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrStopped
	}
	p.pending.Add(1)
	p.queue.In() <- task
	return nil
}

// Stop stops accepting tasks and waits for queued and running tasks to
// finish.
func (p *Pool) Stop() {
	p.closeQueue()
	p.wg.Wait()
	p.logger.Info().Msg("worker pool stopped")
}

func (p *Pool) closeQueue() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	p.queue.Close()
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Pending returns the number of queued tasks not yet picked up.
func (p *Pool) Pending() int {
	return int(p.pending.Load())
}

// Active returns the number of tasks currently running.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	logger := p.logger.With().Int("worker_id", id).Logger()
	logger.Debug().Msg("worker started")

	for task := range p.queue.Out() {
		p.pending.Add(-1)
		p.active.Add(1)
		p.run(ctx, logger, task)
		p.active.Add(-1)
	}

	logger.Debug().Msg("worker finished")
}

func (p *Pool) run(ctx context.Context, logger zerolog.Logger, task Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Err(fmt.Errorf("%v", r)).Msg("task panicked")
		}
	}()
	task(ctx)
}
