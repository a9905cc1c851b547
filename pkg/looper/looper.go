// Package looper provides the designated loop: a single goroutine that runs
// posted work one item at a time in FIFO order, the way a UI event loop does.
package looper

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

var (
	// ErrStopped is returned by Post after Stop.
	ErrStopped = errors.New("looper: stopped")
	// ErrRunning is returned by Run when the loop is already being serviced.
	ErrRunning = errors.New("looper: already running")
)

// Work is a unit of work posted to the loop. ctx identifies the loop; pass
// it along to bridge calls made from inside the work so they are recognized
// as running on the designated goroutine. It must not escape the work.
type Work func(ctx context.Context)

type currentKey struct{}

// Looper is a single-consumer FIFO work queue. The queue is unbounded: Post
// never blocks on a slow loop.
type Looper struct {
	queue  *infinity.Channel[Work]
	depth  atomic.Int64
	logger zerolog.Logger

	mu      sync.RWMutex
	stopped bool

	running atomic.Bool
	doneCh  chan struct{}
}

// New creates a looper. Nothing runs until Run or Start is called.
func New() *Looper {
	return &Looper{
		queue:  infinity.NewChannel[Work](),
		logger: log.WithComponent("looper"),
		doneCh: make(chan struct{}),
	}
}

// Post enqueues work for the loop.
func (l *Looper) Post(work func(ctx context.Context)) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.stopped {
		return ErrStopped
	}
	l.depth.Add(1)
	l.queue.In() <- work
	return nil
}

// IsCurrent reports whether ctx was handed out by this loop, i.e. whether the
// caller is running on the designated goroutine.
func (l *Looper) IsCurrent(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	cur, _ := ctx.Value(currentKey{}).(*Looper)
	return cur == l
}

// Run services the queue on the calling goroutine, which becomes the
// designated goroutine, until Stop is called or ctx ends. Work still queued
// at that point is drained before Run returns.
func (l *Looper) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer close(l.doneCh)

	stop := context.AfterFunc(ctx, l.Stop)
	defer stop()

	l.logger.Info().Msg("designated loop started")

	loopCtx := context.WithValue(ctx, currentKey{}, l)
	for work := range l.queue.Out() {
		l.depth.Add(-1)
		l.execute(loopCtx, work)
	}

	l.logger.Info().Msg("designated loop stopped")
	return nil
}

// Start runs the loop on a new goroutine.
func (l *Looper) Start(ctx context.Context) {
	go func() {
		if err := l.Run(ctx); err != nil {
			l.logger.Error().Err(err).Msg("designated loop failed to start")
		}
	}()
}

// Stop stops accepting work. Already queued work still runs.
func (l *Looper) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return
	}
	l.stopped = true
	l.queue.Close()
}

// Done is closed when Run returns.
func (l *Looper) Done() <-chan struct{} {
	return l.doneCh
}

// Pending returns the number of queued work items.
func (l *Looper) Pending() int {
	return int(l.depth.Load())
}

func (l *Looper) execute(ctx context.Context, work Work) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Err(fmt.Errorf("%v", r)).Msg("posted work panicked")
		}
	}()
	work(ctx)
}
