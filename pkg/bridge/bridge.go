package bridge

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/cuemby/tagbridge/pkg/cache"
	"github.com/cuemby/tagbridge/pkg/dispatch"
	"github.com/cuemby/tagbridge/pkg/events"
	"github.com/cuemby/tagbridge/pkg/future"
	"github.com/cuemby/tagbridge/pkg/log"
	"github.com/cuemby/tagbridge/pkg/member"
	"github.com/cuemby/tagbridge/pkg/metrics"
	"github.com/cuemby/tagbridge/pkg/registry"
	"github.com/cuemby/tagbridge/pkg/workerpool"
	"github.com/rs/zerolog"
)

// Bridge invokes tagged members of registered objects
type Bridge struct {
	registry   *registry.Registry
	cache      *cache.Cache
	dispatcher *dispatch.Dispatcher

	designated dispatch.Designated
	pool       *workerpool.Pool
	workers    int
	broker     *events.Broker
	logger     zerolog.Logger

	closeOnce sync.Once
}

// Option configures a Bridge
type Option func(*Bridge)

// WithLooper sets the designated loop. Without one, Designated invocations
// fail with dispatch.ErrNoDesignated.
func WithLooper(d dispatch.Designated) Option {
	return func(b *Bridge) {
		b.designated = d
	}
}

// WithWorkers sets the worker pool size (default workerpool.DefaultSize)
func WithWorkers(n int) Option {
	return func(b *Bridge) {
		b.workers = n
	}
}

// WithBroker publishes lifecycle events to broker
func WithBroker(broker *events.Broker) Option {
	return func(b *Bridge) {
		b.broker = broker
	}
}

// WithLogger replaces the component logger
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// New creates a bridge and starts its worker pool. The designated loop, if
// any, is owned and run by the caller.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		registry: registry.New(),
		cache:    cache.New(),
		workers:  workerpool.DefaultSize,
		logger:   log.WithComponent("bridge"),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.pool = workerpool.New(workerpool.WithSize(b.workers))
	b.pool.Start(context.Background())

	dopts := []dispatch.Option{
		dispatch.WithWorkers(b.pool),
		dispatch.WithBroker(b.broker),
		dispatch.WithLogger(b.logger.With().Str("subcomponent", "dispatch").Logger()),
	}
	if b.designated != nil {
		dopts = append(dopts, dispatch.WithDesignated(b.designated))
	}
	b.dispatcher = dispatch.New(dopts...)

	b.logger.Debug().
		Int("workers", b.pool.Size()).
		Bool("designated", b.designated != nil).
		Msg("Bridge created")

	return b
}

// Mark registers every bound member of obj: `bridge` struct tags on its
// fields and, if obj implements member.Binder, its declared method bindings.
// ctx is passed to cache catch-up dispatches.
func Mark[T any](ctx context.Context, b *Bridge, obj *T) error {
	return Bind(ctx, b, obj)
}

// Bind is Mark with additional explicit bindings for obj.
func Bind[T any](ctx context.Context, b *Bridge, obj *T, bindings ...member.Binding) error {
	handles, err := member.Introspect(obj, bindings...)
	if err != nil {
		return err
	}
	for _, h := range handles {
		b.install(ctx, h)
	}
	return nil
}

// Unmark removes every direct and subscriber handle owned by obj.
func Unmark[T any](b *Bridge, obj *T) (direct, subscribers int) {
	direct, subscribers = b.registry.RemoveOwner(member.OwnerOf(obj))
	if direct+subscribers > 0 {
		b.logger.Debug().
			Int("direct", direct).
			Int("subscribers", subscribers).
			Msg("Object unmarked")
	}
	return direct, subscribers
}

func (b *Bridge) install(ctx context.Context, h *member.Handle) {
	logger := b.logger.With().Str("tag", h.Tag).Str("member", h.Member).Logger()

	if h.Binding == member.Direct {
		prev, replaced := b.registry.Bind(h)
		if replaced {
			logger.Debug().Str("previous", prev.String()).Msg("Direct binding replaced")
		} else {
			logger.Debug().Msg("Direct binding added")
		}
		b.emit(events.NewEvent(events.EventTagBound, h.Tag, h.String()).
			With("replaced", strconv.FormatBool(replaced)))
		return
	}

	if !b.registry.AddSubscriber(h) {
		logger.Debug().Msg("Subscriber already registered")
		return
	}
	logger.Debug().Msg("Subscriber added")
	b.emit(events.NewEvent(events.EventSubscriberAdded, h.Tag, h.String()))

	args, ok := b.cache.Load(h.Tag)
	if !ok {
		return
	}
	metrics.CacheReplaysTotal.Inc()
	b.emit(events.NewEvent(events.EventCacheReplayed, h.Tag, h.String()))
	logger.Debug().Int("args", len(args)).Msg("Replaying cached publish")
	b.dispatcher.Exec(ctx, h, args)
}

// Run invokes the member bound directly to tag. It returns false if nothing
// is bound or the bound object no longer exists; a dead handle is removed.
func (b *Bridge) Run(ctx context.Context, tag string, args ...any) (*future.Future[any], bool) {
	h, ok := b.registry.Lookup(tag)
	if !ok {
		return nil, false
	}
	if !h.Alive() {
		if b.registry.RemoveIf(tag, h) {
			metrics.PrunedHandlesTotal.WithLabelValues(member.Direct.String()).Inc()
			b.logger.Warn().Str("tag", tag).Str("handle", h.String()).Msg("Pruned dead direct binding")
			b.emit(events.NewEvent(events.EventHandlePruned, tag, h.String()).
				With("namespace", member.Direct.String()))
		}
		return nil, false
	}
	return b.dispatcher.Exec(ctx, h, args), true
}

// Publish clears the cached value for tag and dispatches args to every live
// subscriber. Futures are discarded; failures are logged by the dispatcher.
// It returns the number of subscribers dispatched.
func (b *Bridge) Publish(ctx context.Context, tag string, args ...any) int {
	metrics.PublishesTotal.Inc()
	b.cache.Remove(tag)

	n := 0
	for _, h := range b.registry.Subscribers(tag) {
		if !h.Alive() {
			continue
		}
		b.dispatcher.Exec(ctx, h, args)
		n++
	}

	b.logger.Debug().Str("tag", tag).Int("subscribers", n).Msg("Published")
	return n
}

// PublishAndCache publishes args and, if shouldCache is set, keeps them as
// the value replayed to subscribers that join tag later.
func (b *Bridge) PublishAndCache(ctx context.Context, tag string, shouldCache bool, args ...any) int {
	n := b.Publish(ctx, tag, args...)
	if shouldCache {
		b.cache.Store(tag, args)
		b.emit(events.NewEvent(events.EventCacheStored, tag, "").
			With("args", strconv.Itoa(len(args))))
	}
	return n
}

// RemoveTag removes the direct binding for tag
func (b *Bridge) RemoveTag(tag string) bool {
	removed := b.registry.Remove(tag)
	if removed {
		b.emit(events.NewEvent(events.EventTagRemoved, tag, ""))
	}
	return removed
}

// RemoveAllTags removes every direct binding
func (b *Bridge) RemoveAllTags() int {
	n := b.registry.RemoveAll()
	b.logger.Debug().Int("count", n).Msg("Removed all direct bindings")
	return n
}

// RemoveCache drops the cached value for tag
func (b *Bridge) RemoveCache(tag string) bool {
	return b.cache.Remove(tag)
}

// RemoveAllCache drops every cached value
func (b *Bridge) RemoveAllCache() int {
	return b.cache.RemoveAll()
}

// Unsubscribe removes every subscriber of tag
func (b *Bridge) Unsubscribe(tag string) bool {
	return b.registry.Unsubscribe(tag)
}

// RemoveAllSubscribers removes every subscriber of every tag
func (b *Bridge) RemoveAllSubscribers() int {
	return b.registry.UnsubscribeAll()
}

// PruneDead removes every handle whose object has been collected
func (b *Bridge) PruneDead() (direct, subscribers int) {
	direct, subscribers = b.registry.PruneDead()

	if direct > 0 {
		metrics.PrunedHandlesTotal.WithLabelValues(member.Direct.String()).Add(float64(direct))
	}
	if subscribers > 0 {
		metrics.PrunedHandlesTotal.WithLabelValues(member.Subscribe.String()).Add(float64(subscribers))
	}
	if direct+subscribers > 0 {
		b.logger.Warn().
			Int("direct", direct).
			Int("subscribers", subscribers).
			Msg("Pruned dead handles")
		b.emit(events.NewEvent(events.EventHandlePruned, "", "sweep").
			With("direct", strconv.Itoa(direct)).
			With("subscribers", strconv.Itoa(subscribers)))
	}
	return direct, subscribers
}

// Tags returns every tag with a direct binding or at least one subscriber,
// sorted.
func (b *Bridge) Tags() []string {
	seen := make(map[string]struct{})
	for _, t := range b.registry.Tags() {
		seen[t] = struct{}{}
	}
	for _, t := range b.registry.SubscribedTags() {
		if len(b.registry.Subscribers(t)) > 0 {
			seen[t] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// CachedTags returns the sorted tags holding a cached publish
func (b *Bridge) CachedTags() []string {
	return b.cache.Tags()
}

// Snapshot reports registry, cache and queue sizes. It implements
// metrics.Source.
func (b *Bridge) Snapshot() metrics.Snapshot {
	s := metrics.Snapshot{
		DirectBindings:     b.registry.DirectCount(),
		SubscriberBindings: b.registry.SubscriberCount(),
		CacheEntries:       b.cache.Len(),
		WorkerQueueDepth:   b.pool.Pending(),
	}
	if p, ok := b.designated.(interface{ Pending() int }); ok {
		s.LooperQueueDepth = p.Pending()
	}
	return s
}

// Close stops the worker pool after queued invocations finish. Worker-mode
// invocations made after Close fail with workerpool.ErrStopped.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		b.pool.Stop()
		b.logger.Debug().Msg("Bridge closed")
	})
}

func (b *Bridge) emit(ev *events.Event) {
	if b.broker != nil {
		b.broker.Publish(ev)
	}
}
