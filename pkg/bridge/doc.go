/*
Package bridge invokes methods and fields of registered objects by string
tag, on the execution context each binding asks for, and fans published
values out to tag subscribers.

# Architecture

	┌─────────────────────────── BRIDGE ───────────────────────────┐
	│                                                                │
	│  Mark / Bind ──► member.Introspect ──► []*member.Handle        │
	│                                            │                   │
	│                      ┌─────────────────────┴──────────┐        │
	│                      ▼                                ▼        │
	│             registry (direct)              registry (subscribers)
	│             tag ──► one handle             tag ──► handle set  │
	│                      │                                │        │
	│  Run(tag) ───────────┘              Publish(tag) ─────┘        │
	│                      │                                │        │
	│                      └──────────► dispatch ◄──────────┘        │
	│                                      │                         │
	│              ┌───────────────────────┼───────────────────┐     │
	│              ▼                       ▼                   ▼     │
	│          Caller                  Designated            Worker  │
	│     (inline, same          (looper: one goroutine,  (workerpool│
	│       goroutine)            FIFO, inline if the      N goroutines,
	│                             caller is the loop)      unbounded) │
	│                                      │                         │
	│                                      ▼                         │
	│                            future.Future[any]                  │
	│                                                                │
	│  PublishAndCache ──► cache (tag ──► last args) ──► replayed    │
	│                                     to subscribers added later │
	└────────────────────────────────────────────────────────────────┘

# Bindings

Fields are bound with `bridge` struct tags; methods are bound by
implementing member.Binder or by passing member.Binding values to Bind:

	type Counter struct {
		Value int `bridge:"v;setV,setter"`
	}

	func (c *Counter) Increment() { c.Value++ }

	func (c *Counter) BridgeBindings() []member.Binding {
		return []member.Binding{{Member: "Increment", Tag: "inc"}}
	}

A Direct binding owns its tag: binding the same tag again replaces the
previous handle. A Subscribe binding joins the tag's subscriber set; the
same object, member and tag subscribed twice is a single subscriber.

# Object lifetime

Handles reference their object weakly. Registering an object never keeps it
alive, and once it is collected its handles are dead. Run removes a dead
direct binding when it finds one, Publish skips dead subscribers, and
PruneDead sweeps both namespaces. Unmark removes an object's handles
explicitly.

# Thread modes

Caller invocations run before Run returns. Designated invocations run on the
looper; code already running there passes the context it received to Run,
which the loop recognizes so the call executes inline rather than queueing
behind itself:

	loop.Post(func(ctx context.Context) {
		f, _ := b.Run(ctx, "refresh") // runs now, on the loop
		...
	})

Worker invocations run on the bridge's pool. Methods whose first parameter
is a context.Context receive the context of the goroutine that runs them.

# Futures

Run returns a future.Future[any]. Cancelling it never stops the invocation;
with interrupt, waiters see future.ErrInterrupted and the result is
discarded. Member errors and panics resolve the future with an error
wrapping member.InvocationError.

# Caching

PublishAndCache(ctx, tag, true, args...) stores args after publishing. A
subscriber added to tag later receives them once, through its own thread
mode. Every Publish to tag clears the stored value first.

# Observability

The bridge implements metrics.Source for the metrics.Collector and, with
WithBroker, publishes events.Event values for bindings, removals, pruning,
caching and failed invocations.
*/
package bridge
