/*
Package events provides an in-memory broker for bridge lifecycle events.

The bridge publishes an Event whenever its state changes in a way an
operator might want to watch: a tag is bound or removed, a subscriber is
added, a dead handle is pruned, a value is cached or replayed, or an
invocation fails. Consumers subscribe to a channel and receive every event.

	Bridge ──Publish──► eventCh (256) ──run loop──► Subscriber (64 each)
	                                              ├─► Subscriber
	                                              └─► Subscriber

Publish never blocks the caller. An event is dropped when the broker is
stopped, when its queue is full, or, per subscriber, when that subscriber's
buffer is full. Events are observability data; bridge semantics never
depend on their delivery.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	for ev := range sub {
		fmt.Println(ev.Type, ev.Tag, ev.Message)
	}

A nil *Broker is valid for Publish and silently discards events, so
components can hold an optional broker without nil checks.
*/
package events
