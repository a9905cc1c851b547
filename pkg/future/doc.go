/*
Package future provides a cancellable, single-assignment result container.

A Future starts Pending and is resolved at most once, either with a value
(TrySet) or with an error outcome (Fail). Cancel moves a pending future to
Cancelled and records whether the cancellation interrupts waiters:

	           TrySet / Fail
	Pending ─────────────────► Done
	   │
	   │ Cancel(withInterrupt)
	   ▼
	Cancelled ── TrySet (only when withInterrupt == false) ──► Done

Waiters block on a channel that is closed exactly once, so every waiter is
released together and the scheduler parks them instead of spinning. The value
is recorded under the same mutex that closes the channel, which gives the
happens-before edge between the writer and every waiter.

Await outcomes:

  - Done: the value, or the error passed to Fail
  - Cancelled with interrupt: ErrInterrupted, even if a value arrives later
  - Cancelled without interrupt: ErrCancelled until a late value lands
  - AwaitTimeout deadline: ErrTimeout
  - AwaitContext: ctx.Err() when the context ends first
*/
package future
