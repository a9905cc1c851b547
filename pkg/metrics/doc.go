/*
Package metrics exposes tagbridge's Prometheus metrics and health endpoints.

Every metric is a package-level collector registered with the default
Prometheus registry from init, so importing the package is enough to make
the series appear on the /metrics handler.

# Architecture

	┌───────────────────── METRICS ─────────────────────┐
	│                                                     │
	│  dispatch ──► InvocationsTotal{mode,kind,outcome}   │
	│           └─► InvocationDuration{mode}              │
	│                                                     │
	│  bridge ───► PublishesTotal                         │
	│          ├─► CacheReplaysTotal                      │
	│          └─► PrunedHandlesTotal{namespace}          │
	│                                                     │
	│  Collector (ticker) ── Source.Snapshot() ──►        │
	│      DirectBindings, SubscriberBindings,            │
	│      CacheEntries, WorkerQueueDepth,                │
	│      LooperQueueDepth                               │
	│                                                     │
	│  Handler() ──► promhttp  (/metrics)                 │
	│  HealthHandler / ReadyHandler / LivenessHandler     │
	└─────────────────────────────────────────────────────┘

Counters and histograms are updated inline by the code that does the work.
Gauges describing registry and queue state are sampled: a Collector polls a
Source (the bridge) at a fixed interval, 15 seconds by default.

# Outcomes

InvocationsTotal carries an outcome label:

  - ok: the member ran and its result resolved the future
  - failed: the member returned an error, panicked or could not be called
  - discarded: the member ran but the future was already cancelled with
    interrupt, so the result was dropped
  - rejected: the invocation could not be queued (stopped loop or pool)

# Timing

	timer := metrics.NewTimer()
	result, err := h.Invoke(ctx, args)
	timer.ObserveDurationVec(metrics.InvocationDuration, h.Mode.String())

# Health

The health checker tracks named components. Readiness requires every
critical component (looper and workers by default) to be registered and
healthy; SetCriticalComponents changes that set, e.g. for a bridge that
runs without a designated loop.

	metrics.RegisterComponent(metrics.ComponentWorkers, true, "5 workers")
	http.HandleFunc("/ready", metrics.ReadyHandler())
*/
package metrics
