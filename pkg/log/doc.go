/*
Package log provides structured logging for tagbridge using zerolog.

The package wraps a single package-level zerolog.Logger. Components take a
child logger at construction time with WithComponent and add per-call fields
(tag, member, future id) on each event. Until Init is called the global logger is a
no-op logger, so embedding tagbridge in a program that configures nothing
produces no output.

# Architecture

	┌──────────────────── LOGGING ─────────────────────────┐
	│                                                        │
	│  log.Init(Config) ──► Logger (zerolog, global level)   │
	│                           │                            │
	│          ┌────────────────┼─────────────────┐          │
	│          ▼                ▼                 ▼          │
	│      "bridge"         "dispatch"       "workerpool"     │
	│               (WithComponent children)               │
	│                                                        │
	│  Output: JSON (production) or console (development)    │
	└────────────────────────────────────────────────────────┘

# Levels

  - Debug: registry churn (bindings installed, replaced, removed)
  - Info: lifecycle (loop and pool start/stop, CLI progress)
  - Warn: dead handles pruned, invocations rejected by a stopped loop or pool
  - Error: invocation failures, recovered panics

# Usage

	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stderr,
	})

	logger := log.WithComponent("bridge")
	logger.Debug().Str("tag", "inc").Msg("direct binding installed")

Structured logging goes through the zerolog event API:

	log.Logger.Error().
		Err(err).
		Str("tag", "inc").
		Msg("invocation failed")

Loggers obtained from WithComponent capture the global logger at call time;
call Init before constructing bridges if their output matters.
*/
package log
