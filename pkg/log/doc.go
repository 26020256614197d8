/*
Package log provides structured logging for the pub/sub fabric using
zerolog.

It wraps zerolog to give every scheduler, worker, and client directory
actor JSON-structured (or console, for local development) logging with
component-specific child loggers, a configurable level, and a handful of
domain context helpers.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	schedLog := log.WithComponent("scheduler")
	schedLog.Info().Msg("directory started")

	topicLog := log.WithTopic("prices").With().
		Str("worker", string(addr)).Logger()
	topicLog.Debug().Msg("publisher registered")

Context helpers: WithComponent, WithTopic, WithWorker, WithClient. Each
returns a zerolog.Logger with one additional field set, mirroring
zerolog's own With()-chain idiom rather than introducing a bespoke
context type.
*/
package log
