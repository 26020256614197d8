package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the root logger every directory (scheduler, worker,
// client) derives its own child logger from via the With* functions
// below. pkg/scheduler, pkg/worker, pkg/client and transport/grpcwire
// each hold their own zerolog.Logger field, fixed at construction
// time, instead of touching the package global per call;
// cmd/pubsubctl's scheduler command logs through Logger directly.
var Logger zerolog.Logger

// Level names a log level for Config. The constants below are the
// levels cmd/pubsubctl documents; Init accepts any name
// zerolog.ParseLevel understands and falls back to InfoLevel when
// parsing fails, rather than rejecting Init outright.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init sets the global zerolog level and (re)builds Logger. cmd/pubsubctl
// calls it once at startup with the level and format read from
// pkg/config; nothing else should call it afterward.
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(string(cfg.Level)))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if !cfg.JSONOutput {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}
	Logger = zerolog.New(output).With().Timestamp().Logger()
}

// with returns a child of Logger carrying a single string field. The
// four domain wrappers below exist so call sites name the field by
// what it means (topic, worker address, client ID, component) instead
// of spelling out Str("worker", ...) at every construction site.
func with(field, value string) zerolog.Logger {
	return Logger.With().Str(field, value).Logger()
}

// WithComponent tags a logger with which long-lived subsystem owns it
// (pkg/scheduler.Directory and transport/grpcwire's SchedulerServer).
func WithComponent(component string) zerolog.Logger { return with("component", component) }

// WithTopic tags a logger with the topic name it's scoped to.
func WithTopic(topic string) zerolog.Logger { return with("topic", topic) }

// WithWorker tags a logger with a worker address.
func WithWorker(addr string) zerolog.Logger { return with("worker", addr) }

// WithClient tags a logger with a client ID.
func WithClient(id string) zerolog.Logger { return with("client", id) }
