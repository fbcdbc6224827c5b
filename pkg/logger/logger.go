// Package logger provides the process-wide structured logger used by the
// session manager daemon, the admin CLI, and the snmon reference consumer.
// It wraps log/slog behind a small singleton so packages can log without
// threading a *slog.Logger through every constructor.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"
)

var singleton atomic.Pointer[slog.Logger]

func init() {
	singleton.Store(build(defaultOptions()))
}

// EnvReader abstracts os.Getenv so InitializeWithEnv can be exercised with a
// fake environment in tests without mutating process state.
type EnvReader interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

// Option configures the logger built by New or Initialize.
type Option func(*options)

type options struct {
	output       io.Writer
	level        slog.Level
	unstructured bool
}

func defaultOptions() *options {
	return &options{output: os.Stderr, level: slog.LevelInfo, unstructured: unstructuredLogs()}
}

// WithOutput redirects log output; used by tests to capture what was logged.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithLevel sets the minimum level that reaches the handler.
func WithLevel(l slog.Level) Option {
	return func(o *options) { o.level = l }
}

// withUnstructured forces the text-vs-JSON handler choice; unexported since
// callers configure it through the UNSTRUCTURED_LOGS environment variable.
func withUnstructured(v bool) Option {
	return func(o *options) { o.unstructured = v }
}

// New builds a standalone logger without touching the singleton.
func New(opts ...Option) *slog.Logger {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return build(o)
}

func build(o *options) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: o.level}
	var handler slog.Handler
	if o.unstructured {
		handler = slog.NewTextHandler(o.output, hopts)
	} else {
		handler = slog.NewJSONHandler(o.output, hopts)
	}
	return slog.New(handler)
}

// unstructuredLogs reports whether plain text (rather than JSON) logging is
// requested via UNSTRUCTURED_LOGS. Defaults to true, matching a developer
// running the daemon directly from a terminal.
func unstructuredLogs() bool {
	return unstructuredLogsWithEnv(osEnv{})
}

func unstructuredLogsWithEnv(r EnvReader) bool {
	v := r.Getenv("UNSTRUCTURED_LOGS")
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

// Initialize rebuilds the singleton logger from opts, replacing whatever was
// installed before. Called once from each command's PersistentPreRun.
func Initialize(opts ...Option) {
	singleton.Store(New(opts...))
}

// InitializeWithEnv rebuilds the singleton, reading UNSTRUCTURED_LOGS from r
// instead of the process environment directly.
func InitializeWithEnv(r EnvReader, opts ...Option) {
	o := &options{output: os.Stderr, level: slog.LevelInfo, unstructured: unstructuredLogsWithEnv(r)}
	for _, opt := range opts {
		opt(o)
	}
	singleton.Store(build(o))
}

// Get returns the current singleton logger.
func Get() *slog.Logger {
	return singleton.Load()
}

func Debug(msg string)                       { Get().Debug(msg) }
func Debugf(format string, args ...any)      { Get().Debug(fmt.Sprintf(format, args...)) }
func Debugw(msg string, kv ...any)           { Get().Debug(msg, kv...) }
func Info(msg string)                        { Get().Info(msg) }
func Infof(format string, args ...any)       { Get().Info(fmt.Sprintf(format, args...)) }
func Infow(msg string, kv ...any)            { Get().Info(msg, kv...) }
func Warn(msg string)                        { Get().Warn(msg) }
func Warnf(format string, args ...any)       { Get().Warn(fmt.Sprintf(format, args...)) }
func Warnw(msg string, kv ...any)            { Get().Warn(msg, kv...) }
func Error(msg string)                       { Get().Error(msg) }
func Errorf(format string, args ...any)      { Get().Error(fmt.Sprintf(format, args...)) }
func Errorw(msg string, kv ...any)           { Get().Error(msg, kv...) }

// DPanic logs at error level. Unlike zap's DPanic, it never panics here: the
// daemon has no "development mode" distinction, so the panicking behavior is
// left to the explicit Panic family below.
func DPanic(msg string)                  { Get().Error(msg) }
func DPanicf(format string, args ...any) { Get().Error(fmt.Sprintf(format, args...)) }
func DPanicw(msg string, kv ...any)      { Get().Error(msg, kv...) }

// Panic logs at error level and then panics with msg.
func Panic(msg string) {
	Get().Error(msg)
	panic(msg)
}

func Panicf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	Get().Error(msg)
	panic(msg)
}

func Panicw(msg string, kv ...any) {
	Get().Error(msg, kv...)
	panic(msg)
}

// Fatal logs at error level and terminates the process. Reserved for
// unrecoverable startup failures (bad config, unbindable listener).
func Fatal(msg string) {
	Get().Error(msg)
	os.Exit(1)
}

func Fatalf(format string, args ...any) {
	Get().Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
