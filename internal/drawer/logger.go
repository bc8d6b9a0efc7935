package drawer

// Logger receives the services' structured events. Arguments are slog-style
// key/value pairs, e.g. "directory", id, "owner", owner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger drops every event.
type NopLogger struct{}

// NewNopLogger returns a Logger for callers that do not want tree events,
// mostly tests.
func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}

var _ Logger = (*NopLogger)(nil)
