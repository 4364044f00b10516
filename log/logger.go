package log

// Logger is a minimal logging interface for photon's Manager and transfers.
// Callers inject their own sink (logrus, zap, slog, a test double); the
// core never constructs one itself.
//
//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -o logmocks/logger.go . Logger
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

// Noop discards every log call. It is the default when no logger has been
// injected via context, so callers never need a nil check.
type Noop struct{}

func (Noop) Debug(msg string, keysAndValues ...any) {}
func (Noop) Info(msg string, keysAndValues ...any)  {}
func (Noop) Error(msg string, keysAndValues ...any) {}
func (Noop) Warn(msg string, keysAndValues ...any)  {}

var _ Logger = Noop{}
