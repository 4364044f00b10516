package log

import "context"

// loggerKey is the key for the Logger in the context.
type loggerKey struct{}

// ToContext returns a context carrying the given logger.
func ToContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger carried by ctx, or nil if none was set.
func FromContext(ctx context.Context) Logger {
	logger, ok := ctx.Value(loggerKey{}).(Logger)
	if !ok {
		return nil
	}

	return logger
}

// FromContextOrNoop returns the logger carried by ctx, or a Noop logger if
// none was set. This is what the Manager and transfers use internally so
// they never need a nil check before logging.
func FromContextOrNoop(ctx context.Context) Logger {
	if logger := FromContext(ctx); logger != nil {
		return logger
	}

	return Noop{}
}
