package log

import (
	"context"
	"log/slog"
	"sync"
)

// slogLogger adapts *slog.Logger to Logger.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l. A nil l wraps slog.Default() at call time.
func NewSlogLogger(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

func (s *slogLogger) logger() *slog.Logger {
	if s.l == nil {
		return slog.Default()
	}
	return s.l
}

func (s *slogLogger) Debug(msg string, fields ...any) {
	s.logger().Debug(msg, fields...)
}

func (s *slogLogger) Info(msg string, fields ...any) {
	s.logger().Info(msg, fields...)
}

func (s *slogLogger) Warn(msg string, fields ...any) {
	s.logger().Warn(msg, fields...)
}

func (s *slogLogger) Error(msg string, fields ...any) {
	s.logger().Error(msg, errorFirst(fields)...)
}

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{l: s.logger().With(fields...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.logger().Enabled(ctx, slog.Level(level))
}

// errorFirst turns a leading error value into an ErrAttr so ErrFmtHandler can
// attach its stacktrace.
func errorFirst(fields []any) []any {
	if len(fields) == 0 {
		return fields
	}
	if err, ok := fields[0].(error); ok {
		out := make([]any, 0, len(fields))
		out = append(out, ErrAttr(err))
		return append(out, fields[1:]...)
	}
	return fields
}

// defaultProvider serves GetLogger. Until SetLogger is called it follows slog.Default(),
// so SetupLogger takes effect for loggers created afterwards.
type defaultProvider struct {
	mu     sync.RWMutex
	logger Logger
}

var provider = &defaultProvider{}

func (p *defaultProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.logger != nil {
		return p.logger
	}
	return NewSlogLogger(slog.Default())
}

func (p *defaultProvider) GetLoggerWithName(name string) Logger {
	return p.GetLogger().With(ComponentKey, name)
}

func (p *defaultProvider) SetLevel(level Level) {
	levelVar.Set(slog.Level(level))
}

// GetLogger returns the package-wide logger.
func GetLogger() Logger {
	return provider.GetLogger()
}

// GetLoggerWithName returns the package-wide logger tagged with ComponentKey=name.
func GetLoggerWithName(name string) Logger {
	return provider.GetLoggerWithName(name)
}

// SetLogger replaces the package-wide logger. Passing nil restores the slog default.
// Estimators capture their logger at construction, so call this before creating them.
func SetLogger(l Logger) {
	provider.mu.Lock()
	defer provider.mu.Unlock()
	provider.logger = l
}

// SetLevel adjusts the level of the handler installed by SetupLogger.
func SetLevel(level Level) {
	provider.SetLevel(level)
}

// DefaultProvider exposes the package-wide provider as a LoggerProvider.
func DefaultProvider() LoggerProvider {
	return provider
}
