package telemetry

import (
	"context"
	"log/slog"
)

const logPrefix = "🖇 AgentOps: "

// prefixLogger wraps slog.Logger to prepend the AgentOps marker to every
// message so SDK output stands out in the host program's logs.
type prefixLogger struct {
	logger *slog.Logger
}

func newPrefixLogger(logger *slog.Logger) *prefixLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &prefixLogger{logger: logger}
}

func (l *prefixLogger) Debug(msg string, args ...any) {
	l.logger.Debug(logPrefix+msg, args...)
}

func (l *prefixLogger) Info(msg string, args ...any) {
	l.logger.Info(logPrefix+msg, args...)
}

func (l *prefixLogger) Warn(msg string, args ...any) {
	l.logger.Warn(logPrefix+msg, args...)
}

func (l *prefixLogger) Error(msg string, args ...any) {
	l.logger.Error(logPrefix+msg, args...)
}

func (l *prefixLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.logger.Enabled(ctx, level)
}
