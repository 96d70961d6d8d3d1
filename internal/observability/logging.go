// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// GlobalLogger is the logger used by the component loggers below. cmd/server
// replaces it with the context-aware request logger at startup.
var GlobalLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetLogger swaps the logger used by RepoLogger and WSLogger instances created afterwards.
func SetLogger(l *slog.Logger) {
	if l != nil {
		GlobalLogger = l
	}
}

// RepoLogger provides structured logging for repository failures.
type RepoLogger struct {
	table  string
	logger *slog.Logger
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table, logger: GlobalLogger}
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	l.logger.ErrorContext(ctx, "repository error",
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// WSLogger provides structured logging for live connection lifecycle.
type WSLogger struct {
	component string
	logger    *slog.Logger
}

// NewWSLogger creates a new WSLogger for the given component.
func NewWSLogger(component string) *WSLogger {
	return &WSLogger{component: component, logger: GlobalLogger}
}

// LogConnect logs a connection registration.
func (l *WSLogger) LogConnect(ctx context.Context, userID uint, connID string) {
	l.logger.InfoContext(ctx, "websocket connected",
		slog.String("component", l.component),
		slog.Uint64("user_id", uint64(userID)),
		slog.String("conn_id", connID),
	)
}

// LogDisconnect logs a connection removal.
func (l *WSLogger) LogDisconnect(ctx context.Context, userID uint, connID, reason string) {
	l.logger.InfoContext(ctx, "websocket disconnected",
		slog.String("component", l.component),
		slog.Uint64("user_id", uint64(userID)),
		slog.String("conn_id", connID),
		slog.String("reason", reason),
	)
}

// LogError logs a failure tied to a user's live channel.
func (l *WSLogger) LogError(ctx context.Context, userID uint, err error, eventType string) {
	l.logger.WarnContext(ctx, "websocket error",
		slog.String("component", l.component),
		slog.Uint64("user_id", uint64(userID)),
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}

// LogLifecycle logs a component lifecycle event such as startup or shutdown.
func (l *WSLogger) LogLifecycle(ctx context.Context, event string, attrs ...slog.Attr) {
	args := []any{
		slog.String("component", l.component),
		slog.String("event", event),
	}
	for _, a := range attrs {
		args = append(args, a)
	}
	l.logger.InfoContext(ctx, "websocket lifecycle", args...)
}
