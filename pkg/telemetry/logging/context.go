package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// LaunchIDKey is the context key for launch IDs.
	LaunchIDKey contextKey = "launch_id"

	// CommandKey is the context key for the CLI command name.
	CommandKey contextKey = "command"
)

// WithLaunchID adds a launch ID to the context.
func WithLaunchID(ctx context.Context, launchID string) context.Context {
	return context.WithValue(ctx, LaunchIDKey, launchID)
}

// GetLaunchID retrieves the launch ID from the context.
func GetLaunchID(ctx context.Context) string {
	if id, ok := ctx.Value(LaunchIDKey).(string); ok {
		return id
	}
	return ""
}

// WithCommand adds the CLI command name to the context.
func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, CommandKey, command)
}

// GetCommand retrieves the CLI command name from the context.
func GetCommand(ctx context.Context) string {
	if cmd, ok := ctx.Value(CommandKey).(string); ok {
		return cmd
	}
	return ""
}

// extractContextFields returns the context fields as key-value pairs.
func extractContextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}

	var fields []any
	if id := GetLaunchID(ctx); id != "" {
		fields = append(fields, string(LaunchIDKey), id)
	}
	if cmd := GetCommand(ctx); cmd != "" {
		fields = append(fields, string(CommandKey), cmd)
	}
	return fields
}

// contextHandler adds context fields to every record.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if fields := extractContextFields(ctx); len(fields) > 0 {
		r.Add(fields...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
