// Package logger is the application's structured logger: log/slog with a
// handful of event helpers so the same events always carry the same keys.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger embeds *slog.Logger, so Info/Warn/Error/Debug are available directly.
type Logger struct {
	*slog.Logger
}

// New writes to stdout: text with debug level in development, JSON at info
// level everywhere else.
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

func NewWithWriter(env string, w io.Writer) *Logger {
	if strings.EqualFold(env, "development") {
		return &Logger{Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	}
	return &Logger{Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

// Nop discards everything.
func Nop() *Logger {
	return NewWithWriter("production", io.Discard)
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.With(slog.String("request_id", requestID))}
}

func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// AuthEvent records sign-up, sign-in and refresh outcomes. Failures are
// logged at warn with the reason.
func (l *Logger) AuthEvent(event, email string, success bool, reason string) {
	attrs := []any{
		slog.String("event", event),
		slog.String("email", email),
		slog.Bool("success", success),
	}
	if success {
		l.Info("auth_event", attrs...)
		return
	}
	l.Warn("auth_event", append(attrs, slog.String("reason", reason))...)
}

// UpstreamFailure records a failed provider call. Whether the failure
// degrades or aborts the result is the caller's decision.
func (l *Logger) UpstreamFailure(source, endpoint string, err error) {
	l.Warn("upstream_failure",
		slog.String("source", source),
		slog.String("endpoint", endpoint),
		slog.String("error", err.Error()),
	)
}

func (l *Logger) AuditEvent(auditID, domain string, leadScore int, failedSources []string) {
	l.Info("audit_completed",
		slog.String("audit_id", auditID),
		slog.String("domain", domain),
		slog.Int("lead_score", leadScore),
		slog.Any("failed_sources", failedSources),
	)
}

func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
