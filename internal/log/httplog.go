package log

import (
	"time"

	"go.uber.org/zap"
)

// HTTPLogEntry represents one served HTTP request
type HTTPLogEntry struct {
	RequestID  string
	Method     string
	Path       string
	Query      string
	Status     int
	Duration   time.Duration
	Size       int
	RemoteAddr string
	UserAgent  string
}

// LogHTTPRequest writes entry to l (the package logger when nil). Server
// errors are logged at error level, client errors at warn, the rest at info.
func LogHTTPRequest(l *zap.SugaredLogger, entry HTTPLogEntry) {
	if l == nil {
		l = current()
	}

	kv := []interface{}{
		"request_id", entry.RequestID,
		"method", entry.Method,
		"path", entry.Path,
		"status", entry.Status,
		"duration", entry.Duration,
		"size", entry.Size,
		"remote_addr", entry.RemoteAddr,
	}
	if entry.Query != "" {
		kv = append(kv, "query", entry.Query)
	}
	if entry.UserAgent != "" {
		kv = append(kv, "user_agent", entry.UserAgent)
	}

	switch {
	case entry.Status >= 500:
		l.Errorw("http request", kv...)
	case entry.Status >= 400:
		l.Warnw("http request", kv...)
	default:
		l.Infow("http request", kv...)
	}
}
