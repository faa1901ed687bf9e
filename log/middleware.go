package log

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// NewStructuredLogger returns chi request-logging middleware writing to logger.
func NewStructuredLogger(logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return middleware.RequestLogger(&StructuredLogger{Logger: logger})
}

type StructuredLogger struct {
	Logger logrus.FieldLogger
}

func (l *StructuredLogger) NewLogEntry(r *http.Request) middleware.LogEntry {
	fields := logrus.Fields{
		"http_method": r.Method,
		"http_proto":  r.Proto,
		"remote_addr": r.RemoteAddr,
		"uri":         r.RequestURI,
	}
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		fields["req_id"] = reqID
	}

	entry := &StructuredLoggerEntry{Logger: l.Logger.WithFields(fields)}
	entry.Logger.Debug("request started")
	return entry
}

type StructuredLoggerEntry struct {
	Logger logrus.FieldLogger
}

func (l *StructuredLoggerEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	l.Logger = l.Logger.WithFields(logrus.Fields{
		"resp_status":       status,
		"resp_bytes_length": bytes,
		"resp_elapsed_ms":   float64(elapsed.Nanoseconds()) / 1000000.0,
	})
	l.Logger.Info("request complete")
}

func (l *StructuredLoggerEntry) Panic(v interface{}, stack []byte) {
	l.Logger = l.Logger.WithFields(logrus.Fields{
		"stack": string(stack),
		"panic": fmt.Sprintf("%+v", v),
	})
}

// GetLogEntry returns the request-scoped logger set by the middleware, or
// fallback when the request was not logged.
func GetLogEntry(r *http.Request, fallback logrus.FieldLogger) logrus.FieldLogger {
	if entry, ok := middleware.GetLogEntry(r).(*StructuredLoggerEntry); ok {
		return entry.Logger
	}
	return fallback
}
