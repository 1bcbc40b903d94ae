package middleware

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggerConfig binds process identity to every access record.
type LoggerConfig struct {
	Hostname string
	Instance string
	// Fallback receives the plain text record when the log handler fails.
	// Defaults to os.Stderr.
	Fallback io.Writer
}

// AccessLogEntry is the record written for one completed request.
type AccessLogEntry struct {
	Time      time.Time
	Hostname  string
	Instance  string
	Method    string
	Path      string
	Status    int
	Duration  time.Duration
	ClientIP  string
	RequestID string
}

// DurationMS is Duration rounded to whole milliseconds.
func (e AccessLogEntry) DurationMS() int64 {
	return e.Duration.Round(time.Millisecond).Milliseconds()
}

// Level picks the record level from the status: 5xx error, 4xx warn, else info.
func (e AccessLogEntry) Level() slog.Level {
	switch {
	case e.Status >= 500:
		return slog.LevelError
	case e.Status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// LogValue implements slog.LogValuer.
func (e AccessLogEntry) LogValue() slog.Value {
	return slog.GroupValue(e.attrs()...)
}

// attrs excludes hostname and instance, which the logger carries already.
func (e AccessLogEntry) attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("method", e.Method),
		slog.String("path", e.Path),
		slog.Int("status", e.Status),
		slog.Int64("duration_ms", e.DurationMS()),
		slog.String("client_ip", e.ClientIP),
	}
}

func (e AccessLogEntry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "time=%s level=%s msg=request hostname=%s instance=%s",
		e.Time.UTC().Format(time.RFC3339Nano), e.Level(), e.Hostname, e.Instance)
	fmt.Fprintf(&b, " method=%s path=%q status=%d duration_ms=%d client_ip=%s",
		e.Method, e.Path, e.Status, e.DurationMS(), e.ClientIP)
	if e.RequestID != "" {
		fmt.Fprintf(&b, " request_id=%s", e.RequestID)
	}
	return b.String()
}

// Logger returns a middleware writing one access record per request through
// log, without identity attributes.
func Logger(log *slog.Logger) gin.HandlerFunc {
	return LoggerWithConfig(log, LoggerConfig{})
}

// LoggerWithConfig returns a middleware writing one access record per
// completed request. Duration is measured from entry into this middleware, so
// it should be installed first.
//
// Records go through log's handler directly. If the handler reports an error
// the record is written as text to cfg.Fallback, so a broken sink never fails
// the request.
func LoggerWithConfig(log *slog.Logger, cfg LoggerConfig) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Fallback == nil {
		cfg.Fallback = os.Stderr
	}
	if cfg.Hostname != "" || cfg.Instance != "" {
		log = log.With(slog.String("hostname", cfg.Hostname), slog.String("instance", cfg.Instance))
	}
	handler := log.Handler()

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.RequestURI
		if path == "" {
			path = c.Request.URL.RequestURI()
		}
		entry := AccessLogEntry{
			Time:      time.Now(),
			Hostname:  cfg.Hostname,
			Instance:  cfg.Instance,
			Method:    c.Request.Method,
			Path:      path,
			Status:    c.Writer.Status(),
			Duration:  time.Since(start),
			ClientIP:  c.ClientIP(),
			RequestID: GetRequestID(c),
		}
		writeAccessLog(c.Request.Context(), handler, cfg.Fallback, entry)
	}
}

func writeAccessLog(ctx context.Context, h slog.Handler, fallback io.Writer, e AccessLogEntry) {
	level := e.Level()
	if !h.Enabled(ctx, level) {
		return
	}
	r := slog.NewRecord(e.Time, level, "request", 0)
	r.AddAttrs(e.attrs()...)
	if err := h.Handle(ctx, r); err != nil {
		fmt.Fprintln(fallback, e.String())
	}
}
