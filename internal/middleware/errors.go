package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	errorResponseText = "Something went wrong!"
	redactedMessage   = "Internal server error"
)

// ErrorHandlerConfig controls how much of a failure is disclosed.
type ErrorHandlerConfig struct {
	// Verbose exposes the error message in the response and the message and
	// stack in the log. Enable only in development.
	Verbose  bool
	Hostname string
	Instance string
}

// ErrorLogEntry is the record written for a failed request.
type ErrorLogEntry struct {
	Time     time.Time
	Hostname string
	Instance string
	Method   string
	Path     string
	Message  string
	Stack    string
}

// LogValue implements slog.LogValuer.
func (e ErrorLogEntry) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("hostname", e.Hostname),
		slog.String("instance", e.Instance),
		slog.String("method", e.Method),
		slog.String("path", e.Path),
		slog.String("message", e.Message),
	}
	if e.Stack != "" {
		attrs = append(attrs, slog.String("stack", e.Stack))
	}
	return slog.GroupValue(attrs...)
}

// ErrorHandler returns the last stage of the global chain. It recovers panics
// and handles errors that handlers attached with c.Error without writing a
// response. Both are logged and answered with
//
//	500 {"error":"Something went wrong!","message":"..."}
//
// Outside verbose mode the message is always "Internal server error".
// If the handler already wrote a response, only the log record is produced.
func ErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if r == http.ErrAbortHandler {
				panic(r)
			}
			handleFailure(c, log, cfg, panicError(r), debug.Stack())
		}()

		c.Next()

		if err := c.Errors.ByType(gin.ErrorTypePrivate).Last(); err != nil {
			handleFailure(c, log, cfg, err.Err, nil)
		}
	}
}

func handleFailure(c *gin.Context, log *slog.Logger, cfg ErrorHandlerConfig, err error, stack []byte) {
	entry := ErrorLogEntry{
		Time:     time.Now(),
		Hostname: cfg.Hostname,
		Instance: cfg.Instance,
		Method:   c.Request.Method,
		Path:     c.Request.URL.RequestURI(),
		Message:  redactedMessage,
	}
	if cfg.Verbose {
		entry.Message = err.Error()
		entry.Stack = string(stack)
	}
	log.LogAttrs(c.Request.Context(), slog.LevelError, "request failed", entry.LogValue().Group()...)

	if c.Writer.Written() {
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":   errorResponseText,
		"message": entry.Message,
	})
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.New(fmt.Sprint(r))
}
