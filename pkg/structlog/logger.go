// Package structlog provides leveled, structured JSON logging with
// correlation-ID propagation through context.
package structlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Fields carries structured log fields.
type Fields map[string]any

type ctxKeyCorrID struct{}

// Logger emits one JSON object per line.
type Logger struct {
	service string
	level   Level
	mu      sync.Mutex
	out     io.Writer
	base    Fields
}

// maskedFields are never logged verbatim.
var maskedFields = []string{"password", "secret", "token", "apikey", "authorization", "phone", "email"}

// New creates a logger for a service. A nil output defaults to stdout.
func New(service string, level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}
	return &Logger{service: service, level: level, out: out, base: Fields{}}
}

// With returns a logger carrying additional base fields.
func (l *Logger) With(fields Fields) *Logger {
	nl := &Logger{service: l.service, level: l.level, out: l.out, base: make(Fields, len(l.base)+len(fields))}
	for k, v := range l.base {
		nl.base[k] = v
	}
	for k, v := range fields {
		nl.base[k] = v
	}
	return nl
}

// WithContext attaches the correlation ID from ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := CorrelationID(ctx); id != "" {
		return l.With(Fields{"correlation_id": id})
	}
	return l
}

func (l *Logger) Debug(msg string, fields Fields) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields Fields)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields Fields)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields Fields) { l.log(LevelError, msg, fields) }

// Audit emits an audit-trail line at info level with an audit marker.
func (l *Logger) Audit(action string, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}
	fields["event_type"] = "audit"
	fields["audit_action"] = action
	l.log(LevelInfo, fmt.Sprintf("AUDIT: %s", action), fields)
}

func (l *Logger) log(level Level, msg string, fields Fields) {
	if level < l.level {
		return
	}
	row := make(Fields, len(l.base)+len(fields)+4)
	for k, v := range l.base {
		row[k] = v
	}
	for k, v := range fields {
		row[k] = v
	}
	for k := range row {
		lk := strings.ToLower(k)
		for _, m := range maskedFields {
			if strings.Contains(lk, m) {
				row[k] = "MASKED"
				break
			}
		}
	}
	row["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	row["level"] = level.String()
	row["service"] = l.service
	row["message"] = msg

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := json.NewEncoder(l.out).Encode(row); err != nil {
		fmt.Fprintf(os.Stderr, "structlog: encode failed: %v\n", err)
	}
}

// NewCorrelationID returns a fresh request correlation ID.
func NewCorrelationID() string { return uuid.New().String() }

// WithCorrelationID stores a correlation ID in ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrID{}, id)
}

// CorrelationID extracts the correlation ID from ctx, or "".
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKeyCorrID{}).(string); ok {
		return id
	}
	return ""
}
