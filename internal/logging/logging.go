// Package logging builds the process-wide zerolog logger and bridges it
// to log/slog. Request-scoped fields (request id, subject, query id)
// travel via context.Context.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	ctxRequestID ctxKey = "request_id"
	ctxSubject   ctxKey = "subject"
	ctxQueryID   ctxKey = "query_id"
)

// Config controls the base logger built by Build.
type Config struct {
	Level   string
	Console bool
}

// NewID mints a short random id for request-scoped logging.
func NewID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Build constructs the process-wide logger.
func Build(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "timestamp"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "msg"

	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Level)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return zerolog.New(out).With().Timestamp().Str("component", "finder").Logger()
}

var background = zerolog.New(os.Stdout).With().Timestamp().Str("component", "finder").Logger()

// SetBackground installs the process-wide logger used by FromBackground,
// called once during startup after Build.
func SetBackground(l zerolog.Logger) {
	background = l
}

// FromBackground returns the process-wide logger for call sites with no
// request context (bus connection setup, startup).
func FromBackground() *zerolog.Logger {
	return &background
}

func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewID()
	}
	return context.WithValue(ctx, ctxRequestID, id)
}

func WithSubject(ctx context.Context, subject string) context.Context {
	if subject == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxSubject, subject)
}

func WithQueryID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxQueryID, id)
}

// FromContext returns a child of parent with the request-scoped fields
// found on ctx attached.
func FromContext(ctx context.Context, parent *zerolog.Logger) *zerolog.Logger {
	var base zerolog.Logger
	if parent == nil {
		base = zerolog.New(io.Discard)
	} else {
		base = *parent
	}
	w := base.With()
	if v, ok := ctx.Value(ctxRequestID).(string); ok && v != "" {
		w = w.Str("request_id", v)
	}
	if v, ok := ctx.Value(ctxSubject).(string); ok && v != "" {
		w = w.Str("subject", v)
	}
	if v, ok := ctx.Value(ctxQueryID).(string); ok && v != "" {
		w = w.Str("query_id", v)
	}
	l := w.Logger()
	return &l
}
