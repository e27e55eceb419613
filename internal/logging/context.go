package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type ctxKey int

const (
	iterationIDKey ctxKey = iota
	loggerKey
)

// EnsureIterationID returns ctx with an iteration id, generating one when
// ctx does not carry one yet.
func EnsureIterationID(ctx context.Context) (context.Context, string) {
	if ctx == nil {
		ctx = context.Background()
	}
	if id := IterationIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := newIterationID()
	return context.WithValue(ctx, iterationIDKey, id), id
}

func IterationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(iterationIDKey).(string)
	return id
}

// WithIterationLogger tags base with the iteration id of ctx and stores the
// result on the returned context, so renderers pick it up via FromContext.
func WithIterationLogger(ctx context.Context, base Logger) (context.Context, Logger) {
	if base == nil {
		base = Noop()
	}
	ctx, id := EnsureIterationID(ctx)
	l := base.With(String("iteration_id", id))
	return ContextWithLogger(ctx, l), l
}

func ContextWithLogger(ctx context.Context, l Logger) context.Context {
	if l == nil {
		l = Noop()
	}
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored on ctx, or fallback when none is set.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(Logger); ok {
			return l
		}
	}
	if fallback == nil {
		return Noop()
	}
	return fallback
}

func newIterationID() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}
