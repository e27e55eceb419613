package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.With(String("source", "open-notify")).Info(context.Background(), "speed estimated",
		Float64("speed_kmh", 27600.5),
		Duration("elapsed", 15*time.Second),
		Err(errors.New("boom")),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "speed estimated" {
		t.Fatalf("msg = %v", rec["msg"])
	}
	if rec["source"] != "open-notify" {
		t.Fatalf("source = %v", rec["source"])
	}
	if rec["speed_kmh"] != 27600.5 {
		t.Fatalf("speed_kmh = %v", rec["speed_kmh"])
	}
	if rec["error"] != "boom" {
		t.Fatalf("error = %v", rec["error"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "text", Output: &buf})

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestWithIterationLoggerStoresIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	ctx, log := WithIterationLogger(context.Background(), base)
	id := IterationIDFromContext(ctx)
	if id == "" {
		t.Fatalf("expected iteration_id on context")
	}

	again, sameID := EnsureIterationID(ctx)
	if sameID != id || IterationIDFromContext(again) != id {
		t.Fatalf("EnsureIterationID replaced existing id %q with %q", id, sameID)
	}

	FromContext(ctx, nil).Info(ctx, "hello")
	if !strings.Contains(buf.String(), id) {
		t.Fatalf("logger from context did not carry iteration_id: %q", buf.String())
	}
	if log == nil {
		t.Fatalf("WithIterationLogger returned nil logger")
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if _, ok := FromContext(context.Background(), nil).(noopLogger); !ok {
		t.Fatalf("expected noop logger when none is set")
	}
	fallback := Noop()
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Fatalf("expected fallback logger")
	}
}

func TestRecordsCarrySpanIDs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Output: &buf})

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36},
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.With(String("component", "tracker")).Info(ctx, "ground speed estimated")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["trace_id"] != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("trace_id = %v", rec["trace_id"])
	}
	if rec["span_id"] != "00f067aa0ba902b7" {
		t.Fatalf("span_id = %v", rec["span_id"])
	}
	if rec["component"] != "tracker" {
		t.Fatalf("component = %v", rec["component"])
	}

	buf.Reset()
	log.Info(context.Background(), "no span")
	if strings.Contains(buf.String(), "trace_id") {
		t.Fatalf("record without a span carries trace_id: %q", buf.String())
	}
}
