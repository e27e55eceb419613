package render

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/iss-tracker/core"
	"github.com/signalsfoundry/iss-tracker/internal/logging"
	"github.com/signalsfoundry/iss-tracker/internal/trajectory"
)

var computedAt = time.Date(2022, time.January, 27, 22, 35, 57, 0, time.UTC)

func sampleSnapshot(t *testing.T) trajectory.Snapshot {
	t.Helper()
	p1 := core.Position{Timestamp: 1643322942, Latitude: 37.1165, Longitude: -118.179}
	p2 := core.Position{Timestamp: 1643322957, Latitude: 37.7436, Longitude: -117.2545}
	est, err := core.EstimateSpeed(p1, p2)
	if err != nil {
		t.Fatalf("EstimateSpeed: %v", err)
	}
	tr := trajectory.New(0)
	tr.Append(trajectory.NewSegment(p1, p2, est, computedAt))
	return tr.Snapshot()
}

func TestConsoleWritesSpeedLine(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf).WithLocation(time.UTC)

	if err := c.Render(context.Background(), sampleSnapshot(t)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "[Thu Jan 27 22:35:57 2022] ISS speed relative to Earth's surface: 25750.04km/h\n"
	if got := buf.String(); got != want {
		t.Fatalf("console line = %q, want %q", got, want)
	}
}

func TestConsoleBanner(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf).WithLocation(time.UTC)
	if err := c.Banner(computedAt); err != nil {
		t.Fatalf("Banner: %v", err)
	}
	if got := buf.String(); got != "[Thu Jan 27 22:35:57 2022] Retrieving ISS geographic coordinate...\n" {
		t.Fatalf("banner = %q", got)
	}
}

func TestConsoleRejectsEmptySnapshot(t *testing.T) {
	if err := NewConsole(&bytes.Buffer{}).Render(context.Background(), trajectory.Snapshot{}); err == nil {
		t.Fatalf("expected error for empty snapshot")
	}
}

func TestHTMLMapWritesMarkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iss.html")
	h := NewHTMLMap(path)

	if err := h.Render(context.Background(), sampleSnapshot(t)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read map: %v", err)
	}
	page := string(data)
	for _, want := range []string{"37.1165", "-118.179", "37.7436", "-117.2545", "speed=25750.04", "leaflet"} {
		if !strings.Contains(page, want) {
			t.Fatalf("map page missing %q", want)
		}
	}
	if strings.Contains(page, "new WebSocket") {
		t.Fatalf("static map should not open a websocket")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestHTMLMapFailsForMissingDirectory(t *testing.T) {
	h := NewHTMLMap(filepath.Join(t.TempDir(), "missing", "iss.html"))
	if err := h.Render(context.Background(), sampleSnapshot(t)); err == nil {
		t.Fatalf("expected error writing into a missing directory")
	}
}

type countingRecorder struct{ names []string }

func (c *countingRecorder) ObserveRenderError(name string) { c.names = append(c.names, name) }

func TestMultiJoinsErrorsAndRunsAll(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	calls := 0
	m := Multi{
		Func(func(context.Context, trajectory.Snapshot) error { calls++; return errA }),
		nil,
		Func(func(context.Context, trajectory.Snapshot) error { calls++; return nil }),
		Func(func(context.Context, trajectory.Snapshot) error { calls++; return errB }),
	}

	err := m.Render(context.Background(), trajectory.Snapshot{})
	if calls != 3 {
		t.Fatalf("ran %d renderers, want 3", calls)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("Multi error = %v, want both failures", err)
	}
}

func TestBestEffortSwallowsAndCounts(t *testing.T) {
	rec := &countingRecorder{}
	b := BestEffort{
		Name:     "mqtt",
		Renderer: Func(func(context.Context, trajectory.Snapshot) error { return errors.New("broker down") }),
		Log:      logging.Noop(),
		Recorder: rec,
	}
	if err := b.Render(context.Background(), trajectory.Snapshot{}); err != nil {
		t.Fatalf("BestEffort returned %v, want nil", err)
	}
	if len(rec.names) != 1 || rec.names[0] != "mqtt" {
		t.Fatalf("recorded %v, want [mqtt]", rec.names)
	}
}
