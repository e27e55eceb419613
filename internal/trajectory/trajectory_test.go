package trajectory

import (
	"testing"
	"time"

	"github.com/signalsfoundry/iss-tracker/core"
)

func segment(t *testing.T, ts int64, lat, lon float64) Segment {
	t.Helper()
	from := core.Position{Timestamp: ts, Latitude: lat, Longitude: lon}
	to := core.Position{Timestamp: ts + 15, Latitude: lat + 0.6, Longitude: lon + 0.9}
	est, err := core.EstimateSpeed(from, to)
	if err != nil {
		t.Fatalf("EstimateSpeed: %v", err)
	}
	return NewSegment(from, to, est, time.Unix(ts+15, 0))
}

func TestAppendAndSnapshot(t *testing.T) {
	tr := New(0)
	tr.Append(segment(t, 100, 10, 20))
	tr.Append(segment(t, 200, -5, 170))

	snap := tr.Snapshot()
	if len(snap.Segments) != 2 || tr.Len() != 2 {
		t.Fatalf("snapshot has %d segments, want 2", len(snap.Segments))
	}
	if snap.PointCount() != 4 {
		t.Fatalf("PointCount = %d, want 4", snap.PointCount())
	}

	markers := snap.Markers()
	if len(markers) != 4 {
		t.Fatalf("Markers len = %d, want 4", len(markers))
	}
	if markers[0].Latitude != 10 || markers[0].Longitude != 20 {
		t.Fatalf("first marker = %+v, want lat 10 lon 20", markers[0])
	}
	if markers[1].Label != markers[0].Label || markers[2].Label != snap.Segments[1].Label {
		t.Fatalf("markers not labelled by their segment: %+v", markers)
	}

	latest, ok := snap.Latest()
	if !ok || latest.From.Timestamp != 200 {
		t.Fatalf("Latest = %+v, %v", latest, ok)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	tr := New(0)
	tr.Append(segment(t, 100, 10, 20))
	snap := tr.Snapshot()

	tr.Append(segment(t, 200, 11, 21))
	if len(snap.Segments) != 1 {
		t.Fatalf("snapshot changed after Append: %d segments", len(snap.Segments))
	}
	snap.Segments[0].Label = "mutated"
	if tr.Snapshot().Segments[0].Label == "mutated" {
		t.Fatalf("mutating a snapshot leaked into the trajectory")
	}
}

func TestMaxSegmentsDropsOldest(t *testing.T) {
	tr := New(2)
	for i := int64(0); i < 5; i++ {
		tr.Append(segment(t, 100*i+1, 0, 0))
	}
	snap := tr.Snapshot()
	if len(snap.Segments) != 2 {
		t.Fatalf("kept %d segments, want 2", len(snap.Segments))
	}
	if snap.Segments[0].From.Timestamp != 301 || snap.Segments[1].From.Timestamp != 401 {
		t.Fatalf("kept wrong segments: %+v", snap.Segments)
	}
}

func TestSpeedLabel(t *testing.T) {
	if got := SpeedLabel(25750.036451600303); got != "speed=25750.04" {
		t.Fatalf("SpeedLabel = %q", got)
	}
}

func TestEmptySnapshot(t *testing.T) {
	snap := New(0).Snapshot()
	if _, ok := snap.Latest(); ok {
		t.Fatalf("Latest on empty snapshot reported ok")
	}
	if len(snap.Markers()) != 0 || len(snap.Labels()) != 0 {
		t.Fatalf("empty snapshot produced markers or labels")
	}
}
