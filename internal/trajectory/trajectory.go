// Package trajectory accumulates the sampled ground track for rendering.
package trajectory

import (
	"fmt"
	"time"

	"github.com/signalsfoundry/iss-tracker/core"
)

// Segment is one loop iteration: two samples and the speed between them.
type Segment struct {
	From       core.Position `json:"from"`
	To         core.Position `json:"to"`
	DistanceKm float64       `json:"distance_km"`
	SpeedKmh   float64       `json:"speed_kmh"`
	Label      string        `json:"label"`
	ComputedAt time.Time     `json:"computed_at"`
}

// Marker is a single plotted point.
type Marker struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Timestamp int64   `json:"timestamp"`
	Label     string  `json:"label"`
}

// NewSegment builds a Segment from a speed estimate.
func NewSegment(from, to core.Position, est core.Estimate, computedAt time.Time) Segment {
	return Segment{
		From:       from,
		To:         to,
		DistanceKm: est.DistanceKm,
		SpeedKmh:   est.SpeedKmh,
		Label:      SpeedLabel(est.SpeedKmh),
		ComputedAt: computedAt,
	}
}

// SpeedLabel formats a speed as marker text.
func SpeedLabel(speedKmh float64) string {
	return fmt.Sprintf("speed=%.2f", speedKmh)
}

// Trajectory is an append-only list of segments owned by the poll loop. It is
// not safe for concurrent use; renderers receive immutable Snapshots.
type Trajectory struct {
	segments    []Segment
	maxSegments int
}

// New returns an empty Trajectory keeping at most maxSegments segments
// (oldest dropped first). Zero keeps everything.
func New(maxSegments int) *Trajectory {
	if maxSegments < 0 {
		maxSegments = 0
	}
	return &Trajectory{maxSegments: maxSegments}
}

// Append records a segment.
func (t *Trajectory) Append(seg Segment) {
	t.segments = append(t.segments, seg)
	if t.maxSegments > 0 && len(t.segments) > t.maxSegments {
		drop := len(t.segments) - t.maxSegments
		t.segments = append(t.segments[:0:0], t.segments[drop:]...)
	}
}

// Len returns the number of recorded segments.
func (t *Trajectory) Len() int { return len(t.segments) }

// Snapshot returns a copy of the current state.
func (t *Trajectory) Snapshot() Snapshot {
	segs := make([]Segment, len(t.segments))
	copy(segs, t.segments)
	return Snapshot{Segments: segs}
}

// Snapshot is a point-in-time copy of a Trajectory.
type Snapshot struct {
	Segments []Segment `json:"segments"`
}

// Latest returns the most recent segment.
func (s Snapshot) Latest() (Segment, bool) {
	if len(s.Segments) == 0 {
		return Segment{}, false
	}
	return s.Segments[len(s.Segments)-1], true
}

// Markers flattens the segments into plotted points, two per segment, each
// labelled with its segment's speed.
func (s Snapshot) Markers() []Marker {
	out := make([]Marker, 0, 2*len(s.Segments))
	for _, seg := range s.Segments {
		for _, p := range []core.Position{seg.From, seg.To} {
			out = append(out, Marker{
				Latitude:  p.Latitude,
				Longitude: p.Longitude,
				Timestamp: p.Timestamp,
				Label:     seg.Label,
			})
		}
	}
	return out
}

// Labels returns the speed label of every segment in order.
func (s Snapshot) Labels() []string {
	out := make([]string, len(s.Segments))
	for i, seg := range s.Segments {
		out[i] = seg.Label
	}
	return out
}

// PointCount is the number of plotted points.
func (s Snapshot) PointCount() int { return 2 * len(s.Segments) }
