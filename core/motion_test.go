package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

// Close to the element set epoch, where SGP4 is accurate.
var tleEpoch = time.Date(2008, time.September, 20, 12, 25, 40, 0, time.UTC)

func TestValidateTLE(t *testing.T) {
	if err := ValidateTLE(ISSTLELine1, ISSTLELine2); err != nil {
		t.Fatalf("ValidateTLE(ISS) = %v", err)
	}

	tests := []struct {
		name         string
		line1, line2 string
	}{
		{"short line", ISSTLELine1[:60], ISSTLELine2},
		{"swapped lines", ISSTLELine2, ISSTLELine1},
		{"bad checksum", ISSTLELine1[:68] + "0", ISSTLELine2},
		{"catalog mismatch", ISSTLELine1, "2 25545" + ISSTLELine2[7:68] + "8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateTLE(tt.line1, tt.line2); !errors.Is(err, ErrInvalidTLE) {
				t.Fatalf("ValidateTLE error = %v, want ErrInvalidTLE", err)
			}
		})
	}
}

func TestOrbitalSource_SubPointInRange(t *testing.T) {
	src, err := NewOrbitalSource(ISSTLELine1, ISSTLELine2, nil)
	if err != nil {
		t.Fatalf("NewOrbitalSource: %v", err)
	}

	for i := 0; i < 12; i++ {
		at := tleEpoch.Add(time.Duration(i) * 10 * time.Minute)
		ll, alt, err := src.SubPoint(at)
		if err != nil {
			t.Fatalf("SubPoint(%v): %v", at, err)
		}
		if ll.Latitude < -52 || ll.Latitude > 52 {
			t.Fatalf("latitude %v exceeds the orbit's inclination", ll.Latitude)
		}
		if ll.Longitude < -180 || ll.Longitude > 180 {
			t.Fatalf("longitude %v out of range", ll.Longitude)
		}
		if alt < 300 || alt > 450 {
			t.Fatalf("altitude %v km is not a low earth orbit", alt)
		}
	}
}

// Two predicted fixes fifteen seconds apart should imply the ground speed the
// live tracker reports for the station.
func TestOrbitalSource_GroundSpeedPlausible(t *testing.T) {
	now := tleEpoch
	src, err := NewOrbitalSource(ISSTLELine1, ISSTLELine2, func() time.Time { return now })
	if err != nil {
		t.Fatalf("NewOrbitalSource: %v", err)
	}

	ctx := context.Background()
	raw1, err := src.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	now = now.Add(15 * time.Second)
	raw2, err := src.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	p1, err := Normalize(raw1)
	if err != nil {
		t.Fatalf("Normalize first fix: %v", err)
	}
	p2, err := Normalize(raw2)
	if err != nil {
		t.Fatalf("Normalize second fix: %v", err)
	}
	if p2.Timestamp-p1.Timestamp != 15 {
		t.Fatalf("timestamps %d and %d are not 15 s apart", p1.Timestamp, p2.Timestamp)
	}

	speed, err := GroundSpeed(p1, p2)
	if err != nil {
		t.Fatalf("GroundSpeed: %v", err)
	}
	if speed < 20000 || speed > 30000 {
		t.Fatalf("ground speed %.2f km/h outside 20000-30000", speed)
	}
}

func TestOrbitalSource_FetchHonoursCancellation(t *testing.T) {
	src, err := NewOrbitalSource(ISSTLELine1, ISSTLELine2, func() time.Time { return tleEpoch })
	if err != nil {
		t.Fatalf("NewOrbitalSource: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Fetch(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Fetch error = %v, want context.Canceled", err)
	}
}

func TestNewOrbitalSource_RejectsBadTLE(t *testing.T) {
	if _, err := NewOrbitalSource("1 bogus", ISSTLELine2, nil); !errors.Is(err, ErrInvalidTLE) {
		t.Fatalf("NewOrbitalSource error = %v, want ErrInvalidTLE", err)
	}
}
