package core

import (
	"math"
	"time"
)

// Estimate is the result of comparing two position samples.
type Estimate struct {
	DistanceKm float64
	Elapsed    time.Duration
	SpeedKmh   float64
}

// GroundSpeed returns the ground-relative speed in km/h implied by two
// samples. Argument order does not matter.
func GroundSpeed(p1, p2 Position) (float64, error) {
	est, err := EstimateSpeed(p1, p2)
	if err != nil {
		return 0, err
	}
	return est.SpeedKmh, nil
}

// EstimateSpeed computes the great-circle distance, the absolute time
// between the samples, and the resulting speed. Samples sharing a timestamp
// are rejected with a *DegenerateIntervalError.
func EstimateSpeed(p1, p2 Position) (Estimate, error) {
	secs := elapsedSeconds(p1.Timestamp, p2.Timestamp)
	if secs == 0 {
		return Estimate{}, &DegenerateIntervalError{Timestamp: p1.Timestamp}
	}

	dist := Distance(p1.LatLon(), p2.LatLon())
	return Estimate{
		DistanceKm: dist,
		Elapsed:    secondsToDuration(secs),
		SpeedKmh:   dist / float64(secs) * 3600,
	}, nil
}

// elapsedSeconds returns |b - a| without overflowing at the int64 extremes.
func elapsedSeconds(a, b int64) uint64 {
	if b >= a {
		return uint64(b) - uint64(a)
	}
	return uint64(a) - uint64(b)
}

func secondsToDuration(secs uint64) time.Duration {
	if secs > uint64(math.MaxInt64/int64(time.Second)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(secs) * time.Second
}
