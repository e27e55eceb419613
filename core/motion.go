package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// ErrInvalidTLE is returned when a two-line element set fails validation.
var ErrInvalidTLE = errors.New("invalid TLE")

// ISS TLE lines, epoch 2008-09-20T12:25:40Z. Propagation accuracy degrades quickly
// away from the epoch, so callers tracking the live station should supply a
// fresh element set.
const (
	ISSTLELine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	ISSTLELine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

const tleLineLength = 69

// OrbitalSource predicts the station's sub-satellite point with SGP4. It
// yields the same RawPosition shape as the position service so it can stand
// in for it when running offline.
type OrbitalSource struct {
	sat satellite.Satellite
	now func() time.Time
}

// NewOrbitalSource validates the TLE lines and constructs an SGP4 source.
// now supplies the propagation time; nil means time.Now.
func NewOrbitalSource(line1, line2 string, now func() time.Time) (*OrbitalSource, error) {
	if err := ValidateTLE(line1, line2); err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &OrbitalSource{
		sat: satellite.TLEToSat(line1, line2, satellite.GravityWGS72),
		now: now,
	}, nil
}

// SubPoint propagates the satellite to t and returns its geodetic
// sub-satellite point and altitude in kilometres.
func (s *OrbitalSource) SubPoint(t time.Time) (LatLon, float64, error) {
	t = t.UTC()
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	posECI, _ := satellite.Propagate(s.sat, year, int(month), day, hour, minute, sec)
	if math.IsNaN(posECI.X) || (posECI.X == 0 && posECI.Y == 0 && posECI.Z == 0) {
		return LatLon{}, 0, fmt.Errorf("sgp4 propagation failed at %s", t.Format(time.RFC3339))
	}
	gmst := satellite.ThetaG_JD(satellite.JDay(year, int(month), day, hour, minute, sec))
	altitude, _, lla := satellite.ECIToLLA(posECI, gmst)

	return LatLon{
		Latitude:  degrees(lla.Latitude),
		Longitude: wrapLongitude(degrees(lla.Longitude)),
	}, altitude, nil
}

// Fetch returns the predicted position at the current time as a successful
// RawPosition.
func (s *OrbitalSource) Fetch(ctx context.Context) (RawPosition, error) {
	if err := ctx.Err(); err != nil {
		return RawPosition{}, err
	}
	t := s.now().UTC().Truncate(time.Second)
	ll, _, err := s.SubPoint(t)
	if err != nil {
		return RawPosition{}, err
	}
	ts := t.Unix()
	return RawPosition{
		ISSPosition: &RawCoordinates{
			Latitude:  strconv.FormatFloat(ll.Latitude, 'f', 4, 64),
			Longitude: strconv.FormatFloat(ll.Longitude, 'f', 4, 64),
		},
		Message:   SuccessMessage,
		Timestamp: &ts,
	}, nil
}

// ValidateTLE checks line shape and checksums. go-satellite aborts the
// process on unparsable input, so lines must be checked before use.
func ValidateTLE(line1, line2 string) error {
	for i, line := range []string{line1, line2} {
		n := i + 1
		if len(line) != tleLineLength {
			return fmt.Errorf("%w: line %d has %d characters, want %d", ErrInvalidTLE, n, len(line), tleLineLength)
		}
		if !strings.HasPrefix(line, strconv.Itoa(n)+" ") {
			return fmt.Errorf("%w: line %d must start with %q", ErrInvalidTLE, n, strconv.Itoa(n)+" ")
		}
		want := int(line[tleLineLength-1] - '0')
		if got := tleChecksum(line[:tleLineLength-1]); got != want {
			return fmt.Errorf("%w: line %d checksum %d, want %d", ErrInvalidTLE, n, got, want)
		}
	}
	if line1[2:7] != line2[2:7] {
		return fmt.Errorf("%w: catalog numbers %q and %q differ", ErrInvalidTLE, line1[2:7], line2[2:7])
	}
	return nil
}

func tleChecksum(s string) int {
	sum := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			sum += int(r - '0')
		case r == '-':
			sum++
		}
	}
	return sum % 10
}

func wrapLongitude(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
