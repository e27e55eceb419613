package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// SuccessMessage is the marker the position service sets on usable payloads.
const SuccessMessage = "success"

// RawPosition is the payload returned by the position service. Coordinates
// arrive as decimal strings.
type RawPosition struct {
	ISSPosition *RawCoordinates `json:"iss_position"`
	Message     string          `json:"message"`
	Timestamp   *int64          `json:"timestamp"`
}

// RawCoordinates holds the string-encoded latitude and longitude.
type RawCoordinates struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Position is a validated, timestamped sample of the station's sub-point.
// Timestamp is in seconds since the Unix epoch.
type Position struct {
	Timestamp int64   `json:"timestamp"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewPosition constructs a Position after range-checking the coordinates.
func NewPosition(timestamp int64, latitude, longitude float64) (Position, error) {
	if err := checkCoordinates(latitude, longitude); err != nil {
		return Position{}, err
	}
	return Position{Timestamp: timestamp, Latitude: latitude, Longitude: longitude}, nil
}

// LatLon returns the coordinate pair of p.
func (p Position) LatLon() LatLon {
	return LatLon{Latitude: p.Latitude, Longitude: p.Longitude}
}

// Time returns the sample time in UTC.
func (p Position) Time() time.Time {
	return time.Unix(p.Timestamp, 0).UTC()
}

// Normalize validates raw and converts it into a Position. A payload whose
// message is not SuccessMessage yields a *RemoteServiceError; missing or
// unparsable fields yield an error wrapping ErrMalformedPayload.
func Normalize(raw RawPosition) (Position, error) {
	if raw.Message != SuccessMessage {
		return Position{}, &RemoteServiceError{Message: raw.Message}
	}
	if raw.ISSPosition == nil {
		return Position{}, fmt.Errorf("%w: iss_position is required", ErrMalformedPayload)
	}
	if raw.Timestamp == nil {
		return Position{}, fmt.Errorf("%w: timestamp is required", ErrMalformedPayload)
	}

	lat, err := parseDegrees("latitude", raw.ISSPosition.Latitude)
	if err != nil {
		return Position{}, err
	}
	lon, err := parseDegrees("longitude", raw.ISSPosition.Longitude)
	if err != nil {
		return Position{}, err
	}

	pos, err := NewPosition(*raw.Timestamp, lat, lon)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return pos, nil
}

func parseDegrees(field, value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: %s is required", ErrMalformedPayload, field)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrMalformedPayload, field, value)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s %q is not finite", ErrMalformedPayload, field, value)
	}
	return v, nil
}

func checkCoordinates(latitude, longitude float64) error {
	// NaN fails both range checks.
	if !(latitude >= -90 && latitude <= 90) {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidCoordinate, latitude)
	}
	if !(longitude >= -180 && longitude <= 180) {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidCoordinate, longitude)
	}
	return nil
}
