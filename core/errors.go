package core

import (
	"errors"
	"fmt"
)

var (
	ErrRemoteService      = errors.New("remote service error")
	ErrDegenerateInterval = errors.New("degenerate sampling interval")
	ErrMalformedPayload   = errors.New("malformed position payload")
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
)

// RemoteServiceError reports that the upstream position service did not
// return usable data, either through a non-200 status or a failure marker.
type RemoteServiceError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *RemoteServiceError) Error() string {
	switch {
	case e.StatusCode != 0 && e.URL != "":
		return fmt.Sprintf("remote service %s returned status %d", e.URL, e.StatusCode)
	case e.StatusCode != 0:
		return fmt.Sprintf("remote service returned status %d", e.StatusCode)
	default:
		return fmt.Sprintf("remote service reported %q", e.Message)
	}
}

func (e *RemoteServiceError) Unwrap() error { return ErrRemoteService }

// DegenerateIntervalError is returned when two samples share a timestamp and
// no speed can be derived from them.
type DegenerateIntervalError struct {
	Timestamp int64
}

func (e *DegenerateIntervalError) Error() string {
	return fmt.Sprintf("both samples taken at timestamp %d", e.Timestamp)
}

func (e *DegenerateIntervalError) Unwrap() error { return ErrDegenerateInterval }
