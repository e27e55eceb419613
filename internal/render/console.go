package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/signalsfoundry/iss-tracker/internal/trajectory"
)

// ConsoleLayout matches the C locale's %c representation.
const ConsoleLayout = time.ANSIC

// Console prints one human-readable line per iteration with the latest speed,
// stamped with the local time the speed was computed.
type Console struct {
	w   io.Writer
	loc *time.Location
}

// NewConsole writes to w (os.Stdout when nil) using local time.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w, loc: time.Local}
}

// WithLocation overrides the time zone used for stamps.
func (c *Console) WithLocation(loc *time.Location) *Console {
	if loc != nil {
		c.loc = loc
	}
	return c
}

// Banner prints the start-up line.
func (c *Console) Banner(now time.Time) error {
	_, err := fmt.Fprintf(c.w, "[%s] Retrieving ISS geographic coordinate...\n", now.In(c.loc).Format(ConsoleLayout))
	return err
}

func (c *Console) Render(_ context.Context, snap trajectory.Snapshot) error {
	seg, err := latestSegment(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.w, "[%s] ISS speed relative to Earth's surface: %.2fkm/h\n",
		seg.ComputedAt.In(c.loc).Format(ConsoleLayout), seg.SpeedKmh)
	return err
}
