// Package render draws or publishes the accumulated trajectory.
package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/signalsfoundry/iss-tracker/internal/logging"
	"github.com/signalsfoundry/iss-tracker/internal/trajectory"
)

// Renderer consumes a trajectory snapshot after every loop iteration.
type Renderer interface {
	Render(ctx context.Context, snap trajectory.Snapshot) error
}

// Func adapts a function to Renderer.
type Func func(ctx context.Context, snap trajectory.Snapshot) error

func (f Func) Render(ctx context.Context, snap trajectory.Snapshot) error { return f(ctx, snap) }

// Multi renders to every element in order. All renderers run even if one
// fails; the failures are joined.
type Multi []Renderer

func (m Multi) Render(ctx context.Context, snap trajectory.Snapshot) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Render(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ErrorRecorder counts renderer failures.
type ErrorRecorder interface {
	ObserveRenderError(renderer string)
}

// BestEffort wraps a renderer whose failures are logged and counted instead
// of halting the loop. Used for network sinks.
type BestEffort struct {
	Name     string
	Renderer Renderer
	Log      logging.Logger
	Recorder ErrorRecorder
}

func (b BestEffort) Render(ctx context.Context, snap trajectory.Snapshot) error {
	if b.Renderer == nil {
		return nil
	}
	if err := b.Renderer.Render(ctx, snap); err != nil {
		logging.FromContext(ctx, b.Log).Warn(ctx, "render failed",
			logging.String("renderer", b.Name),
			logging.Err(err),
		)
		if b.Recorder != nil {
			b.Recorder.ObserveRenderError(b.Name)
		}
	}
	return nil
}

func latestSegment(snap trajectory.Snapshot) (trajectory.Segment, error) {
	seg, ok := snap.Latest()
	if !ok {
		return trajectory.Segment{}, fmt.Errorf("render: trajectory is empty")
	}
	return seg, nil
}
