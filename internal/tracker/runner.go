// Package tracker drives the sample, estimate and render loop.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/iss-tracker/core"
	"github.com/signalsfoundry/iss-tracker/internal/logging"
	"github.com/signalsfoundry/iss-tracker/internal/observability"
	"github.com/signalsfoundry/iss-tracker/internal/render"
	"github.com/signalsfoundry/iss-tracker/internal/trajectory"
	"github.com/signalsfoundry/iss-tracker/timectrl"
)

// DefaultInterval separates the two fetches of one iteration.
const DefaultInterval = 15 * time.Second

const tracerName = "github.com/signalsfoundry/iss-tracker/internal/tracker"

// Source returns one raw position payload per call.
type Source interface {
	Fetch(ctx context.Context) (core.RawPosition, error)
}

// Recorder receives loop measurements. *observability.TrackerCollector
// satisfies it.
type Recorder interface {
	ObserveFetch(source, outcome string, took time.Duration)
	ObserveSegment(speedKmh, distanceKm float64, sampledAt int64, trajectoryPoints int)
}

// Runner owns the trajectory and runs iterations on a single goroutine.
type Runner struct {
	src        Source
	sourceName string
	traj       *trajectory.Trajectory
	renderer   render.Renderer
	clock      timectrl.Clock
	recorder   Recorder
	log        logging.Logger
	tracer     trace.Tracer

	interval      time.Duration
	maxIterations int
}

// Option customises a Runner.
type Option func(*Runner)

func WithClock(c timectrl.Clock) Option {
	return func(r *Runner) {
		if c != nil {
			r.clock = c
		}
	}
}

func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

func WithLogger(l logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithInterval sets the delay between the two fetches of an iteration.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithMaxIterations bounds Run; zero runs until cancelled.
func WithMaxIterations(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.maxIterations = n
		}
	}
}

// WithSourceName labels fetch metrics and logs.
func WithSourceName(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.sourceName = name
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runner) {
		if tp != nil {
			r.tracer = tp.Tracer(tracerName)
		}
	}
}

// New constructs a Runner. traj and renderer may be nil, in which case a
// fresh unbounded trajectory is used and nothing is rendered.
func New(src Source, traj *trajectory.Trajectory, renderer render.Renderer, opts ...Option) *Runner {
	if traj == nil {
		traj = trajectory.New(0)
	}
	r := &Runner{
		src:        src,
		sourceName: "position",
		traj:       traj,
		renderer:   renderer,
		clock:      timectrl.Real(),
		log:        logging.Noop(),
		tracer:     otel.Tracer(tracerName),
		interval:   DefaultInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Trajectory returns the trajectory the runner appends to.
func (r *Runner) Trajectory() *trajectory.Trajectory { return r.traj }

// Run iterates until ctx is cancelled, the iteration bound is reached, or an
// iteration fails. Cancellation is not an error; any other failure is
// returned and ends the loop.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info(ctx, "poll loop starting",
		logging.String("source", r.sourceName),
		logging.Duration("interval", r.interval),
		logging.Int("max_iterations", r.maxIterations),
	)
	for i := 0; r.maxIterations == 0 || i < r.maxIterations; i++ {
		if ctx.Err() != nil {
			break
		}
		if _, err := r.Iterate(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				break
			}
			r.log.Error(ctx, "poll loop halted", logging.Int("iteration", i+1), logging.Err(err))
			return err
		}
	}
	r.log.Info(ctx, "poll loop stopped", logging.Int("segments", r.traj.Len()))
	return nil
}

// Iterate takes two samples Interval apart, derives the ground speed,
// appends the segment and renders the trajectory.
func (r *Runner) Iterate(ctx context.Context) (trajectory.Segment, error) {
	ctx, log := logging.WithIterationLogger(ctx, r.log)
	ctx, span := r.tracer.Start(ctx, "tracker.iteration",
		trace.WithAttributes(attribute.String("iss.source", r.sourceName)),
	)
	defer span.End()

	seg, err := r.iterate(ctx, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return trajectory.Segment{}, err
	}
	span.SetAttributes(
		attribute.Float64("iss.speed_kmh", seg.SpeedKmh),
		attribute.Float64("iss.distance_km", seg.DistanceKm),
	)
	return seg, nil
}

func (r *Runner) iterate(ctx context.Context, log logging.Logger) (trajectory.Segment, error) {
	first, err := r.sample(ctx, log)
	if err != nil {
		return trajectory.Segment{}, err
	}
	if err := r.clock.Sleep(ctx, r.interval); err != nil {
		return trajectory.Segment{}, err
	}
	second, err := r.sample(ctx, log)
	if err != nil {
		return trajectory.Segment{}, err
	}

	est, err := core.EstimateSpeed(first, second)
	if err != nil {
		return trajectory.Segment{}, fmt.Errorf("estimate speed: %w", err)
	}

	seg := trajectory.NewSegment(first, second, est, r.clock.Now())
	r.traj.Append(seg)
	snap := r.traj.Snapshot()

	if r.recorder != nil {
		r.recorder.ObserveSegment(seg.SpeedKmh, seg.DistanceKm, second.Timestamp, snap.PointCount())
	}
	log.Info(ctx, "ground speed estimated",
		logging.Float64("speed_kmh", seg.SpeedKmh),
		logging.Float64("distance_km", seg.DistanceKm),
		logging.Duration("elapsed", est.Elapsed),
		logging.Int("points", snap.PointCount()),
	)

	if r.renderer != nil {
		if err := r.renderer.Render(ctx, snap); err != nil {
			return seg, fmt.Errorf("render trajectory: %w", err)
		}
	}
	return seg, nil
}

func (r *Runner) sample(ctx context.Context, log logging.Logger) (core.Position, error) {
	start := time.Now()
	raw, err := r.src.Fetch(ctx)
	var pos core.Position
	if err == nil {
		pos, err = core.Normalize(raw)
	}
	if r.recorder != nil && !errors.Is(err, context.Canceled) {
		r.recorder.ObserveFetch(r.sourceName, outcome(err), time.Since(start))
	}
	if err != nil {
		return core.Position{}, fmt.Errorf("sample %s: %w", r.sourceName, err)
	}

	log.Debug(ctx, "position sampled",
		logging.Int64("timestamp", pos.Timestamp),
		logging.Float64("latitude", pos.Latitude),
		logging.Float64("longitude", pos.Longitude),
	)
	return pos, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, core.ErrRemoteService):
		return observability.OutcomeRemoteError
	case errors.Is(err, core.ErrMalformedPayload):
		return observability.OutcomeMalformed
	default:
		return observability.OutcomeTransportError
	}
}
