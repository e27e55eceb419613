package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes used as the "outcome" label of iss_fetch_total.
const (
	OutcomeOK             = "ok"
	OutcomeRemoteError    = "remote_error"
	OutcomeMalformed      = "malformed"
	OutcomeTransportError = "transport_error"
)

// TrackerCollector bundles the Prometheus metrics of the poll loop and
// exposes them over HTTP. All methods are safe on a nil receiver.
type TrackerCollector struct {
	gatherer prometheus.Gatherer

	Fetches        *prometheus.CounterVec
	FetchDurations *prometheus.HistogramVec
	RenderErrors   *prometheus.CounterVec
	Iterations     prometheus.Counter

	GroundSpeed       prometheus.Gauge
	SegmentDistance   prometheus.Gauge
	TrajectoryPoints  prometheus.Gauge
	LastSampleSeconds prometheus.Gauge
}

// NewTrackerCollector registers tracker metrics against reg, defaulting to
// the global Prometheus registry when nil. Registering twice against the same
// registry reuses the existing collectors.
func NewTrackerCollector(reg prometheus.Registerer) (*TrackerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	fetches, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iss_fetch_total",
		Help: "Position fetches, labeled by source and outcome.",
	}, []string{"source", "outcome"}), "iss_fetch_total")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "iss_fetch_duration_seconds",
		Help:    "Position fetch latency in seconds.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"source"}), "iss_fetch_duration_seconds")
	if err != nil {
		return nil, err
	}

	renderErrors, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iss_render_errors_total",
		Help: "Failed best-effort render calls, labeled by renderer.",
	}, []string{"renderer"}), "iss_render_errors_total")
	if err != nil {
		return nil, err
	}

	iterations, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iss_iterations_total",
		Help: "Completed poll loop iterations.",
	}), "iss_iterations_total")
	if err != nil {
		return nil, err
	}

	speed, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "iss_ground_speed_kmh",
		Help: "Most recent ground-relative speed estimate in km/h.",
	}), "iss_ground_speed_kmh")
	if err != nil {
		return nil, err
	}
	distance, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "iss_segment_distance_km",
		Help: "Great-circle distance covered by the most recent segment in km.",
	}), "iss_segment_distance_km")
	if err != nil {
		return nil, err
	}
	points, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "iss_trajectory_points",
		Help: "Number of points currently held in the trajectory.",
	}), "iss_trajectory_points")
	if err != nil {
		return nil, err
	}
	lastSample, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "iss_last_sample_timestamp_seconds",
		Help: "Unix timestamp of the most recent position sample.",
	}), "iss_last_sample_timestamp_seconds")
	if err != nil {
		return nil, err
	}

	return &TrackerCollector{
		gatherer:          gatherer,
		Fetches:           fetches,
		FetchDurations:    durations,
		RenderErrors:      renderErrors,
		Iterations:        iterations,
		GroundSpeed:       speed,
		SegmentDistance:   distance,
		TrajectoryPoints:  points,
		LastSampleSeconds: lastSample,
	}, nil
}

// ObserveFetch records one fetch attempt.
func (c *TrackerCollector) ObserveFetch(source, outcome string, took time.Duration) {
	if c == nil {
		return
	}
	if c.Fetches != nil {
		c.Fetches.WithLabelValues(source, outcome).Inc()
	}
	if c.FetchDurations != nil {
		c.FetchDurations.WithLabelValues(source).Observe(took.Seconds())
	}
}

// ObserveSegment records the result of one completed iteration.
func (c *TrackerCollector) ObserveSegment(speedKmh, distanceKm float64, sampledAt int64, trajectoryPoints int) {
	if c == nil {
		return
	}
	if c.GroundSpeed != nil {
		c.GroundSpeed.Set(speedKmh)
	}
	if c.SegmentDistance != nil {
		c.SegmentDistance.Set(distanceKm)
	}
	if c.LastSampleSeconds != nil {
		c.LastSampleSeconds.Set(float64(sampledAt))
	}
	if c.TrajectoryPoints != nil {
		c.TrajectoryPoints.Set(float64(trajectoryPoints))
	}
	if c.Iterations != nil {
		c.Iterations.Inc()
	}
}

// ObserveRenderError counts a failed best-effort render.
func (c *TrackerCollector) ObserveRenderError(renderer string) {
	if c == nil || c.RenderErrors == nil {
		return
	}
	c.RenderErrors.WithLabelValues(renderer).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *TrackerCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// register adds c to reg, or returns the collector already registered under
// the same descriptor when its type matches.
func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var zero T
	are, ok := err.(prometheus.AlreadyRegisteredError)
	if !ok {
		return zero, fmt.Errorf("register %s: %w", name, err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
	}
	return existing, nil
}
