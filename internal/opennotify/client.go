// Package opennotify fetches the station's current position from the Open
// Notify API.
package opennotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/iss-tracker/core"
	"github.com/signalsfoundry/iss-tracker/internal/logging"
)

// DefaultURL is the public ISS position endpoint.
const DefaultURL = "http://api.open-notify.org/iss-now.json"

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

const maxBodyBytes = 1 << 20

const tracerName = "github.com/signalsfoundry/iss-tracker/internal/opennotify"

// Client issues one GET per Fetch. It never retries.
type Client struct {
	url        string
	httpClient *http.Client
	log        logging.Logger
	tracer     trace.Tracer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is used
// as-is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// New constructs a Client for url. A zero timeout disables the request
// deadline; a negative one selects DefaultTimeout.
func New(url string, timeout time.Duration, log logging.Logger, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout < 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logging.Noop()
	}
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With(logging.String("component", "opennotify")),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint the client polls.
func (c *Client) URL() string { return c.url }

// Fetch retrieves the current raw position. A non-200 status yields a
// *core.RemoteServiceError; an undecodable body yields an error wrapping
// core.ErrMalformedPayload. The success marker is not inspected here.
func (c *Client) Fetch(ctx context.Context) (core.RawPosition, error) {
	ctx, span := c.tracer.Start(ctx, "opennotify.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", c.url)),
	)
	defer span.End()

	raw, err := c.fetch(ctx, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return core.RawPosition{}, err
	}
	return raw, nil
}

func (c *Client) fetch(ctx context.Context, span trace.Span) (core.RawPosition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return core.RawPosition{}, fmt.Errorf("opennotify: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.RawPosition{}, fmt.Errorf("opennotify: get %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.log.Debug(ctx, "position response received",
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return core.RawPosition{}, &core.RemoteServiceError{URL: c.url, StatusCode: resp.StatusCode}
	}

	var raw core.RawPosition
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&raw); err != nil {
		return core.RawPosition{}, fmt.Errorf("%w: decode response: %v", core.ErrMalformedPayload, err)
	}
	return raw, nil
}
