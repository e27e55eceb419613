package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/iss-tracker/core"
	"github.com/signalsfoundry/iss-tracker/internal/config"
	"github.com/signalsfoundry/iss-tracker/internal/logging"
	"github.com/signalsfoundry/iss-tracker/internal/observability"
	"github.com/signalsfoundry/iss-tracker/internal/opennotify"
	"github.com/signalsfoundry/iss-tracker/internal/render"
	"github.com/signalsfoundry/iss-tracker/internal/tracker"
	"github.com/signalsfoundry/iss-tracker/internal/trajectory"
	"github.com/signalsfoundry/iss-tracker/timectrl"
)

func main() {
	configPath := flag.String("config", config.Path(), "path to a YAML config file")
	source := flag.String("source", "", "position source: open-notify or sgp4")
	interval := flag.Duration("interval", 0, "delay between the two fetches of an iteration")
	iterations := flag.Int("iterations", -1, "number of iterations to run (0 runs until interrupted)")
	timeout := flag.Duration("timeout", -1, "HTTP timeout for position requests (0 disables)")
	htmlPath := flag.String("html", "", "write the trajectory map to this HTML file")
	liveAddr := flag.String("live-addr", "", "serve a live map on this HTTP address")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source.Kind = *source
		case "interval":
			cfg.Poll.Interval = *interval
		case "iterations":
			cfg.Poll.Iterations = *iterations
		case "timeout":
			cfg.API.Timeout = *timeout
		case "html":
			cfg.Render.HTMLPath = *htmlPath
		case "live-addr":
			cfg.Render.LiveAddr = *liveAddr
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, os.Stdout, prometheus.DefaultRegisterer); err != nil {
		log.Error(ctx, "tracker exited", logging.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logging.Logger, stdout io.Writer, reg prometheus.Registerer) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing.Observability(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewTrackerCollector(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	var servers []*http.Server
	if cfg.Metrics.Addr != "" {
		servers = append(servers, serveMetrics(cfg.Metrics.Addr, collector, log))
	}

	clock := timectrl.Real()
	src, err := newSource(cfg, clock, log)
	if err != nil {
		return err
	}

	renderers, cleanup, err := newRenderers(cfg, stdout, collector, log, clock)
	if err != nil {
		return err
	}
	defer cleanup()

	var live *render.LiveMap
	if cfg.Render.LiveAddr != "" {
		live = render.NewLiveMap(log)
		live.Serve(cfg.Render.LiveAddr)
		renderers = append(renderers, render.BestEffort{Name: "live", Renderer: live, Log: log, Recorder: collector})
	}

	runner := tracker.New(src, trajectory.New(cfg.Render.MaxSegments), renderers,
		tracker.WithClock(clock),
		tracker.WithInterval(cfg.Poll.Interval),
		tracker.WithMaxIterations(cfg.Poll.Iterations),
		tracker.WithRecorder(collector),
		tracker.WithLogger(log),
		tracker.WithSourceName(cfg.Source.Kind),
	)
	runErr := runner.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if live != nil {
		_ = live.Shutdown(shutdownCtx)
	}
	for _, srv := range servers {
		_ = srv.Shutdown(shutdownCtx)
	}
	return runErr
}

func newSource(cfg *config.Config, clock timectrl.Clock, log logging.Logger) (tracker.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceSGP4:
		src, err := core.NewOrbitalSource(cfg.Source.TLELine1, cfg.Source.TLELine2, clock.Now)
		if err != nil {
			return nil, fmt.Errorf("init sgp4 source: %w", err)
		}
		log.Info(context.Background(), "using sgp4 position source")
		return src, nil
	default:
		log.Info(context.Background(), "using open-notify position source", logging.String("url", cfg.API.URL))
		return opennotify.New(cfg.API.URL, cfg.API.Timeout, log), nil
	}
}

func newRenderers(cfg *config.Config, stdout io.Writer, collector *observability.TrackerCollector, log logging.Logger, clock timectrl.Clock) (render.Multi, func(), error) {
	var (
		renderers render.Multi
		closers   []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Render.Console {
		console := render.NewConsole(stdout)
		if err := console.Banner(clock.Now()); err != nil {
			return nil, cleanup, fmt.Errorf("write banner: %w", err)
		}
		renderers = append(renderers, console)
	}
	if cfg.Render.HTMLPath != "" {
		renderers = append(renderers, render.NewHTMLMap(cfg.Render.HTMLPath))
	}
	if cfg.MQTT.Broker != "" {
		client, err := render.DialMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, func() { client.Disconnect(250) })
		renderers = append(renderers, render.BestEffort{
			Name:     "mqtt",
			Renderer: render.NewMQTTPublisher(client, cfg.MQTT.Topic),
			Log:      log,
			Recorder: collector,
		})
	}
	if brokers := cfg.Kafka.KafkaBrokers(); len(brokers) > 0 {
		w := render.NewKafkaWriter(brokers, cfg.Kafka.Topic)
		closers = append(closers, func() {
			if err := w.Close(); err != nil {
				log.Warn(context.Background(), "close kafka writer", logging.Err(err))
			}
		})
		renderers = append(renderers, render.BestEffort{
			Name:     "kafka",
			Renderer: render.NewKafkaPublisher(w),
			Log:      log,
			Recorder: collector,
		})
	}
	return renderers, cleanup, nil
}

func serveMetrics(addr string, collector *observability.TrackerCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
