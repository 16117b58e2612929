package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"drgetl/internal/check"
	"drgetl/internal/config"
	"drgetl/internal/metrics"
	"drgetl/internal/metrics/datadog"
	"drgetl/internal/metrics/prompush"
	"drgetl/internal/step"
	"drgetl/internal/storage"
	"drgetl/internal/transform"
)

// options are the resolved command-line settings.
type options struct {
	configPath     string
	validateOnly   bool
	metricsBackend string
	pushGatewayURL string
	dogStatsdAddr  string
	root           string
	verbose        bool
}

// parseOptions reads flags from args and fills the gaps from the
// environment: flag, then env, then default.
func parseOptions(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("etl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "step config path, .json or .yaml (env ETL_CONFIG)")
	fs.BoolVar(&o.validateOnly, "validate", false, "validate the configuration and exit")
	fs.StringVar(&o.metricsBackend, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (env METRICS_BACKEND)")
	fs.StringVar(&o.pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (env PUSHGATEWAY_URL)")
	fs.StringVar(&o.dogStatsdAddr, "dogstatsd-addr", "", "DogStatsD address (env DOGSTATSD_ADDR)")
	fs.StringVar(&o.root, "root", "", "project root that metadata paths are relative to (env ETL_ROOT)")
	fs.BoolVar(&o.verbose, "v", false, "enable verbose logs")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	o.configPath = pickString(o.configPath, getenv("ETL_CONFIG", ""))
	o.metricsBackend = pickString(o.metricsBackend, getenv("METRICS_BACKEND", "none"))
	o.pushGatewayURL = pickString(o.pushGatewayURL, getenv("PUSHGATEWAY_URL", "http://localhost:9091"))
	o.dogStatsdAddr = pickString(o.dogStatsdAddr, getenv("DOGSTATSD_ADDR", "127.0.0.1:8125"))
	o.root = pickString(o.root, getenv("ETL_ROOT", "."))
	if o.configPath == "" {
		return o, errors.New("a step config is required (-config or ETL_CONFIG)")
	}
	return o, nil
}

// run is main without the process exit, returning the exit status.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	o, err := parseOptions(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "etl: %v\n", err)
		return 1
	}
	logger := log.New(stderr, "etl: ", log.LstdFlags)

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "etl: %v\n", err)
		return 1
	}

	issues := config.ValidateStep(*cfg, catalog())
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		logger.Printf("Configuration is invalid: %v", o.configPath)
		return 1
	}
	if o.validateOnly {
		logger.Printf("Configuration is valid: %v", o.configPath)
		return 0
	}

	flush := setupMetrics(logger, o, cfg.Job)
	defer flush()

	env := step.NewEnv(o.root)
	env.Logger = logger
	env.Verbose = o.verbose
	if o.verbose {
		logger.Printf("step: config=%s transform=%s read=%v write=%v sink=%v",
			o.configPath, cfg.Setup.Transform, cfg.IOPolicy.ReadInput, cfg.IOPolicy.WriteOutput, cfg.Sink != nil)
	}

	start := time.Now()
	if err := step.Run(ctx, env, *cfg); err != nil {
		logger.Printf("%v", err)
		return 1
	}
	if o.verbose {
		logger.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	return 0
}

// catalog lists every name a step file may use.
func catalog() config.Catalog {
	return config.Catalog{
		Transforms: append(transform.Names(), step.IngestAction),
		Tests:      check.Names(),
		Sinks:      storage.ListKinds(),
	}
}

// setupMetrics installs the selected backend and returns the flush to run at
// exit. A backend that fails to start leaves metrics disabled.
func setupMetrics(logger *log.Logger, o options, job string) (flush func()) {
	flush = func() {}

	var (
		b   metrics.Backend
		err error
	)
	switch o.metricsBackend {
	case "pushgateway":
		b, err = prompush.NewBackend(job, o.pushGatewayURL)
		if err == nil {
			logger.Printf("metrics: url=%v, backend=%v, job_name=%v", o.pushGatewayURL, o.metricsBackend, job)
		}
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       o.dogStatsdAddr,
			Namespace:  "drg.",
			GlobalTags: []string{"job:" + job},
		})
		if err == nil {
			logger.Printf("metrics: addr=%v, backend=%v, job_name=%v", o.dogStatsdAddr, o.metricsBackend, job)
		}
	case "", "none":
		if o.verbose {
			logger.Printf("metrics: disabled (backend=%q)", o.metricsBackend)
		}
		return flush
	default:
		logger.Printf("metrics: unknown backend %q; metrics disabled", o.metricsBackend)
		return flush
	}
	if err != nil {
		logger.Printf("metrics: failed to init %s backend: %v; using nop", o.metricsBackend, err)
		return flush
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			logger.Printf("metrics: flush error: %v", err)
		}
		metrics.SetBackend(metrics.Nop())
	}
}

func getenv(k, def string) string {
	if s := os.Getenv(k); s != "" {
		return s
	}
	return def
}

// pickString chooses a when set, otherwise b.
func pickString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
