// Command etl runs one pipeline step described by a JSON or YAML step file.
//
//	etl -config configs/steps/drop_rare_drgs.yaml -metrics-backend pushgateway
//
// Flags fall back to environment variables (ETL_CONFIG, METRICS_BACKEND,
// PUSHGATEWAY_URL, DOGSTATSD_ADDR, ETL_ROOT). The exit status is 1 on any
// fatal condition.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	// register all backends with the storage factory.
	// a step file picks one by sink.kind, so every backend is built in.
	_ "drgetl/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}
