// Package step runs one configured pipeline step: resolve the transform and
// its tests, read the input table, apply the transform, run the tests and
// persist the result.
//
// Every stage failure aborts the step; nothing is retried. Each stage is
// timed and counted through the metrics package under the step's job name.
package step

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"drgetl/internal/check"
	"drgetl/internal/config"
	"drgetl/internal/datasource/httpds"
	"drgetl/internal/ingest"
	"drgetl/internal/metrics"
	"drgetl/internal/parallelism"
	"drgetl/internal/table"
	"drgetl/internal/transform"
)

// IngestAction is the action name that downloads and registers raw data
// instead of transforming a table.
const IngestAction = "ingest_data"

// Stage names used for metrics and log lines.
const (
	StageLookup    = "lookup"
	StageRead      = "read"
	StageTransform = "transform"
	StageTest      = "test"
	StagePersist   = "persist"
	StageSink      = "sink"
)

// ErrUnknownTransform is wrapped in a *ConfigError when setup.transform
// names neither a registered transform nor an action.
var ErrUnknownTransform = errors.New("unknown transform")

// ConfigError reports a step file that cannot run: an unknown transform or
// test, a malformed parameter block, or an impossible core budget.
type ConfigError struct {
	Job string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("step %s: config: %v", e.Job, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Env is what a step run gets from its process.
type Env struct {
	Logger *log.Logger

	// RunID tags the log lines of one run.
	RunID uuid.UUID

	// RootDir makes metadata file paths relative; empty keeps them as given.
	RootDir string

	// Verbose enables per-stage log lines.
	Verbose bool

	// HTTP downloads ingest sources; nil lets the ingest action build one.
	HTTP *httpds.Client

	// MaxCores bounds the parallelism check; <= 0 detects it.
	MaxCores int
}

// NewEnv returns an Env logging to stderr with a fresh run id.
func NewEnv(root string) *Env {
	return &Env{
		Logger:  log.New(os.Stderr, "etl: ", log.LstdFlags|log.Lmicroseconds),
		RunID:   uuid.New(),
		RootDir: root,
	}
}

func (e *Env) withDefaults() *Env {
	out := Env{}
	if e != nil {
		out = *e
	}
	if out.Logger == nil {
		out.Logger = log.New(os.Stderr, "etl: ", log.LstdFlags)
	}
	if out.RunID == uuid.Nil {
		out.RunID = uuid.New()
	}
	return &out
}

// plan is a step with every name resolved and every parameter block decoded.
type plan struct {
	transform *transform.Bound
	ingest    *ingest.Config
	tests     []check.Bound
}

// Run executes cfg. Parameter blocks are decoded before any I/O, so a bad
// step file fails without touching data.
func Run(ctx context.Context, env *Env, cfg config.Step) error {
	env = env.withDefaults()
	r := &runner{env: env, cfg: cfg, job: cfg.Job}
	if r.job == "" {
		r.job = cfg.Setup.Transform
	}

	start := time.Now()
	env.Logger.Printf("step: start job=%s transform=%s run_id=%s", r.job, cfg.Setup.Transform, env.RunID)
	if err := r.run(ctx); err != nil {
		env.Logger.Printf("step: failed job=%s run_id=%s err=%v", r.job, env.RunID, err)
		return err
	}
	env.Logger.Printf("step: done job=%s run_id=%s elapsed=%s", r.job, env.RunID, time.Since(start).Truncate(time.Millisecond))
	return nil
}

type runner struct {
	env *Env
	cfg config.Step
	job string
}

func (r *runner) run(ctx context.Context) error {
	var p *plan
	if err := r.stage(StageLookup, func() error {
		var err error
		p, err = r.lookup()
		return err
	}); err != nil {
		return err
	}

	if p.ingest != nil {
		return r.runIngest(ctx, p)
	}

	t := table.Empty()
	if r.cfg.IOPolicy.ReadInput {
		if err := r.stage(StageRead, func() error {
			var err error
			t, err = ReadInput(ctx, r.cfg.Input)
			if err == nil {
				metrics.RecordRows(r.job, "read", int64(t.NumRows()))
				r.debugf("step: read path=%s rows=%d cols=%d", r.cfg.Input.Path, t.NumRows(), t.NumCols())
			}
			return err
		}); err != nil {
			return err
		}
	}

	if err := r.stage(StageTransform, func() error {
		out, err := p.transform.Apply(t)
		if err != nil {
			return err
		}
		if r.cfg.Setup.ReturnType == "none" {
			return nil
		}
		if out == nil {
			return &check.SchemaError{
				Check: "return_type",
				Msg:   fmt.Sprintf("%s did not return a table", p.transform.Name),
				Rows:  t.NumRows(),
			}
		}
		t = out
		return nil
	}); err != nil {
		return err
	}

	if err := r.runTests(p, &t); err != nil {
		return err
	}

	if r.cfg.IOPolicy.WriteOutput {
		if err := r.stage(StagePersist, func() error { return r.persist(ctx, t) }); err != nil {
			return err
		}
	}
	metrics.RecordTableShape(r.job, t.NumRows(), t.NumCols())
	return r.sink(ctx, t)
}

func (r *runner) runIngest(ctx context.Context, p *plan) error {
	var t *table.Table
	if err := r.stage(StageRead, func() error {
		res, err := ingest.Run(ctx, *p.ingest, ingest.Options{Root: r.env.RootDir, Client: r.env.HTTP})
		if err != nil {
			return err
		}
		t = res.Table
		metrics.RecordRows(r.job, "read", int64(t.NumRows()))
		return nil
	}); err != nil {
		return err
	}
	if err := r.runTests(p, &t); err != nil {
		return err
	}
	metrics.RecordTableShape(r.job, t.NumRows(), t.NumCols())
	return r.sink(ctx, t)
}

func (r *runner) runTests(p *plan, t **table.Table) error {
	if len(p.tests) == 0 {
		return nil
	}
	return r.stage(StageTest, func() error {
		for _, tc := range p.tests {
			out, err := tc.Apply(*t)
			if err != nil {
				return err
			}
			*t = out
			r.debugf("step: test passed name=%s", tc.Name)
		}
		return nil
	})
}

// lookup resolves names and decodes parameter blocks. Every failure is a
// *ConfigError.
func (r *runner) lookup() (*plan, error) {
	p := &plan{}
	name := r.cfg.Setup.Transform

	if name == IngestAction {
		c, err := config.Decode[ingest.Config](r.cfg.Params)
		if err != nil {
			return nil, r.configErr(fmt.Errorf("%s: %w", name, err))
		}
		p.ingest = &c
	} else {
		spec, ok := transform.Lookup(name)
		if !ok {
			return nil, r.configErr(fmt.Errorf("%w %q", ErrUnknownTransform, name))
		}
		b, err := spec.Bind(r.cfg.Params)
		if err != nil {
			return nil, r.configErr(err)
		}
		p.transform = &b
	}

	for _, tn := range r.cfg.Tests.Active {
		spec, ok := check.Lookup(tn)
		if !ok {
			return nil, r.configErr(fmt.Errorf("unknown test %q", tn))
		}
		b, err := spec.Bind(r.cfg.Tests.Params[tn])
		if err != nil {
			return nil, r.configErr(err)
		}
		p.tests = append(p.tests, b)
	}

	if par := r.cfg.Parallelism; par != nil {
		if err := parallelism.ValidateJobs(par.NJobsCV, par.NJobsStudy, r.env.MaxCores); err != nil {
			return nil, r.configErr(err)
		}
	}
	return p, nil
}

func (r *runner) configErr(err error) error {
	return &ConfigError{Job: r.job, Err: err}
}

// stage times fn and records it under name.
func (r *runner) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStage(r.job, name, err, time.Since(start))
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			return err
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	r.debugf("step: stage=%s ok elapsed=%s", name, time.Since(start).Truncate(time.Microsecond))
	return nil
}

func (r *runner) debugf(format string, args ...any) {
	if r.env.Verbose {
		r.env.Logger.Printf(format, args...)
	}
}
