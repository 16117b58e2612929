// Command partition splits a prepared table for model training.
//
//	partition -in data/v10/v10.csv -out-dir data/splits \
//	    -features severity_1_portion,w_total_median_profit_lag1 -target w_total_median_profit \
//	    -year-col year -train 2012-2016 -val 2017-2017 -test 2018-2019 -n-splits 4
//
// With -ratio instead of year ranges the first rows become train.<fmt> and
// the rest test.<fmt>.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"drgetl/internal/config"
	"drgetl/internal/export"
	"drgetl/internal/partition"
	"drgetl/internal/step"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

type options struct {
	in, format, delimiter string
	outDir, outFormat     string
	features, target      string
	yearCol               string
	train, val, test      string
	nSplits               int
	ratio                 float64
}

func run(args []string, stderr io.Writer) int {
	var o options
	fs := flag.NewFlagSet("partition", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.in, "in", "", "input table")
	fs.StringVar(&o.format, "format", "csv", "input format: csv|parquet|json")
	fs.StringVar(&o.delimiter, "delimiter", "", "CSV field delimiter")
	fs.StringVar(&o.outDir, "out-dir", "", "directory for the split files")
	fs.StringVar(&o.outFormat, "out-format", "csv", "output format: csv|parquet|json")
	fs.StringVar(&o.features, "features", "", "comma-separated feature columns")
	fs.StringVar(&o.target, "target", "", "target column")
	fs.StringVar(&o.yearCol, "year-col", "year", "year column")
	fs.StringVar(&o.train, "train", "", "training years, FROM-TO inclusive")
	fs.StringVar(&o.val, "val", "", "validation years, FROM-TO inclusive")
	fs.StringVar(&o.test, "test", "", "test years, FROM-TO inclusive")
	fs.IntVar(&o.nSplits, "n-splits", 0, "report expanding-window CV folds over the training rows")
	fs.Float64Var(&o.ratio, "ratio", 0, "train share for a positional split instead of year ranges")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if o.in == "" || o.outDir == "" {
		fmt.Fprintln(stderr, "missing -in or -out-dir")
		fs.Usage()
		return 2
	}

	logger := log.New(stderr, "partition: ", log.LstdFlags)
	if err := split(o, logger); err != nil {
		logger.Printf("%v", err)
		return 1
	}
	return 0
}

func split(o options, logger *log.Logger) error {
	outFmt, err := export.ParseFormat(o.outFormat)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	t, err := step.ReadInput(ctx, config.Input{Path: o.in, Format: o.format, Delimiter: o.delimiter})
	if err != nil {
		return err
	}

	if o.ratio > 0 {
		train, test, err := partition.Ratio(t, o.ratio)
		if err != nil {
			return err
		}
		ext := "." + string(outFmt)
		if err := export.WriteFile(filepath.Join(o.outDir, "train"+ext), outFmt, train, true); err != nil {
			return err
		}
		if err := export.WriteFile(filepath.Join(o.outDir, "test"+ext), outFmt, test, true); err != nil {
			return err
		}
		logger.Printf("ratio=%v train=%d test=%d", o.ratio, train.NumRows(), test.NumRows())
		return nil
	}

	cfg := partition.Config{TargetCol: o.target, YearCol: o.yearCol}
	for _, f := range strings.Split(o.features, ",") {
		if f = strings.TrimSpace(f); f != "" {
			cfg.FeatureCols = append(cfg.FeatureCols, f)
		}
	}
	for _, r := range []struct {
		flag string
		val  string
		dst  *partition.YearRange
	}{{"train", o.train, &cfg.Train}, {"val", o.val, &cfg.Val}, {"test", o.test, &cfg.Test}} {
		if *r.dst, err = parseRange(r.val); err != nil {
			return fmt.Errorf("-%s: %w", r.flag, err)
		}
	}

	p, err := partition.ByYear(t, cfg)
	if err != nil {
		return err
	}
	if err := partition.Write(o.outDir, outFmt, p); err != nil {
		return err
	}
	logger.Printf("train=%d val=%d test=%d dir=%s", p.Train.X.NumRows(), p.Val.X.NumRows(), p.Test.X.NumRows(), o.outDir)

	if o.nSplits > 0 {
		folds, err := partition.TimeSeriesSplit(p.Train.X.NumRows(), o.nSplits)
		if err != nil {
			return err
		}
		for i, f := range folds {
			logger.Printf("fold=%d train_rows=%d test_rows=%d", i, len(f.Train), len(f.Test))
		}
	}
	return nil
}

// parseRange reads "FROM-TO" or a single year.
func parseRange(s string) (partition.YearRange, error) {
	from, to, found := strings.Cut(strings.TrimSpace(s), "-")
	if !found {
		to = from
	}
	a, err := strconv.ParseInt(strings.TrimSpace(from), 10, 64)
	if err != nil {
		return partition.YearRange{}, fmt.Errorf("bad year range %q", s)
	}
	b, err := strconv.ParseInt(strings.TrimSpace(to), 10, 64)
	if err != nil {
		return partition.YearRange{}, fmt.Errorf("bad year range %q", s)
	}
	return partition.YearRange{From: a, To: b}, nil
}
