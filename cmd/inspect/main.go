// Command inspect prints the columns of a table file or SQLite table.
//
//	inspect -in data/v2/v2.csv -sample 5
//	inspect -in data/drg.db -format sqlite -table v2 -sample 10 -random
//	inspect -in data/drg.db -format sqlite
//
// Without -table a SQLite database lists its tables.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"drgetl/internal/config"
	"drgetl/internal/inspect"
	"drgetl/internal/step"
	"drgetl/internal/storage/sqlite"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	in        string
	format    string
	table     string
	delimiter string
	sample    int
	random    bool
	asJSON    bool
}

func run(args []string, stdout, stderr io.Writer) int {
	var o options
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.in, "in", "", "table file or SQLite database")
	fs.StringVar(&o.format, "format", "csv", "input format: csv|parquet|json|sqlite")
	fs.StringVar(&o.table, "table", "", "SQLite table name")
	fs.StringVar(&o.delimiter, "delimiter", "", "CSV field delimiter (single character)")
	fs.IntVar(&o.sample, "sample", 0, "number of rows to print")
	fs.BoolVar(&o.random, "random", false, "sample SQLite rows at random")
	fs.BoolVar(&o.asJSON, "json", false, "print column names and dtypes as JSON")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if o.in == "" {
		fmt.Fprintln(stderr, "missing -in")
		fs.Usage()
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := inspectInput(ctx, o, stdout); err != nil {
		fmt.Fprintf(stderr, "inspect: %v\n", err)
		return 1
	}
	return 0
}

func inspectInput(ctx context.Context, o options, w io.Writer) error {
	if o.format == "sqlite" && o.table == "" {
		names, err := sqlite.Tables(ctx, o.in)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(w, n)
		}
		return nil
	}

	t, err := step.ReadInput(ctx, config.Input{Path: o.in, Format: o.format, Table: o.table, Delimiter: o.delimiter})
	if err != nil {
		return err
	}

	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			ColumnNames  map[int]string    `json:"column_names"`
			ColumnDTypes map[string]string `json:"column_dtypes"`
		}{inspect.ColumnNames(t), inspect.ColumnDTypes(t)})
	}

	title := o.in
	if o.format == "sqlite" {
		title = o.in + ":" + o.table
		declared, err := sqlite.Columns(ctx, o.in, o.table)
		if err != nil {
			return err
		}
		if err := inspect.RenderDeclared(w, title+" (declared)", declared); err != nil {
			return err
		}
	}
	if err := inspect.RenderColumns(w, title, t); err != nil {
		return err
	}

	if o.sample <= 0 {
		return nil
	}
	rows := t.Head(o.sample)
	if o.format == "sqlite" {
		if rows, err = sqlite.Sample(ctx, o.in, o.table, o.sample, o.random); err != nil {
			return err
		}
	}
	return inspect.RenderRows(w, "", rows)
}
