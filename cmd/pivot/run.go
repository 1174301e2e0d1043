package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/pivot/config"
	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/internal/logging"
	"github.com/spektr-org/pivot/query"
	"github.com/spektr-org/pivot/render"
)

type runOptions struct {
	configPath  string
	file        string
	format      string
	out         string
	concurrency int
	logLevel    string
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the pivots listed in a config file",
		Long: `Load the data source once, run every configured pivot concurrently,
and write the results in config order. Flags override the config file,
which in turn can be overridden by PIVOT_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Pivot config file: .yaml, .json or .toml (required)")
	f.StringVarP(&opts.file, "file", "f", "", "Data file, overrides source")
	f.StringVar(&opts.format, "format", "table", "Output format: "+strings.Join(config.Formats, ", "))
	f.StringVarP(&opts.out, "out", "o", "", "Write output to this file instead of stdout")
	f.IntVar(&opts.concurrency, "concurrency", 4, "Pivots computed in parallel")
	f.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// overrides returns only the flags the user set, keyed by config path, so
// unset flags never mask the config file or the environment.
func (o *runOptions) overrides(flags *pflag.FlagSet) map[string]any {
	out := make(map[string]any)
	if flags.Changed("file") {
		out["source"] = o.file
	}
	if flags.Changed("format") {
		out["format"] = o.format
	}
	if flags.Changed("out") {
		out["output"] = o.out
	}
	if flags.Changed("concurrency") {
		out["concurrency"] = o.concurrency
	}
	if flags.Changed("log-level") {
		out["log.level"] = o.logLevel
	}
	return out
}

func (o *runOptions) run(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath, o.overrides(cmd.Flags()))
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.Setup(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()
	logger = logger.With("run_id", uuid.NewString())

	source := cfg.Source
	if source == "" {
		return errors.New("no data file: set source in the config or pass --file")
	}
	// A source named in the config is relative to the config file.
	if !cmd.Flags().Changed("file") && !filepath.IsAbs(source) {
		source = filepath.Join(filepath.Dir(o.configPath), source)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	table, release, err := loadTable(ctx, source)
	if err != nil {
		logger.Error("load failed", "source", source, "error", err)
		return err
	}
	defer release()
	logger.Info("data loaded",
		"source", source,
		"rows", table.Len(),
		"columns", len(table.Columns()),
		"elapsed", time.Since(start))

	results, err := runJobs(ctx, table, cfg, logger)
	if err != nil {
		logger.Error("run failed", "error", err)
		return err
	}
	return writeResults(cmd.OutOrStdout(), cfg, results)
}

// ============================================================================
// JOBS
// ============================================================================

// runJobs computes every pivot with at most cfg.Concurrency in flight. The
// first failure cancels the rest. Results keep config order.
func runJobs(ctx context.Context, table engine.Table, cfg *config.Config, logger *slog.Logger) ([]*engine.Result, error) {
	results := make([]*engine.Result, len(cfg.Pivots))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i, job := range cfg.Pivots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			r, err := runJob(table, job, logger.With("job", job.Name))
			if err != nil {
				return errors.Wrapf(err, "pivot %q", job.Name)
			}
			results[i] = r
			logger.Info("pivot done",
				"job", job.Name,
				"rows", r.Len(),
				"columns", r.Width(),
				"elapsed", time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// runJob pivots, then rounds, filters and sorts the result.
func runJob(table engine.Table, job config.Job, logger *slog.Logger) (*engine.Result, error) {
	spec, err := job.Spec()
	if err != nil {
		return nil, err
	}
	r, err := engine.Pivot(table, spec, engine.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if job.Round != nil {
		r = engine.Round(r, *job.Round)
	}
	if job.Query != "" {
		if r, err = query.Filter(r, job.Query); err != nil {
			return nil, err
		}
	}
	if job.Sort != nil {
		if r, err = engine.SortBy(r, job.Sort.Column, job.Sort.Ascending); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ============================================================================
// OUTPUT
// ============================================================================

func writeResults(stdout io.Writer, cfg *config.Config, results []*engine.Result) error {
	if cfg.Format == "parquet" {
		for i, job := range cfg.Pivots {
			path := outputPath(cfg.Output, job.Name, len(cfg.Pivots))
			if err := writeFile(path, func(w io.Writer) error {
				return render.Parquet(w, results[i])
			}); err != nil {
				return err
			}
		}
		return nil
	}

	emit := func(w io.Writer) error {
		for i, job := range cfg.Pivots {
			if i > 0 {
				if err := render.Separator(w); err != nil {
					return err
				}
			}
			if err := render.Write(w, results[i], jobTitle(job), cfg.Format); err != nil {
				return errors.Wrapf(err, "pivot %q", job.Name)
			}
		}
		return nil
	}
	if cfg.Output == "" {
		return emit(stdout)
	}
	return writeFile(cfg.Output, emit)
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "failed to close %s", path)
}

// outputPath gives each pivot its own file when several are written:
// report.parquet → report-by-manager.parquet.
func outputPath(out, name string, n int) string {
	if n == 1 {
		return out
	}
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + "-" + name + ext
}

func jobTitle(job config.Job) string {
	if job.Title != "" {
		return job.Title
	}
	return job.Name
}
