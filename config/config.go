// Package config loads pivot files: the data source, output settings, logging
// and a list of named pivot jobs.
//
//	source: sales-funnel.csv
//	format: table
//	log:
//	  level: info
//	pivots:
//	  - name: price-by-manager
//	    index: [Manager, Rep]
//	    values: [Price]
//	    aggfunc: [sum, mean]
//	    margins: true
//	    round: 2
//	    query: Manager == ["Debra Henley"]
//	    sort: {column: "Price|sum", ascending: false}
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/internal/logging"
)

// EnvPrefix prefixes environment overrides: PIVOT_FORMAT, PIVOT_LOG_LEVEL.
const EnvPrefix = "PIVOT"

// Output formats understood by the CLI.
var Formats = []string{"table", "csv", "json", "parquet"}

// Config is a whole pivot file.
type Config struct {
	Source      string         `mapstructure:"source"`
	Format      string         `mapstructure:"format"`
	Output      string         `mapstructure:"output"`
	Concurrency int            `mapstructure:"concurrency"`
	Log         logging.Config `mapstructure:"log"`
	Pivots      []Job          `mapstructure:"pivots"`
}

// Job is one pivot plus the steps applied to its result, in order:
// round, query, sort.
type Job struct {
	Name        string        `mapstructure:"name"`
	Title       string        `mapstructure:"title"`
	Index       []string      `mapstructure:"index"`
	Columns     []string      `mapstructure:"columns"`
	Values      []string      `mapstructure:"values"`
	AggFunc     []string      `mapstructure:"aggfunc"`      // applied to every value column
	Aggregation []Aggregation `mapstructure:"aggregations"` // per-column override
	FillValue   any           `mapstructure:"fill_value"`
	Margins     bool          `mapstructure:"margins"`
	MarginsName string        `mapstructure:"margins_name"`
	Round       *int          `mapstructure:"round"`
	Query       string        `mapstructure:"query"`
	Sort        *SortStep     `mapstructure:"sort"`
}

// Aggregation maps one value column to its functions. Column names keep their
// case, which a YAML map key would not survive.
type Aggregation struct {
	Column string   `mapstructure:"column"`
	Funcs  []string `mapstructure:"funcs"`
}

// SortStep orders the result by one column label ("Price|sum|CPU").
type SortStep struct {
	Column    string `mapstructure:"column"`
	Ascending bool   `mapstructure:"ascending"`
}

// New returns a viper instance with defaults and environment overrides.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("format", "table")
	v.SetDefault("concurrency", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the pivot file at path (YAML, JSON or TOML by extension) and
// applies overrides, typically CLI flags the user set explicitly.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	return decode(v, overrides)
}

func decode(v *viper.Viper, overrides map[string]any) (*Config, error) {
	for k, val := range overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks what can be checked without data. Column names are checked
// by engine.Pivot against the loaded table.
func (c *Config) Validate() error {
	if !validFormat(c.Format) {
		return errors.Errorf("unknown format %q (want one of %s)", c.Format, strings.Join(Formats, ", "))
	}
	if c.Format == "parquet" && c.Output == "" {
		return errors.New("format parquet needs an output file")
	}
	if c.Concurrency < 1 {
		return errors.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if len(c.Pivots) == 0 {
		return errors.New("no pivots configured")
	}

	seen := make(map[string]bool, len(c.Pivots))
	for i, job := range c.Pivots {
		if job.Name == "" {
			return errors.Errorf("pivot %d has no name", i)
		}
		if seen[job.Name] {
			return errors.Errorf("duplicate pivot name %q", job.Name)
		}
		seen[job.Name] = true

		if _, err := job.Spec(); err != nil {
			return errors.Wrapf(err, "pivot %q", job.Name)
		}
		if job.Sort != nil && job.Sort.Column == "" {
			return errors.Errorf("pivot %q: sort needs a column", job.Name)
		}
	}
	return nil
}

func validFormat(f string) bool {
	for _, ok := range Formats {
		if f == ok {
			return true
		}
	}
	return false
}

// Spec converts the job to an engine.Spec. Function names are parsed here;
// column names are left to engine.Pivot.
func (j Job) Spec() (engine.Spec, error) {
	spec := engine.Spec{
		Index:       j.Index,
		Columns:     j.Columns,
		Values:      j.Values,
		FillValue:   j.FillValue,
		Margins:     j.Margins,
		MarginsName: j.MarginsName,
	}

	if len(j.AggFunc) > 0 {
		if len(j.Values) == 0 {
			return engine.Spec{}, &engine.SpecError{Field: "aggregations", Reason: "aggfunc needs explicit values"}
		}
		fns, err := parseFuncs(j.AggFunc)
		if err != nil {
			return engine.Spec{}, err
		}
		spec = spec.AggregateAll(fns...)
	}

	for _, a := range j.Aggregation {
		if a.Column == "" {
			return engine.Spec{}, &engine.SpecError{Field: "aggregations", Reason: "aggregation entry without a column"}
		}
		fns, err := parseFuncs(a.Funcs)
		if err != nil {
			return engine.Spec{}, err
		}
		if spec.Aggregations == nil {
			spec.Aggregations = make(map[string][]engine.AggFunc)
		}
		spec.Aggregations[a.Column] = fns
	}
	return spec, nil
}

func parseFuncs(names []string) ([]engine.AggFunc, error) {
	fns := make([]engine.AggFunc, 0, len(names))
	for _, n := range names {
		fn, err := engine.ParseAggFunc(n)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return fns, nil
}
