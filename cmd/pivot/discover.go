package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/pivot/render"
	"github.com/spektr-org/pivot/schema"
)

func newDiscoverCommand() *cobra.Command {
	var (
		file   string
		format string
		sample int
		name   string
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Describe a data file and suggest a pivot",
		Long: `Print row and column counts, approximate memory use, the kind and
suggested role of every column with sample values, and a starting pivot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			}
			sch, err := describe(cmd.Context(), file, schema.DiscoverOptions{SampleSize: sample, Name: name})
			if err != nil {
				return err
			}
			return render.Schema(cmd.OutOrStdout(), sch, format)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "Path to a .csv, .parquet or .arrow file (required)")
	f.StringVar(&format, "format", "table", "Output format: table or json")
	f.IntVar(&sample, "sample", schema.DefaultDiscoverOptions().SampleSize, "Rows to classify (0 = all)")
	f.StringVar(&name, "name", "", "Dataset name (default: file name)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
