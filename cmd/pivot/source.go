package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/helpers"
	"github.com/spektr-org/pivot/schema"
)

// sourceKind picks a reader from the file extension.
func sourceKind(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return "csv", nil
	case ".parquet", ".pq":
		return "parquet", nil
	case ".arrow", ".ipc", ".feather":
		return "arrow", nil
	}
	return "", errors.Errorf("unsupported data file %s (want .csv, .parquet or .arrow)", path)
}

// loadTable reads a data file. The returned func releases Arrow memory.
func loadTable(ctx context.Context, path string) (engine.Table, func(), error) {
	kind, err := sourceKind(path)
	if err != nil {
		return nil, nil, err
	}

	switch kind {
	case "parquet":
		t, err := helpers.ReadParquet(ctx, path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to load %s", path)
		}
		return t, t.Release, nil
	case "arrow":
		t, err := helpers.ReadArrowFile(path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to load %s", path)
		}
		return t, t.Release, nil
	}

	t, _, err := helpers.LoadCSV(path)
	if err != nil {
		return nil, nil, err
	}
	return t, func() {}, nil
}

// describe discovers the schema of a data file.
func describe(ctx context.Context, path string, opts schema.DiscoverOptions) (*schema.Config, error) {
	kind, err := sourceKind(path)
	if err != nil {
		return nil, err
	}

	if kind == "csv" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		return schema.DiscoverFromCSV(data, opts)
	}

	table, release, err := loadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	defer release()

	sch, err := schema.DiscoverFromTable(table, opts)
	if err != nil {
		return nil, err
	}
	sch.DiscoveredFrom = kind
	return sch, nil
}
