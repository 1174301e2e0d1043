package main

import (
	"os"
)

// ============================================================================
// PIVOT CLI — Spreadsheet-style pivot tables for CSV, Parquet and Arrow files
// ============================================================================

var version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
