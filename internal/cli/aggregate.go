package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/metacheck/internal/output"
)

// AggregateResult holds the summary of an aggregation for JSON output.
type AggregateResult struct {
	Kinds    map[string]int `json:"kinds"`    // rows appended per record-set kind
	Datasets int            `json:"datasets"` // per-dataset file groups consumed
	OutDir   string         `json:"out_dir"`
}

// NewAggregateCommand creates the aggregate command.
func NewAggregateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		fromDir   string
		outDir    string
		initFresh bool
	)

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Fold per-dataset CSVs into the aggregate files",
		Long: `Collect the per-dataset CSV files from a batch output directory and
append their rows to the five aggregate files (final_basics.csv,
final_counts.csv, ...). Each aggregate file is backed up before it is
appended to, so a crash mid-append never loses prior rows.

With --init the aggregate files are created fresh instead, overwriting
any existing ones without a backup.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregate(rootOpts, fromDir, outDir, initFresh, cmd)
		},
	}

	cmd.Flags().StringVar(&fromDir, "from", "dataset_output", "directory holding per-dataset CSV files")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory holding the aggregate files")
	cmd.Flags().BoolVar(&initFresh, "init", false, "create fresh aggregate files instead of appending")

	return cmd
}

func runAggregate(opts *RootOptions, fromDir, outDir string, initFresh bool, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		_ = formatter.Error(ErrCodeAggregate, err.Error(), nil)
		return WrapExitError(ExitCommandError, "creating aggregate dir", err)
	}

	result := AggregateResult{Kinds: map[string]int{}, OutDir: outDir}
	datasets := map[string]bool{}

	for _, kind := range output.Kinds {
		files, err := filepath.Glob(filepath.Join(fromDir, "*_"+kind+".csv"))
		if err != nil {
			_ = formatter.Error(ErrCodeAggregate, err.Error(), nil)
			return WrapExitError(ExitCommandError, "listing per-dataset files", err)
		}
		sort.Strings(files)

		header := output.Header(kind)
		var rows [][]string
		for _, file := range files {
			fileHeader, fileRows, err := output.ReadCSV(file)
			if err != nil {
				_ = formatter.Error(ErrCodeAggregate, fmt.Sprintf("%s: %v", file, err), nil)
				return WrapExitError(ExitCommandError, "reading per-dataset file", err)
			}
			if !slices.Equal(fileHeader, header) {
				msg := fmt.Sprintf("%s: header does not match %s schema", file, kind)
				_ = formatter.Error(ErrCodeAggregate, msg, nil)
				return NewExitError(ExitCommandError, msg)
			}
			rows = append(rows, fileRows...)
			datasets[datasetIDFromFile(file, kind)] = true
		}

		target := filepath.Join(outDir, "final_"+kind+".csv")
		if initFresh {
			if err := output.WriteCSV(target, header, rows); err != nil {
				_ = formatter.Error(ErrCodeAggregate, err.Error(), nil)
				return WrapExitError(ExitCommandError, "writing aggregate file", err)
			}
		} else {
			if err := output.AppendAggregate(target, header, rows); err != nil {
				_ = formatter.Error(ErrCodeAggregate, err.Error(), nil)
				return WrapExitError(ExitCommandError, "appending aggregate file", err)
			}
		}
		result.Kinds[kind] = len(rows)
		formatter.VerboseLog("%s: %d row(s) from %d file(s)", kind, len(rows), len(files))
	}
	result.Datasets = len(datasets)

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ aggregated %d dataset(s) into %s\n", result.Datasets, outDir)
	for _, kind := range output.Kinds {
		fmt.Fprintf(formatter.Writer, "  final_%s.csv: +%d row(s)\n", kind, result.Kinds[kind])
	}
	return nil
}

// datasetIDFromFile strips the directory and the "_<kind>.csv" suffix.
func datasetIDFromFile(file, kind string) string {
	base := filepath.Base(file)
	return base[:len(base)-len("_"+kind+".csv")]
}
