package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/metacheck/internal/bids"
	"github.com/roach88/metacheck/internal/output"
	"github.com/roach88/metacheck/internal/pipeline"
)

// CheckResult holds the summary of a single-dataset check for JSON output.
type CheckResult struct {
	Dataset      string         `json:"dataset"`
	Kind         string         `json:"kind"`
	Subjects     int            `json:"subjects"`
	Tasks        int            `json:"tasks"`
	Participants int            `json:"participant_records"`
	Events       int            `json:"event_records"`
	Findings     []bids.Finding `json:"findings,omitempty"`
	Outputs      []string       `json:"outputs"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dataDir      string
		outDir       string
		restPrefixes []string
	)

	cmd := &cobra.Command{
		Use:   "check <dataset-id>",
		Short: "Process a single dataset and write its record sets",
		Long: `Process one BIDS dataset: resolve its layout, check expected files,
compile statistics, and normalize participant and event tables.

Writes one CSV file per record set (basics, counts, descriptors,
participants, events) into the output directory.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], dataDir, outDir, restPrefixes, cmd)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", ".", "directory containing dataset roots")
	cmd.Flags().StringVar(&outDir, "out", "dataset_output", "directory for per-dataset CSV output")
	cmd.Flags().StringSliceVar(&restPrefixes, "rest-prefix", bids.DefaultRestPrefixes, "task name prefixes treated as resting-state")

	return cmd
}

func runCheck(opts *RootOptions, datasetID, dataDir, outDir string, restPrefixes []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	formatter.VerboseLog("Processing %s under %s", datasetID, dataDir)

	res, err := pipeline.ProcessWithOptions(cmd.Context(), datasetID, dataDir, pipeline.Options{
		RestPrefixes: restPrefixes,
	})
	if err != nil {
		var structErr *bids.StructureError
		if errors.As(err, &structErr) {
			_ = formatter.Error(ErrCodeStructure, structErr.Error(), nil)
			return WrapExitError(ExitFailure, "dataset structure invalid", err)
		}
		var dsErr *pipeline.DatasetError
		if errors.As(err, &dsErr) {
			_ = formatter.Error(ErrCodeProcess, dsErr.Error(), map[string]string{"stage": string(dsErr.Stage)})
			return WrapExitError(ExitFailure, "dataset processing failed", err)
		}
		_ = formatter.Error(ErrCodeProcess, err.Error(), nil)
		return WrapExitError(ExitFailure, "dataset processing failed", err)
	}

	paths, err := output.WriteDataset(outDir, res)
	if err != nil {
		_ = formatter.Error(ErrCodeWrite, err.Error(), nil)
		return WrapExitError(ExitCommandError, "writing output failed", err)
	}

	return outputCheckSuccess(formatter, res, paths)
}

func outputCheckSuccess(formatter *OutputFormatter, res *pipeline.Result, paths []string) error {
	result := CheckResult{
		Dataset:      res.DatasetID,
		Kind:         string(res.Counts.Kind),
		Subjects:     res.Counts.NumSubjects,
		Tasks:        res.Counts.NumTasks,
		Participants: len(res.Participants),
		Events:       len(res.Events),
		Findings:     res.Findings,
		Outputs:      paths,
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %s (%s): %d subject(s), %d task(s)\n",
		result.Dataset, result.Kind, result.Subjects, result.Tasks)
	fmt.Fprintf(formatter.Writer, "  %d participant record(s), %d event record(s)\n",
		result.Participants, result.Events)
	for _, f := range result.Findings {
		fmt.Fprintf(formatter.Writer, "  finding [%s]: %s\n", f.Code, f.Message)
	}
	for _, p := range result.Outputs {
		fmt.Fprintf(formatter.Writer, "  wrote %s\n", p)
	}
	return nil
}
