package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	RunID    string
	Out      string
}

// ExportResult describes a written export file.
type ExportResult struct {
	RunID string `json:"run_id"`
	Path  string `json:"path"`
	Lines int    `json:"lines"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a run's journal as zstd-compressed JSON lines",
		Long: `Write a run's journal as zstd-compressed JSON lines: one run header,
then every event followed by the transactions it triggered.

Examples:
  shapeforge export --db ./run.db --out run.jsonl.zst
  shapeforge export --db ./run.db --run 0190a6c2-... --out run.jsonl.zst`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Out, "out", "", "output file (required)")
	_ = cmd.MarkFlagRequired("out")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to export (default: latest run)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := resolveRun(ctx, st, opts.RunID)
	if err != nil {
		return err
	}

	f, err := os.Create(opts.Out)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create output file", err)
	}
	n, err := st.ExportJSONL(ctx, f, run.ID)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	result := ExportResult{RunID: run.ID, Path: opts.Out, Lines: n}
	formatter := newFormatter(opts.RootOptions, cmd)
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Exported %d line(s) of run %s to %s\n", n, run.ID, opts.Out)
	return nil
}
