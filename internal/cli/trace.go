package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/shapeforge/internal/ir"
	"github.com/roach88/shapeforge/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - defaults to the latest run
	Machine  string // optional - filter to one machine
	List     bool   // list runs instead of tracing one
}

// TraceEvent is one journaled event in the timeline.
type TraceEvent struct {
	Seq          int64                     `json:"seq"`
	Type         string                    `json:"type"`
	Machine      string                    `json:"machine,omitempty"`
	Kind         string                    `json:"kind,omitempty"`
	Handle       string                    `json:"handle,omitempty"`
	Recipe       string                    `json:"recipe,omitempty"`
	Enabled      bool                      `json:"enabled,omitempty"`
	Error        string                    `json:"error,omitempty"`
	Transactions []store.TransactionRecord `json:"transactions,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run      store.RunRecord `json:"run"`
	Timeline []TraceEvent    `json:"timeline"`
	Stats    TraceStats      `json:"stats"`
}

// TraceStats holds summary statistics for the run.
type TraceStats struct {
	TotalEvents     int `json:"total_events"`
	FailedEvents    int `json:"failed_events"`
	Transactions    int `json:"transactions"`
	Shortfalls      int `json:"shortfalls"`
	DespawnFailures int `json:"despawn_failures"`
	SpawnFailures   int `json:"spawn_failures"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journal of a run",
		Long: `Show the journaled events of a run and the recipe transactions each
one triggered.

The output includes:
- Timeline: events in dispatch order with their transactions
- Stats: failed events, transactions, shortfalls and spawn/despawn failures

Examples:
  shapeforge trace --db ./run.db
  shapeforge trace --db ./run.db --list
  shapeforge trace --db ./run.db --run 0190a6c2-... --machine forge
  shapeforge trace --db ./run.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to trace (default: latest run)")
	cmd.Flags().StringVar(&opts.Machine, "machine", "", "only show events and transactions of this machine")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list runs")

	return cmd
}

// openJournal opens an existing journal. A missing file is a command error
// rather than a new empty database.
func openJournal(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// resolveRun returns the requested run, or the latest one.
func resolveRun(ctx context.Context, st *store.Store, runID string) (store.RunRecord, error) {
	var (
		run store.RunRecord
		err error
	)
	if runID == "" {
		run, err = st.LatestRun(ctx)
	} else {
		run, err = st.ReadRun(ctx, runID)
	}
	switch {
	case errors.Is(err, store.ErrNoRuns), errors.Is(err, store.ErrRunNotFound):
		return run, WrapExitError(ExitCommandError, "no such run", err)
	case err != nil:
		return run, WrapExitError(ExitCommandError, "failed to read run", err)
	}
	return run, nil
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.List {
		return listRuns(ctx, st, opts, cmd)
	}

	run, err := resolveRun(ctx, st, opts.RunID)
	if err != nil {
		return err
	}
	events, err := st.ReadEvents(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	txs, err := st.ReadTransactions(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read transactions", err)
	}

	result := TraceResult{
		Run:      run,
		Timeline: buildTimeline(events, txs, opts.Machine),
	}
	result.Stats = traceStats(result.Timeline)

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

// buildTimeline attaches transactions to the event that triggered them.
// When machine is set, only that machine's events and transactions are kept.
func buildTimeline(events []store.EventRecord, txs []store.TransactionRecord, machine string) []TraceEvent {
	bySeq := make(map[int64][]store.TransactionRecord)
	for _, tx := range txs {
		if machine != "" && tx.Machine != machine {
			continue
		}
		bySeq[tx.Seq] = append(bySeq[tx.Seq], tx)
	}

	timeline := []TraceEvent{}
	for _, ev := range events {
		if machine != "" && ev.Machine != machine {
			continue
		}
		timeline = append(timeline, TraceEvent{
			Seq:          ev.Seq,
			Type:         ev.Type,
			Machine:      ev.Machine,
			Kind:         string(ev.Kind),
			Handle:       string(ev.Handle),
			Recipe:       ev.Recipe,
			Enabled:      ev.Enabled,
			Error:        ev.Error,
			Transactions: bySeq[ev.Seq],
		})
	}
	return timeline
}

func traceStats(timeline []TraceEvent) TraceStats {
	stats := TraceStats{TotalEvents: len(timeline)}
	for _, ev := range timeline {
		if ev.Error != "" {
			stats.FailedEvents++
		}
		for _, tx := range ev.Transactions {
			stats.Transactions++
			stats.Shortfalls += len(tx.Shortfalls)
			stats.DespawnFailures += len(tx.DespawnFailures)
			if tx.SpawnError != "" {
				stats.SpawnFailures++
			}
		}
	}
	return stats
}

func listRuns(ctx context.Context, st *store.Store, opts *TraceOptions, cmd *cobra.Command) error {
	runs, err := st.ReadRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read runs", err)
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, runs)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  catalog=%s\n", r.ID, r.Label, truncateID(r.CatalogDigest))
	}
	return nil
}

// outputTraceJSON outputs data wrapped in a CLIResponse.
func outputTraceJSON(cmd *cobra.Command, data any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: data})
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Trace for Run: %s", result.Run.ID)
	if result.Run.Label != "" {
		fmt.Fprintf(w, " (%s)", result.Run.Label)
	}
	fmt.Fprintln(w)
	if verbose {
		fmt.Fprintf(w, "Catalog: %s\n", result.Run.CatalogDigest)
		fmt.Fprintf(w, "Engine: %s, journal v%s\n", result.Run.EngineVersion, result.Run.JournalVersion)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		formatTimelineEvent(w, ev, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events:     %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Failed Events:    %d\n", result.Stats.FailedEvents)
	fmt.Fprintf(w, "  Transactions:     %d\n", result.Stats.Transactions)
	fmt.Fprintf(w, "  Shortfalls:       %d\n", result.Stats.Shortfalls)
	fmt.Fprintf(w, "  Despawn Failures: %d\n", result.Stats.DespawnFailures)
	fmt.Fprintf(w, "  Spawn Failures:   %d\n", result.Stats.SpawnFailures)
	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, ev TraceEvent, verbose bool) {
	var parts []string
	if ev.Machine != "" {
		parts = append(parts, "machine="+ev.Machine)
	}
	if ev.Kind != "" {
		parts = append(parts, "kind="+ev.Kind)
	}
	if ev.Recipe != "" {
		parts = append(parts, "recipe="+ev.Recipe)
	}
	if ev.Type == "toggle" {
		parts = append(parts, fmt.Sprintf("enabled=%t", ev.Enabled))
	}
	if verbose && ev.Handle != "" {
		parts = append(parts, "handle="+truncateID(ev.Handle))
	}
	fmt.Fprintf(w, "  [%d] %s %s\n", ev.Seq, strings.ToUpper(ev.Type), strings.Join(parts, " "))
	if ev.Error != "" {
		fmt.Fprintf(w, "       ERROR: %s\n", ev.Error)
	}

	for _, tx := range ev.Transactions {
		fmt.Fprintf(w, "       %s -> %s %s\n", tx.Recipe, tx.Output, formatHandles(tx.Consumed))
		if len(tx.Shortfalls) > 0 {
			fmt.Fprintf(w, "         shortfall: %v\n", tx.Shortfalls)
		}
		if len(tx.DespawnFailures) > 0 {
			fmt.Fprintf(w, "         despawn failed: %s\n", formatHandles(tx.DespawnFailures))
		}
		if tx.SpawnError != "" {
			fmt.Fprintf(w, "         spawn failed: %s\n", tx.SpawnError)
		}
		if verbose {
			fmt.Fprintf(w, "         ID: %s\n", truncateID(tx.ID))
		}
	}
}

// formatHandles formats handles for display, truncating long ones.
func formatHandles(hs []ir.Handle) string {
	parts := make([]string, len(hs))
	for i, h := range hs {
		parts[i] = truncateID(string(h))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
