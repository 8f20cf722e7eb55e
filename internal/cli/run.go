package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/shapeforge/internal/catalog"
	"github.com/roach88/shapeforge/internal/engine"
	"github.com/roach88/shapeforge/internal/ir"
	"github.com/roach88/shapeforge/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Catalog  string
	Level    string
	Database string
	Label    string

	// RunID overrides the generated uuid v7 run ID (for testing).
	RunID string
}

// RunEvent is the outcome of one scripted event.
type RunEvent struct {
	Seq          int64  `json:"seq"`
	Type         string `json:"type"`
	Machine      string `json:"machine,omitempty"`
	Kind         string `json:"kind,omitempty"`
	Handle       string `json:"handle,omitempty"`
	Recipe       string `json:"recipe,omitempty"`
	Produced     string `json:"produced,omitempty"`
	Selected     string `json:"selected,omitempty"`
	Transactions int    `json:"transactions,omitempty"`
	Error        string `json:"error,omitempty"`
}

// RunResult summarizes a scripted run.
type RunResult struct {
	RunID        string         `json:"run_id,omitempty"`
	Events       []RunEvent     `json:"events"`
	Transactions int            `json:"transactions"`
	Failed       int            `json:"failed"`
	Live         map[string]int `json:"live"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Drive a level with a scripted event sequence",
		Long: `Build the level's machines and feed them the events in a script file.

Events go through the engine's single-writer loop exactly as live proximity
and UI events would. A failed event is reported and the run continues.
With --db, every event and transaction is journaled to SQLite.

Example script:
  events:
    - {type: shape_entered, machine: forge, kind: Cube, id: c1}
    - {type: shape_entered, machine: forge, kind: Sphere}
    - {type: select, machine: forge}
    - {type: manual_spawn, recipe: Merge}

Examples:
  shapeforge run --catalog shapes.yaml --level level.yaml script.yaml
  shapeforge run --catalog shapes.yaml --level level.yaml --db run.db script.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "path to the shape catalog (required)")
	_ = cmd.MarkFlagRequired("catalog")
	cmd.Flags().StringVar(&opts.Level, "level", "", "path to the level file (required)")
	_ = cmd.MarkFlagRequired("level")
	cmd.Flags().StringVar(&opts.Database, "db", "", "journal events to this SQLite database")
	cmd.Flags().StringVar(&opts.Label, "label", "", "run label (defaults to the script name)")

	return cmd
}

func runScript(opts *RunOptions, scriptPath string, cmd *cobra.Command) error {
	log := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	script, err := LoadScript(scriptPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load script", err)
	}
	lw, err := loadWorld(opts.Catalog, opts.Level, log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load world", err)
	}

	engOpts := []engine.EngineOption{engine.WithLogger(log)}
	var runID string
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		runID = opts.RunID
		if runID == "" {
			runID = uuid.Must(uuid.NewV7()).String()
		}
		label := opts.Label
		if label == "" {
			label = filepath.Base(scriptPath)
		}
		if err := st.BeginRun(context.Background(), store.RunRecord{
			ID:             runID,
			Label:          label,
			CatalogDigest:  lw.catalog.Digest(),
			EngineVersion:  ir.EngineVersion,
			JournalVersion: ir.JournalVersion,
		}); err != nil {
			return WrapExitError(ExitCommandError, "failed to begin run", err)
		}
		engOpts = append(engOpts, engine.WithJournal(st, runID))
	}
	eng := engine.New(lw.world, engOpts...)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	result := RunResult{RunID: runID, Events: []RunEvent{}}
	aliases := make(map[string]ir.Handle)
	for i, sev := range script.Events {
		ev, err := scriptEvent(ctx, lw, aliases, sev)
		if err != nil {
			cancel()
			<-done
			return WrapExitError(ExitCommandError, fmt.Sprintf("events[%d]", i), err)
		}

		reply := make(chan engine.Result, 1)
		ev.Reply = reply
		eng.Enqueue(ev)

		var res engine.Result
		select {
		case res = <-reply:
		case <-ctx.Done():
			<-done
			return WrapExitError(ExitFailure, "run interrupted", ctx.Err())
		}

		re := RunEvent{
			Seq:          res.Seq,
			Type:         res.Type.String(),
			Machine:      ev.Machine,
			Kind:         string(ev.Kind),
			Handle:       string(ev.Handle),
			Recipe:       ev.Recipe,
			Produced:     string(res.Produced),
			Selected:     res.Selected,
			Transactions: len(res.Transactions),
		}
		if res.Err != nil {
			re.Error = res.Err.Error()
			result.Failed++
		}
		result.Transactions += len(res.Transactions)
		result.Events = append(result.Events, re)
	}

	eng.Stop()
	if err := <-done; err != nil && err != context.Canceled {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	result.Live = make(map[string]int)
	for _, inst := range lw.sim.Live() {
		result.Live[string(inst.Kind)]++
	}

	return outputRun(newFormatter(opts.RootOptions, cmd), result)
}

// scriptEvent converts a script entry, placing shapes for new IDs.
func scriptEvent(ctx context.Context, lw *loaded, aliases map[string]ir.Handle, sev ScriptEvent) (engine.Event, error) {
	t, err := engine.ParseEventType(sev.Type)
	if err != nil {
		return engine.Event{}, err
	}
	ev := engine.Event{
		Type:    t,
		Machine: sev.Machine,
		Kind:    ir.Kind(sev.Kind),
		Recipe:  sev.Recipe,
		Enabled: sev.Enabled,
	}
	if t != engine.EventShapeEntered && t != engine.EventShapeLeft {
		return ev, nil
	}

	if h, ok := aliases[sev.ID]; ok && sev.ID != "" {
		ev.Handle = h
		return ev, nil
	}
	var at ir.Location
	if m, ok := lw.world.Machine(sev.Machine); ok {
		at = m.Location()
	}
	h, err := lw.sim.Place(ctx, ev.Kind, at)
	if errors.Is(err, catalog.ErrNotFound) {
		// Not in the shape table: there is nothing to spawn, but the
		// machine should still see (and reject) the event.
		h = ir.Handle("unplaced")
		if sev.ID != "" {
			h = ir.Handle(sev.ID)
		}
	} else if err != nil {
		return engine.Event{}, err
	}
	if sev.ID != "" {
		aliases[sev.ID] = h
	}
	ev.Handle = h
	return ev, nil
}

func outputRun(formatter *OutputFormatter, result RunResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, ev := range result.Events {
		line := fmt.Sprintf("[%d] %s", ev.Seq, ev.Type)
		if ev.Machine != "" {
			line += " machine=" + ev.Machine
		}
		if ev.Kind != "" {
			line += " kind=" + ev.Kind
		}
		if ev.Recipe != "" {
			line += " recipe=" + ev.Recipe
		}
		if ev.Transactions > 0 {
			line += fmt.Sprintf(" transactions=%d", ev.Transactions)
		}
		if ev.Produced != "" {
			line += " produced=" + ev.Produced
		}
		if ev.Error != "" {
			line += " error=" + ev.Error
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Events: %d (%d failed), transactions: %d\n", len(result.Events), result.Failed, result.Transactions)
	kinds := make([]string, 0, len(result.Live))
	for k := range result.Live {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  live %s: %d\n", k, result.Live[k])
	}
	if result.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", result.RunID)
	}
	return nil
}
