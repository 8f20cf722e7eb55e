package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/shapeforge/internal/engine"
	"github.com/roach88/shapeforge/internal/ir"
	"github.com/roach88/shapeforge/internal/store"
	"github.com/roach88/shapeforge/internal/transport/ws"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Catalog  string
	Level    string
	Database string
	Addr     string

	// ready, if set, receives the bound address once listening (for testing).
	ready chan<- string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the machine UI over WebSocket",
		Long: `Build the level and serve it on a WebSocket endpoint at /ws.

Each connection has its own machine selection. Clients send JSON requests
named after engine events (select, clear_selection, toggle, manual_spawn,
describe, shape_entered, shape_left) and receive one response per request.

Examples:
  shapeforge serve --catalog shapes.yaml --level level.yaml
  shapeforge serve --catalog shapes.yaml --level level.yaml --addr :9000 --db live.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "path to the shape catalog (required)")
	_ = cmd.MarkFlagRequired("catalog")
	cmd.Flags().StringVar(&opts.Level, "level", "", "path to the level file (required)")
	_ = cmd.MarkFlagRequired("level")
	cmd.Flags().StringVar(&opts.Database, "db", "", "journal events to this SQLite database")
	cmd.Flags().StringVar(&opts.Addr, "addr", "127.0.0.1:8080", "listen address")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	log := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	lw, err := loadWorld(opts.Catalog, opts.Level, log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load world", err)
	}

	engOpts := []engine.EngineOption{engine.WithLogger(log)}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		runID := uuid.Must(uuid.NewV7()).String()
		if err := st.BeginRun(context.Background(), store.RunRecord{
			ID:             runID,
			Label:          "serve " + opts.Level,
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

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewServer(eng, log).Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	engDone := make(chan error, 1)
	go func() { engDone <- eng.Run(ctx) }()

	srvDone := make(chan error, 1)
	go func() { srvDone <- srv.Serve(ln) }()

	log.Info("serving", "addr", ln.Addr().String(), "machines", len(lw.world.Names()), "run_id", eng.RunID())
	if opts.ready != nil {
		opts.ready <- ln.Addr().String()
	}

	select {
	case <-ctx.Done():
	case err := <-srvDone:
		cancel()
		<-engDone
		return WrapExitError(ExitFailure, "server error", err)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	if err := <-engDone; err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "engine error", err)
	}
	log.Info("stopped gracefully")
	return nil
}
