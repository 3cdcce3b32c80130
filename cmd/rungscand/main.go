package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"rungscan/internal/control"
	"rungscan/internal/engine"
	"rungscan/internal/lifecycle"
	"rungscan/internal/logging"
	"rungscan/internal/persist"
	"rungscan/internal/program"
	"rungscan/internal/rdefaults"
	"rungscan/internal/transport/httpapi"
	"rungscan/internal/transport/sock"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var socketPath, httpAddr, dataRoot, programPath string
	var debug bool

	cmd := &cobra.Command{
		Use:     "rungscand",
		Short:   "Ladder-logic scan engine daemon",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelInfo
			if debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, socketPath, httpAddr, dataRoot, programPath)
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&socketPath, "socket", rdefaults.SocketPath(), "Unix control-socket path")
	cmd.Flags().StringVar(&httpAddr, "http-addr", rdefaults.HTTPAddr, "HTTP status/stream listen address")
	cmd.Flags().StringVar(&dataRoot, "data-root", rdefaults.DataRoot(), "State directory")
	cmd.Flags().StringVar(&programPath, "program", "", "Optional program document (JSON) to load on startup, if no persisted state exists")
	return cmd
}

func run(ctx context.Context, socketPath, httpAddr, dataRoot, programPath string) error {
	store, err := persist.Open(filepath.Join(dataRoot, "state.db"))
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer store.Close()

	eng := engine.New()
	ctrl := control.New(eng)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })

	if err := restore(ctrl, store, programPath); err != nil {
		return err
	}

	g.Go(func() error { return sock.New(ctrl).ListenAndServe(gctx, socketPath) })
	g.Go(func() error { return httpapi.New(ctrl, httpAddr).ListenAndServe(gctx) })
	g.Go(func() error { return persistLoop(gctx, ctrl, store) })

	return g.Wait()
}

// restore loads persisted engine state if present, falling back to
// --program for a first run. A previously RUN phase is resumed.
func restore(ctrl *control.Controller, store *persist.Store, programPath string) error {
	phase, doc, ok, err := store.LoadState()
	if err != nil {
		return fmt.Errorf("load persisted state: %w", err)
	}
	if !ok {
		if programPath == "" {
			return nil
		}
		data, err := os.ReadFile(programPath)
		if err != nil {
			return fmt.Errorf("read program file: %w", err)
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse program file: %w", err)
		}
		if err := ctrl.Load(doc); err != nil {
			return fmt.Errorf("load program: %w", err)
		}
		slog.Info("loaded initial program", "path", programPath)
		return nil
	}

	if len(doc.Nodes) > 0 {
		if err := ctrl.Load(doc); err != nil {
			return fmt.Errorf("load persisted program: %w", err)
		}
	}
	if phase == lifecycle.PhaseRun.String() {
		if err := ctrl.Start(); err != nil {
			return fmt.Errorf("resume run state: %w", err)
		}
	}
	slog.Info("restored persisted state", "phase", phase)
	return nil
}

// persistLoop periodically snapshots phase and program to disk so a
// restart resumes where it left off, and saves once more on shutdown.
func persistLoop(ctx context.Context, ctrl *control.Controller, store *persist.Store) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	save := func() {
		if err := store.SaveState(ctrl.Phase().String(), ctrl.Document()); err != nil {
			slog.Warn("persist: save state failed", "err", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			save()
			return nil
		case <-ticker.C:
			save()
		}
	}
}
