package engine

import (
	"context"
	"testing"
	"time"

	"rungscan/internal/lifecycle"
	"rungscan/internal/program"
)

func runInBackground(t *testing.T, e *Engine) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)
	return cancel
}

func TestLoadStartScansAndEnergizesCoil(t *testing.T) {
	e := New()
	cancel := runInBackground(t, e)
	defer cancel()

	doc := program.Document{
		Nodes: []program.NodeDoc{
			{ID: 1, Type: "NETWORK"},
			{ID: 2, Type: "OPEN", Addr: "M0"},
			{ID: 3, Type: "COIL", Addr: "Q0"},
		},
		LinkData: []program.LinkDoc{{From: 1, To: 2}, {From: 2, To: 3}},
	}
	if err := e.Load(doc); err != nil {
		t.Fatalf("Load: %v", err)
	}
	e.WriteBit("M0", true)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := e.Snapshot()
		for _, q := range snap.Q {
			if q == 0 {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("Q0 never energized after Start")
}

func TestStopReturnsPhaseToStop(t *testing.T) {
	e := New()
	cancel := runInBackground(t, e)
	defer cancel()

	if e.Phase() != lifecycle.PhaseStop {
		t.Fatalf("initial Phase = %v, want STOP", e.Phase())
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	e.Stop()
	if e.Phase() != lifecycle.PhaseStop {
		t.Fatalf("Phase after Stop = %v, want STOP", e.Phase())
	}
}

func TestSubscribeReceivesSnapshot(t *testing.T) {
	e := New()
	cancel := runInBackground(t, e)
	defer cancel()

	ch := e.Subscribe()
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot published within 2s")
	}
}
