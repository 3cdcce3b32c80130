package persist

import (
	"path/filepath"
	"testing"

	"rungscan/internal/program"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadStateBeforeAnySaveReportsNotFound(t *testing.T) {
	store := openTestStore(t)
	_, _, ok, err := store.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false before any SaveState")
	}
}

func TestSaveStateThenLoadStateRoundTrips(t *testing.T) {
	store := openTestStore(t)
	doc := program.Document{
		Nodes: []program.NodeDoc{{ID: 1, Type: "NETWORK", Addr: "Main"}},
	}
	if err := store.SaveState("RUN", doc); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	phase, got, ok, err := store.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true after SaveState")
	}
	if phase != "RUN" {
		t.Fatalf("phase = %q, want RUN", phase)
	}
	if len(got.Nodes) != 1 || got.Nodes[0].Addr != "Main" {
		t.Fatalf("got.Nodes = %+v, want one node with Addr Main", got.Nodes)
	}
}

func TestSaveStateUpsertsSingleRow(t *testing.T) {
	store := openTestStore(t)
	if err := store.SaveState("STOP", program.Document{}); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if err := store.SaveState("RUN", program.Document{}); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	phase, _, _, err := store.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if phase != "RUN" {
		t.Fatalf("phase = %q, want RUN (latest SaveState should overwrite)", phase)
	}
}
