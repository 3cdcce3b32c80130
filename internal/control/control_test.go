package control

import (
	"context"
	"testing"
	"time"

	"rungscan/internal/engine"
	"rungscan/internal/program"

	"google.golang.org/grpc/codes"
)

func TestLoadThenStartThenSnapshot(t *testing.T) {
	eng := engine.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	c := New(eng)
	doc := program.Document{
		Nodes: []program.NodeDoc{
			{ID: 1, Type: "NETWORK"},
			{ID: 2, Type: "OPEN", Addr: "M0"},
			{ID: 3, Type: "COIL", Addr: "Q0"},
		},
		LinkData: []program.LinkDoc{{From: 1, To: 2}, {From: 2, To: 3}},
	}
	if err := c.Load(doc); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Write("M0", true)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := c.Snapshot()
		for _, q := range snap.Q {
			if q == 0 {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("Q0 never energized")
}

func TestDuplicateIDRejectedAsInvalidArgument(t *testing.T) {
	eng := engine.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	c := New(eng)
	doc := program.Document{Nodes: []program.NodeDoc{{ID: 1}, {ID: 1}}}

	err := c.Load(doc)
	if err == nil {
		t.Fatal("expected duplicate id to be rejected")
	}
	if Code(err) != codes.InvalidArgument {
		t.Fatalf("Code = %v, want InvalidArgument", Code(err))
	}
}
