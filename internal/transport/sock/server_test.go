package sock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"rungscan/internal/control"
	"rungscan/internal/engine"
	"rungscan/internal/program"
)

func TestLoadStartAndSnapshotOverSocket(t *testing.T) {
	eng := engine.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	srv := New(control.New(eng))
	socketPath := filepath.Join(t.TempDir(), "rungscan.sock")

	go srv.ListenAndServe(ctx, socketPath)
	waitForSocket(t, socketPath)

	client, err := Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	doc := program.Document{
		Nodes: []program.NodeDoc{
			{ID: 1, Type: "NETWORK"},
			{ID: 2, Type: "OPEN", Addr: "M0"},
			{ID: 3, Type: "COIL", Addr: "Q0"},
		},
		LinkData: []program.LinkDoc{{From: 1, To: 2}, {From: 2, To: 3}},
	}
	resp, err := client.Call(Request{Cmd: CmdLoad, Document: &doc})
	if err != nil || !resp.OK {
		t.Fatalf("load: resp=%+v err=%v", resp, err)
	}

	resp, err = client.Call(Request{Cmd: CmdWrite, Addr: "M0", Value: true})
	if err != nil || !resp.OK {
		t.Fatalf("write: resp=%+v err=%v", resp, err)
	}

	resp, err = client.Call(Request{Cmd: CmdStart})
	if err != nil || !resp.OK {
		t.Fatalf("start: resp=%+v err=%v", resp, err)
	}

	resp, err = client.Call(Request{Cmd: CmdPhase})
	if err != nil || !resp.OK || resp.Result != "RUN" {
		t.Fatalf("phase: resp=%+v err=%v", resp, err)
	}
}

func TestUnknownCommandReturnsError(t *testing.T) {
	eng := engine.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	srv := New(control.New(eng))
	socketPath := filepath.Join(t.TempDir(), "rungscan.sock")
	go srv.ListenAndServe(ctx, socketPath)
	waitForSocket(t, socketPath)

	client, err := Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	resp, err := client.Call(Request{Cmd: "bogus"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.OK {
		t.Fatal("expected OK=false for unknown command")
	}
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c, err := Dial(path); err == nil {
			c.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("socket %s never became available", path)
}
