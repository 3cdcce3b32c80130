package lifecycle

import (
	"testing"

	"rungscan/internal/counter"
	"rungscan/internal/memory"
	"rungscan/internal/timer"
)

func newController() *Controller {
	return New(memory.New(), timer.New(), counter.New())
}

func TestRunStopRoundTripPreservesPresets(t *testing.T) {
	mem := memory.New()
	tm := timer.New()
	ct := counter.New()
	c := New(mem, tm, ct)

	timerInst := tm.GetOrCreate("0", timer.TON, 500_000_000)
	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	timerInst.Enabled = true

	c.Stop()
	if timerInst.Enabled {
		t.Fatal("Stop must clear Enabled")
	}
	if timerInst.Preset != 500_000_000 {
		t.Fatal("Stop must preserve Preset")
	}

	if err := c.Run(); err != nil {
		t.Fatalf("Run after Stop: %v", err)
	}
	if c.Phase() != PhaseRun {
		t.Fatalf("Phase = %v, want RUN", c.Phase())
	}
}

func TestFaultBlocksRunUntilReset(t *testing.T) {
	c := newController()
	c.Fault("scan did not converge")

	if err := c.Run(); err == nil {
		t.Fatal("expected Run from ERROR to fail")
	}
	c.Reset()
	if err := c.Run(); err != nil {
		t.Fatalf("Run after Reset: %v", err)
	}
}

func TestResetClearsMemoryAndInstances(t *testing.T) {
	mem := memory.New()
	tm := timer.New()
	ct := counter.New()
	c := New(mem, tm, ct)

	mem.WriteBitM(0, true)
	tm.GetOrCreate("0", timer.TON, 1)
	ct.GetOrCreate("0", counter.CTU, 1)

	c.Reset()

	if mem.ReadBitM(0) {
		t.Fatal("Reset must clear memory")
	}
	if tm.Len() != 0 || ct.Len() != 0 {
		t.Fatal("Reset must remove all timer/counter instances")
	}
}
