// Package lifecycle implements the STOP/RUN/ERROR state machine, plus
// the RESET command, that governs whether the scan engine is advancing
// memory state.
package lifecycle

import (
	"fmt"
	"log/slog"

	"rungscan/internal/counter"
	"rungscan/internal/memory"
	"rungscan/internal/timer"
)

// Phase is one of the three lifecycle states a controller can be in.
// There is no RESET phase: Reset clears state and lands in PhaseStop.
type Phase uint8

const (
	// PhaseStop is the initial phase: outputs are held low, no scan runs.
	PhaseStop Phase = iota
	PhaseRun
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseStop:
		return "STOP"
	case PhaseRun:
		return "RUN"
	case PhaseError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Controller owns the lifecycle phase and applies the memory/timer/
// counter side effects each transition requires.
type Controller struct {
	phase Phase
	mem   *memory.Bank
	tm    *timer.Bank
	ct    *counter.Bank
}

// New creates a controller in PhaseStop, the engine's boot state.
func New(mem *memory.Bank, tm *timer.Bank, ct *counter.Bank) *Controller {
	return &Controller{phase: PhaseStop, mem: mem, tm: tm, ct: ct}
}

// Phase reports the current lifecycle phase.
func (c *Controller) Phase() Phase { return c.phase }

// InvalidTransitionError reports a rejected lifecycle transition, so
// callers can classify it (e.g. as a failed-precondition) without
// string-matching.
type InvalidTransitionError struct {
	From Phase
	To   Phase
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

// Run transitions STOP -> RUN. It is a no-op if already in RUN.
// ERROR cannot transition directly to RUN — Reset must clear it first.
func (c *Controller) Run() error {
	switch c.phase {
	case PhaseRun:
		return nil
	case PhaseStop:
		c.phase = PhaseRun
		return nil
	default:
		return &InvalidTransitionError{From: c.phase, To: PhaseRun}
	}
}

// Stop transitions RUN or ERROR -> STOP, clearing outputs (Q and M) and
// stopping every timer and counter (Enabled/Q/Current clear, Preset and
// Mode are preserved so a subsequent RUN resumes with the same presets).
func (c *Controller) Stop() {
	c.phase = PhaseStop
	c.mem.ResetOutputs()
	c.tm.Stop()
	c.ct.Stop()
}

// Fault transitions to PhaseError from any state. Unlike Stop, memory,
// timers, and counters are left exactly as they were — ERROR only
// halts scanning, it does not clear state.
func (c *Controller) Fault(reason string) {
	slog.Error("scan engine entering ERROR", "reason", reason, "from", c.phase)
	c.phase = PhaseError
}

// Reset clears all memory regions and every timer/counter instance,
// then transitions to STOP regardless of the prior phase. Reset and Stop
// both leave ERROR; Run does not.
func (c *Controller) Reset() {
	c.phase = PhaseStop
	c.mem.Reset()
	c.tm.Clear()
	c.ct.Clear()
}
