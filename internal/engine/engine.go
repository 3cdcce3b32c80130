// Package engine owns one running ladder program: the memory, timer,
// and counter banks, the lifecycle controller, and the scan ticker.
// Everything that touches engine state — a scan tick or an external
// command like Load/Start/Stop/Write — runs on a single goroutine, the
// cooperative scheduling model the scan engine requires. External
// callers marshal onto that goroutine through exec, the way the
// reconciliation worker loop this is grounded on took its commands
// off a channel rather than guarding state with a mutex directly.
package engine

import (
	"context"
	"log/slog"
	"time"

	"rungscan/internal/address"
	"rungscan/internal/counter"
	"rungscan/internal/lifecycle"
	"rungscan/internal/limits"
	"rungscan/internal/memory"
	"rungscan/internal/program"
	"rungscan/internal/scan"
	"rungscan/internal/timer"
)

type command struct {
	fn   func()
	done chan struct{}
}

// Engine drives one scan cycle per tick while it's in lifecycle.PhaseRun,
// and accepts external commands between ticks.
type Engine struct {
	mem       *memory.Bank
	timers    *timer.Bank
	counters  *counter.Bank
	resolver  *address.Resolver
	lifecycle *lifecycle.Controller
	prog      *program.Program

	cmds        chan command
	subscribers []chan Snapshot
	lastPublish time.Time
	lastDoc     program.Document
}

// New creates an engine with an empty program, in PhaseStop.
func New() *Engine {
	mem := memory.New()
	timers := timer.New()
	counters := counter.New()
	e := &Engine{
		mem:      mem,
		timers:   timers,
		counters: counters,
		resolver: address.New(mem, timers, counters),
		cmds:     make(chan command),
	}
	e.lifecycle = lifecycle.New(mem, timers, counters)
	e.prog = &program.Program{ByID: map[int]*program.Node{}, OutLinks: map[int][]int{}}
	return e
}

// Run drives the scan ticker and command loop until ctx is canceled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(limits.ScanInterval)
	defer ticker.Stop()

	log := slog.With("component", "scan-engine")
	log.Info("engine started")
	defer log.Info("engine stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-e.cmds:
			cmd.fn()
			close(cmd.done)
		case now := <-ticker.C:
			e.tick(now)
		}
	}
}

func (e *Engine) tick(now time.Time) {
	if e.lifecycle.Phase() != lifecycle.PhaseRun {
		return
	}
	scan.Run(e.prog, e.resolver, e.timers, e.counters, now)
	e.maybePublish(now)
}

// exec marshals fn onto the engine's Run goroutine and waits for it to
// finish. Must not be called from inside Run's own goroutine.
func (e *Engine) exec(fn func()) {
	done := make(chan struct{})
	e.cmds <- command{fn: fn, done: done}
	<-done
}

// Load validates and installs a new program. The previous program keeps
// running (whatever lifecycle phase it's in) until the new one is fully
// built — Load never leaves the engine with a half-installed program.
// A document that fails validation is not installed, and the engine is
// put in STOP.
func (e *Engine) Load(doc program.Document) error {
	if err := program.Validate(doc); err != nil {
		e.exec(func() { e.lifecycle.Stop() })
		return err
	}
	e.exec(func() {
		e.prog = program.Load(doc, e.timers, e.counters)
		e.lastDoc = doc
		slog.Info("program loaded", "nodes", len(e.prog.Order))
	})
	return nil
}

// Document returns the most recently loaded program document, for
// persisting engine state across restarts.
func (e *Engine) Document() program.Document {
	var doc program.Document
	e.exec(func() { doc = e.lastDoc })
	return doc
}

// Start transitions STOP -> RUN.
func (e *Engine) Start() error {
	var err error
	e.exec(func() { err = e.lifecycle.Run() })
	return err
}

// Stop transitions to STOP, clearing outputs.
func (e *Engine) Stop() {
	e.exec(func() { e.lifecycle.Stop() })
}

// ResetAll clears all memory/timers/counters and returns to STOP.
func (e *Engine) ResetAll() {
	e.exec(func() { e.lifecycle.Reset() })
}

// Phase reports the current lifecycle phase.
func (e *Engine) Phase() lifecycle.Phase {
	var p lifecycle.Phase
	e.exec(func() { p = e.lifecycle.Phase() })
	return p
}

// WriteBit writes a single bit address (M/I/Q/D/D.bit), for operator
// forcing of inputs from a test rig or manual override.
func (e *Engine) WriteBit(addr string, v bool) {
	e.exec(func() {
		e.resolver.WriteBit(address.Parse(addr), v)
	})
}
