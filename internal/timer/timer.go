// Package timer implements the TON/TOFF/TP timer bank. Timers are
// looked up case-insensitively by name and created lazily the first
// time an instruction node executes, or synced (preset updated,
// created disabled) when a new program is deployed.
package timer

import (
	"log/slog"
	"strings"
	"time"

	"rungscan/internal/limits"
)

// Mode identifies which of the three timer instructions owns a timer.
type Mode uint8

const (
	ModeUnset Mode = iota
	TON
	TOFF
	TP
)

// Timer is one timer instance. The scan engine mutates these fields
// directly while evaluating TON/TOFF/TP instruction nodes (§4.G.7);
// the bank itself only stores and looks instances up by name.
type Timer struct {
	Name      string
	Mode      Mode
	Preset    time.Duration
	Enabled   bool
	Q         bool
	StartTime time.Time
	Remaining time.Duration
}

// Bank is the set of live timer instances for one program.
type Bank struct {
	byName map[string]*Timer
}

// New creates an empty timer bank.
func New() *Bank {
	return &Bank{byName: make(map[string]*Timer)}
}

func key(name string) string { return strings.ToUpper(strings.TrimSpace(name)) }

// Get looks a timer up by name, case-insensitively.
func (b *Bank) Get(name string) (*Timer, bool) {
	t, ok := b.byName[key(name)]
	return t, ok
}

// Output implements address.TimerLookup.
func (b *Bank) Output(name string) (q bool, found bool) {
	t, ok := b.Get(name)
	if !ok {
		return false, false
	}
	return t.Q, true
}

// GetOrCreate returns the named timer, creating it disabled with the
// given mode and preset if it doesn't exist yet. This is the lazy
// creation path: the first time an instruction node executes.
func (b *Bank) GetOrCreate(name string, mode Mode, preset time.Duration) *Timer {
	k := key(name)
	if t, ok := b.byName[k]; ok {
		return t
	}
	if len(b.byName) >= limits.MaxTimers {
		slog.Warn("timer bank capacity exceeded; instance not created", "name", name)
		return &Timer{Name: name, Mode: mode, Preset: preset}
	}
	t := &Timer{Name: name, Mode: mode, Preset: preset}
	b.byName[k] = t
	return t
}

// Sync is called at program-load time for every node whose instruction
// is TON/TOFF/TP: it updates Preset on an existing timer (preserving
// Enabled/StartTime/Q) or creates a new disabled instance for unseen
// names, truncating silently once the bank is at capacity.
func (b *Bank) Sync(name string, mode Mode, preset time.Duration) {
	k := key(name)
	if t, ok := b.byName[k]; ok {
		t.Preset = preset
		if t.Mode == ModeUnset {
			t.Mode = mode
		}
		return
	}
	if len(b.byName) >= limits.MaxTimers {
		slog.Warn("timer bank capacity exceeded; sync skipped", "name", name)
		return
	}
	b.byName[k] = &Timer{Name: name, Mode: mode, Preset: preset}
}

// Reset clears a timer's running state, as RESET on a T<name> address
// does: Enabled, Q, StartTime, and Remaining all go to zero/false, but
// Preset and Mode are preserved.
func (b *Bank) Reset(name string) {
	t, ok := b.Get(name)
	if !ok {
		return
	}
	t.Enabled = false
	t.Q = false
	t.StartTime = time.Time{}
	t.Remaining = 0
}

// Stop applies the STOP transition to every timer: Enabled and Q are
// cleared, StartTime zeroed, but Preset is preserved.
func (b *Bank) Stop() {
	for _, t := range b.byName {
		t.Enabled = false
		t.Q = false
		t.StartTime = time.Time{}
	}
}

// Clear removes every timer instance, as the RESET lifecycle
// transition does.
func (b *Bank) Clear() {
	b.byName = make(map[string]*Timer)
}

// Len reports the number of live timer instances.
func (b *Bank) Len() int { return len(b.byName) }

// All returns every timer instance, for snapshots. Order is unspecified.
func (b *Bank) All() []*Timer {
	out := make([]*Timer, 0, len(b.byName))
	for _, t := range b.byName {
		out = append(out, t)
	}
	return out
}
