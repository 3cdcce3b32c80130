// Package counter implements the CTU/CTD counter bank. Unlike timers,
// counter names are looked up case-sensitively — a historical
// asymmetry preserved from the original implementation (see spec.md §9
// and DESIGN.md).
package counter

import (
	"log/slog"

	"rungscan/internal/limits"
)

// Mode identifies which counter instruction owns a counter.
type Mode uint8

const (
	ModeUnset Mode = iota
	CTU
	CTD
)

// Counter is one counter instance.
type Counter struct {
	Name    string
	Mode    Mode
	Preset  int
	Current int
	Q       bool
}

// Bank is the set of live counter instances for one program.
type Bank struct {
	byName map[string]*Counter
}

// New creates an empty counter bank.
func New() *Bank {
	return &Bank{byName: make(map[string]*Counter)}
}

// Get looks a counter up by name, case-sensitively.
func (b *Bank) Get(name string) (*Counter, bool) {
	c, ok := b.byName[name]
	return c, ok
}

// Output implements address.CounterLookup.
func (b *Bank) Output(name string) (q bool, found bool) {
	c, ok := b.Get(name)
	if !ok {
		return false, false
	}
	return c.Q, true
}

// GetOrCreate returns the named counter, creating it if it doesn't
// exist yet. CTD counters start at Current == Preset; CTU counters
// start at Current == 0.
func (b *Bank) GetOrCreate(name string, mode Mode, preset int) *Counter {
	if c, ok := b.byName[name]; ok {
		return c
	}
	if len(b.byName) >= limits.MaxCounters {
		slog.Warn("counter bank capacity exceeded; instance not created", "name", name)
		return &Counter{Name: name, Mode: mode, Preset: preset, Current: initialCurrent(mode, preset)}
	}
	c := &Counter{Name: name, Mode: mode, Preset: preset, Current: initialCurrent(mode, preset)}
	b.byName[name] = c
	return c
}

func initialCurrent(mode Mode, preset int) int {
	if mode == CTD {
		return preset
	}
	return 0
}

// Sync is called at program-load time for every node whose instruction
// is CTU/CTD: it updates Preset on an existing counter or creates a new
// instance for unseen names, truncating silently once at capacity.
func (b *Bank) Sync(name string, mode Mode, preset int) {
	if c, ok := b.byName[name]; ok {
		c.Preset = preset
		if c.Mode == ModeUnset {
			c.Mode = mode
		}
		return
	}
	if len(b.byName) >= limits.MaxCounters {
		slog.Warn("counter bank capacity exceeded; sync skipped", "name", name)
		return
	}
	b.byName[name] = &Counter{Name: name, Mode: mode, Preset: preset, Current: initialCurrent(mode, preset)}
}

// Reset clears a counter's running state, as RESET on a C<name>
// address does: Current and Q both go to zero/false.
func (b *Bank) Reset(name string) {
	c, ok := b.Get(name)
	if !ok {
		return
	}
	c.Current = 0
	c.Q = false
}

// Clear removes every counter instance, as the RESET lifecycle
// transition does.
func (b *Bank) Clear() {
	b.byName = make(map[string]*Counter)
}

// Stop applies the STOP transition: every counter's Current and Q are
// cleared, Preset preserved.
func (b *Bank) Stop() {
	for _, c := range b.byName {
		c.Current = 0
		c.Q = false
	}
}

// Len reports the number of live counter instances.
func (b *Bank) Len() int { return len(b.byName) }

// All returns every counter instance, for snapshots. Order is unspecified.
func (b *Bank) All() []*Counter {
	out := make([]*Counter, 0, len(b.byName))
	for _, c := range b.byName {
		out = append(out, c)
	}
	return out
}
