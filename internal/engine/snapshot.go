package engine

import (
	"time"

	"rungscan/internal/counter"
	"rungscan/internal/lifecycle"
	"rungscan/internal/limits"
	"rungscan/internal/timer"
)

// Snapshot is a point-in-time view of engine state, published to
// subscribers no more often than limits.SnapshotMinInterval.
type Snapshot struct {
	Phase    lifecycle.Phase
	M        []int
	I        []int
	Q        []int
	D        map[int]uint32
	Timers   []timer.Timer
	Counters []counter.Counter
}

// Snapshot captures the current state synchronously, on the engine
// goroutine.
func (e *Engine) Snapshot() Snapshot {
	var snap Snapshot
	e.exec(func() { snap = e.buildSnapshot() })
	return snap
}

func (e *Engine) buildSnapshot() Snapshot {
	var timers []timer.Timer
	for _, t := range e.timers.All() {
		timers = append(timers, *t)
	}
	var counters []counter.Counter
	for _, c := range e.counters.All() {
		counters = append(counters, *c)
	}
	return Snapshot{
		Phase:    e.lifecycle.Phase(),
		M:        e.mem.NonZeroM(),
		I:        e.mem.SetI(),
		Q:        e.mem.SetQ(),
		D:        e.mem.NonZeroD(),
		Timers:   timers,
		Counters: counters,
	}
}

// Subscribe registers a channel that receives a Snapshot every time one
// is published. The channel is buffered by 1; a slow subscriber that
// hasn't drained the previous snapshot has the new one dropped rather
// than blocking the scan loop.
func (e *Engine) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	e.exec(func() { e.subscribers = append(e.subscribers, ch) })
	return ch
}

// maybePublish runs on the engine goroutine after each tick and
// broadcasts a snapshot to subscribers at most once per
// limits.SnapshotMinInterval.
func (e *Engine) maybePublish(now time.Time) {
	if len(e.subscribers) == 0 {
		return
	}
	if !e.lastPublish.IsZero() && now.Sub(e.lastPublish) < limits.SnapshotMinInterval {
		return
	}
	e.lastPublish = now
	snap := e.buildSnapshot()
	for _, ch := range e.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}
