// Package scan implements the per-cycle ladder evaluation: network
// seeding (P1), iterative propagation to a fixpoint (P2), and the
// commit phase (P4) that applies coil/timer/counter/instruction side
// effects. Networks are executed in numeric N<k> order, and a
// network's P4 always runs before the next network's P1 — so a later
// network sees memory writes an earlier network made this same cycle
// (§4.G.1).
package scan

import (
	"log/slog"
	"time"

	"rungscan/internal/address"
	"rungscan/internal/counter"
	"rungscan/internal/limits"
	"rungscan/internal/netid"
	"rungscan/internal/program"
	"rungscan/internal/timer"
)

// Run executes one full scan cycle against p, in place. now is the
// instant used for all timer arithmetic this cycle, supplied by the
// caller so engine ticking stays testable.
func Run(p *program.Program, res *address.Resolver, timers *timer.Bank, counters *counter.Bank, now time.Time) {
	groups := groupByNetwork(p)
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	netid.SortIDs(ids)

	for _, netID := range ids {
		members := groups[netID]
		in := reverseAdjacency(p, members)

		seed(p, members)
		propagate(p, res, members, in)
		commit(p, res, timers, counters, members, now)
	}

	for _, id := range p.Order {
		n := p.ByID[id]
		n.PrevOutput = n.Output
		n.PrevInput = n.Input
		if n.Addr.Kind != address.KindUnknown {
			n.PrevContact = res.AddressAsBit(n.Addr)
		}
	}
}

func groupByNetwork(p *program.Program) map[string][]int {
	out := make(map[string][]int)
	for _, id := range p.Order {
		n := p.ByID[id]
		out[n.NetworkID] = append(out[n.NetworkID], id)
	}
	return out
}

// reverseAdjacency builds id -> predecessor ids, restricted to links
// whose endpoints are both in members.
func reverseAdjacency(p *program.Program, members []int) map[int][]int {
	inNetwork := make(map[int]bool, len(members))
	for _, id := range members {
		inNetwork[id] = true
	}
	in := make(map[int][]int)
	for _, l := range p.Links {
		if inNetwork[l.From] && inNetwork[l.To] {
			in[l.To] = append(in[l.To], l.From)
		}
	}
	return in
}

// seed is P1: NETWORK nodes are the rail source and always carry power.
func seed(p *program.Program, members []int) {
	for _, id := range members {
		n := p.ByID[id]
		if n.Type == program.TypeNetwork {
			n.Input = true
			n.Output = true
		}
	}
}

// propagate is P2: iterate every non-NETWORK node's input/output to a
// fixpoint, capped at limits.P2MaxIterations passes.
func propagate(p *program.Program, res *address.Resolver, members []int, in map[int][]int) {
	for pass := 0; pass < limits.P2MaxIterations; pass++ {
		changed := false
		for _, id := range members {
			n := p.ByID[id]
			if n.Type == program.TypeNetwork {
				continue
			}
			input := false
			for _, pred := range in[id] {
				pn := p.ByID[pred]
				if pn.Type == program.TypeInstruction {
					continue // instruction nodes do not propagate in P2
				}
				if pn.Output {
					input = true
					break
				}
			}
			output := evaluate(n, res, input)
			if input != n.Input || output != n.Output {
				changed = true
			}
			n.Input = input
			n.Output = output
		}
		if !changed {
			return
		}
	}
	slog.Warn("P2 propagation did not converge", "iterations", limits.P2MaxIterations)
}

// evaluate computes a node's propagated output for this pass. Nodes
// with commit-phase side effects (COIL/SET/RESET/INSTRUCTION) pass
// power through unchanged here; their effects apply in commit.
func evaluate(n *program.Node, res *address.Resolver, input bool) bool {
	switch n.Type {
	case program.TypeOpen:
		return input && res.AddressAsBit(n.Addr)
	case program.TypeClose:
		return input && !res.AddressAsBit(n.Addr)
	case program.TypeRising:
		return input && res.AddressAsBit(n.Addr) && !n.PrevContact
	case program.TypeFalling:
		return input && !res.AddressAsBit(n.Addr) && n.PrevContact
	case program.TypeInvert:
		return input && !res.AddressAsBit(n.Addr)
	default: // COIL, SET, RESET, INSTRUCTION
		return input
	}
}

// commit is P4: apply the side effects propagation alone can't express.
func commit(p *program.Program, res *address.Resolver, timers *timer.Bank, counters *counter.Bank, members []int, now time.Time) {
	for _, id := range members {
		n := p.ByID[id]
		switch n.Type {
		case program.TypeCoil:
			res.WriteBit(n.Addr, n.Input)
		case program.TypeSet:
			if n.Input {
				res.WriteBit(n.Addr, true)
			}
		case program.TypeReset:
			if n.Input {
				applyReset(res, timers, counters, n.Addr)
			}
		case program.TypeInstruction:
			execute(res, timers, counters, n, now)
		}
	}
}

func applyReset(res *address.Resolver, timers *timer.Bank, counters *counter.Bank, a address.Address) {
	switch a.Kind {
	case address.KindT:
		timers.Reset(a.Name)
	case address.KindC:
		counters.Reset(a.Name)
	default:
		res.WriteBit(a, false)
	}
}

func execute(res *address.Resolver, timers *timer.Bank, counters *counter.Bank, n *program.Node, now time.Time) {
	switch n.Instruction {
	case "TON", "TOFF", "TP":
		runTimer(timers, n, now)
	case "CTU", "CTD":
		runCounter(counters, n)
	default:
		if n.Input {
			runWordOp(res, n)
		}
	}
}

func runTimer(timers *timer.Bank, n *program.Node, now time.Time) {
	name, preset, ok := program.ParseNamePreset(n.Args)
	if !ok {
		slog.Error("timer instruction node has malformed args", "node", n.ID, "args", n.Args)
		return
	}
	mode := timer.TON
	switch n.Instruction {
	case "TOFF":
		mode = timer.TOFF
	case "TP":
		mode = timer.TP
	}
	t := timers.GetOrCreate(name, mode, time.Duration(preset)*time.Millisecond)

	switch n.Instruction {
	case "TON":
		if n.Input {
			if !t.Enabled {
				t.Enabled = true
				t.StartTime = now
			}
			t.Remaining = t.Preset - now.Sub(t.StartTime)
			t.Q = t.Remaining <= 0
		} else {
			t.Enabled = false
			t.Q = false
			t.Remaining = t.Preset
		}
	case "TOFF":
		if n.Input {
			t.Enabled = true
			t.Q = true
			t.StartTime = time.Time{}
			t.Remaining = t.Preset
		} else if t.Enabled {
			if t.StartTime.IsZero() {
				t.StartTime = now
			}
			t.Remaining = t.Preset - now.Sub(t.StartTime)
			if t.Remaining <= 0 {
				t.Enabled = false
				t.Q = false
				t.StartTime = time.Time{}
				t.Remaining = 0
			} else {
				t.Q = true
			}
		} else {
			t.Q = false
			t.Remaining = 0
		}
	case "TP":
		if n.Input && !n.PrevInput && !t.Enabled {
			t.Enabled = true
			t.StartTime = now
			t.Q = true
		}
		if t.Enabled {
			t.Remaining = t.Preset - now.Sub(t.StartTime)
			if t.Remaining <= 0 {
				t.Enabled = false
				t.Q = false
				t.Remaining = 0
			} else {
				t.Q = true
			}
		}
	}
	n.Output = t.Q
}

func runCounter(counters *counter.Bank, n *program.Node) {
	name, preset, ok := program.ParseNamePreset(n.Args)
	if !ok {
		slog.Error("counter instruction node has malformed args", "node", n.ID, "args", n.Args)
		return
	}
	mode := counter.CTU
	if n.Instruction == "CTD" {
		mode = counter.CTD
	}
	c := counters.GetOrCreate(name, mode, preset)

	rising := n.Input && !n.PrevInput
	if rising {
		switch n.Instruction {
		case "CTU":
			c.Current++
			c.Q = c.Current >= c.Preset
		case "CTD":
			if c.Current > 0 {
				c.Current--
			}
			c.Q = c.Current <= 0
		}
	}
	n.Output = c.Q
}
