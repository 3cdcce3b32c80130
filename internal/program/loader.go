package program

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"rungscan/internal/address"
	"rungscan/internal/counter"
	"rungscan/internal/limits"
	"rungscan/internal/netid"
	"rungscan/internal/timer"
)

// typesByPriority is the substring-match order resolveType checks in.
// NETWORK must come before OPEN so that a type string like "NETWORK_OPEN"
// (some editors emit compound labels) resolves to a network seed rather
// than a plain contact.
var typesByPriority = []struct {
	substr string
	typ    NodeType
}{
	{"NETWORK", TypeNetwork},
	{"OPEN", TypeOpen},
	{"CLOSE", TypeClose},
	{"RISING", TypeRising},
	{"FALLING", TypeFalling},
	{"INVERT", TypeInvert},
	{"COIL", TypeCoil},
	{"RESET", TypeReset},
	{"SET", TypeSet},
	{"INSTRUCTION", TypeInstruction},
}

// resolveType maps a wire-level Type string to a NodeType by substring
// match in priority order, defaulting to TypeOpen when nothing matches.
func resolveType(raw string) NodeType {
	u := strings.ToUpper(raw)
	for _, c := range typesByPriority {
		if strings.Contains(u, c.substr) {
			return c.typ
		}
	}
	return TypeOpen
}

// Load ingests a Document into an executable Program: resolving node
// types and addresses, assigning network ids where missing, and syncing
// the timer and counter banks for every TON/TOFF/TP/CTU/CTD instruction
// node. Nodes and links beyond the configured capacity are dropped,
// logging a warning, rather than rejecting the whole document.
func Load(doc Document, timers *timer.Bank, counters *counter.Bank) *Program {
	nodeDocs := doc.Nodes
	if len(nodeDocs) > limits.MaxNodes {
		slog.Warn("program exceeds node capacity; truncating",
			"got", len(nodeDocs), "max", limits.MaxNodes)
		nodeDocs = nodeDocs[:limits.MaxNodes]
	}
	linkDocs := doc.LinkData
	if len(linkDocs) > limits.MaxLinks {
		slog.Warn("program exceeds link capacity; truncating",
			"got", len(linkDocs), "max", limits.MaxLinks)
		linkDocs = linkDocs[:limits.MaxLinks]
	}

	p := &Program{
		ByID:     make(map[int]*Node, len(nodeDocs)),
		OutLinks: make(map[int][]int, len(nodeDocs)),
	}

	for _, nd := range nodeDocs {
		n := &Node{
			ID:          nd.ID,
			NetworkID:   nd.NetworkID,
			Type:        resolveType(nd.Type),
			AddrRaw:     nd.Addr,
			Addr:        address.Parse(nd.Addr),
			Tag:         nd.Tag,
			Instruction: strings.ToUpper(strings.TrimSpace(nd.Instruction)),
			Args:        nd.Args,
			Setpoint:    nd.Setpoint,
			X:           nd.X,
			Y:           nd.Y,
		}
		if _, exists := p.ByID[n.ID]; !exists {
			p.Order = append(p.Order, n.ID)
		}
		p.ByID[n.ID] = n
	}

	for _, ld := range linkDocs {
		if _, ok := p.ByID[ld.From]; !ok {
			continue
		}
		if _, ok := p.ByID[ld.To]; !ok {
			continue
		}
		l := Link{From: ld.From, To: ld.To, FromPort: ld.FromPort, ToPort: ld.ToPort}
		p.Links = append(p.Links, l)
		p.OutLinks[l.From] = append(p.OutLinks[l.From], l.To)
	}

	assignNetworkIDs(p)
	syncInstructions(p, timers, counters)

	return p
}

func assignNetworkIDs(p *Program) {
	nNodes := make([]netid.Node, 0, len(p.Order))
	for _, id := range p.Order {
		n := p.ByID[id]
		nNodes = append(nNodes, netid.Node{
			ID:        n.ID,
			IsNetwork: n.Type == TypeNetwork,
			Addr:      n.AddrRaw,
			NetworkID: n.NetworkID,
		})
	}
	nLinks := make([]netid.Link, 0, len(p.Links))
	for _, l := range p.Links {
		nLinks = append(nLinks, netid.Link{From: l.From, To: l.To})
	}

	canonical := netid.Normalize(nNodes, nLinks)
	for _, id := range p.Order {
		p.ByID[id].NetworkID = canonical[id]
	}
}

// syncInstructions walks every INSTRUCTION node that owns a timer or
// counter and syncs the corresponding bank entry. Tag is a display
// label with no semantics and Setpoint is opaque to the core — the
// instance name and preset both come from the colon-delimited args
// field instead: "NAME:MILLIS" for timers, "NAME:PRESET" for counters.
func syncInstructions(p *Program, timers *timer.Bank, counters *counter.Bank) {
	for _, id := range p.Order {
		n := p.ByID[id]
		if n.Type != TypeInstruction {
			continue
		}
		name, preset, ok := ParseNamePreset(n.Args)
		if !ok {
			continue
		}
		switch n.Instruction {
		case "TON":
			timers.Sync(name, timer.TON, time.Duration(preset)*time.Millisecond)
		case "TOFF":
			timers.Sync(name, timer.TOFF, time.Duration(preset)*time.Millisecond)
		case "TP":
			timers.Sync(name, timer.TP, time.Duration(preset)*time.Millisecond)
		case "CTU":
			counters.Sync(name, counter.CTU, preset)
		case "CTD":
			counters.Sync(name, counter.CTD, preset)
		}
	}
}

// ParseNamePreset splits a timer/counter instruction's args field,
// "NAME:PRESET", into its instance name and integer preset. ok is
// false if args isn't exactly two colon-delimited parts or the preset
// isn't an integer.
func ParseNamePreset(args string) (name string, preset int, ok bool) {
	parts := strings.SplitN(args, ":", 2)
	if len(parts) != 2 {
		return "", 0, false
	}
	name = strings.TrimSpace(parts[0])
	if name == "" {
		return "", 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", 0, false
	}
	return name, n, true
}

// Validate performs the structural checks a loader should run before
// committing a document, so a malformed submission leaves the running
// program untouched rather than replacing it with a half-built one.
// Capacity overruns are not validation failures — Load truncates those
// with a warning — but a duplicate node id is, since it would silently
// shadow one node with another rather than degrade gracefully.
func Validate(doc Document) error {
	seen := make(map[int]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if seen[n.ID] {
			return &ValidationError{Reason: "duplicate node id"}
		}
		seen[n.ID] = true
	}
	return nil
}

// ValidationError reports why a Document was rejected outright.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid program: " + e.Reason }
