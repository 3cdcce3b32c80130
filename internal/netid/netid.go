// Package netid assigns and canonicalizes network IDs: the partition
// key the scan engine uses to group nodes into independently-evaluated
// networks.
//
// This is a REDESIGN relative to the original one-hop propagation
// (spec.md §9, "most likely latent bug"): instead of assigning a
// NETWORK source's id to only its direct link targets, Normalize
// floods full reachability from each NETWORK source. Network ID
// ordering is by the numeric suffix of "N<k>" rather than lexicographic
// string order, per the other recommended redesign in spec.md §9.
package netid

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Node is the minimal view of a program node this package needs.
type Node struct {
	ID        int
	IsNetwork bool
	Addr      string // the node's addr field, used as a NETWORK source's seed id
	NetworkID string // the node's current networkId, possibly missing/"-1"
}

// Link is a forward edge fromNode -> toNode.
type Link struct {
	From int
	To   int
}

// Normalize computes the canonical networkId for every node. If every
// node already carries a non-missing, non-"-1" networkId, those values
// are kept and merely canonicalized. Otherwise the whole graph is
// re-partitioned: each NETWORK node (in document order) seeds a
// network id and floods it to every node reachable via forward links;
// any node still unreached gets a fresh "N<k>".
func Normalize(nodes []Node, links []Link) map[int]string {
	result := make(map[int]string, len(nodes))

	if !anyMissing(nodes) {
		for _, n := range nodes {
			result[n.ID] = Canonicalize(n.NetworkID)
		}
		return result
	}

	out := make(map[int][]int)
	for _, l := range links {
		out[l.From] = append(out[l.From], l.To)
	}

	assigned := make(map[int]string)
	next := 0
	freshID := func() string {
		id := fmt.Sprintf("N%d", next)
		next++
		return id
	}

	for _, n := range nodes {
		if !n.IsNetwork {
			continue
		}
		id := seedID(n.Addr, freshID)
		assigned[n.ID] = id

		visited := map[int]bool{n.ID: true}
		queue := append([]int(nil), out[n.ID]...)
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if visited[cur] {
				continue
			}
			visited[cur] = true
			if _, ok := assigned[cur]; !ok {
				assigned[cur] = id
			}
			queue = append(queue, out[cur]...)
		}
	}

	for _, n := range nodes {
		if _, ok := assigned[n.ID]; !ok {
			assigned[n.ID] = freshID()
		}
	}

	for _, n := range nodes {
		result[n.ID] = Canonicalize(assigned[n.ID])
	}
	return result
}

func anyMissing(nodes []Node) bool {
	for _, n := range nodes {
		if isMissing(n.NetworkID) {
			return true
		}
	}
	return false
}

func isMissing(s string) bool {
	t := strings.TrimSpace(s)
	return t == "" || t == "-1"
}

// seedID picks the network id a NETWORK node contributes: its own addr
// if that's usable, otherwise a freshly minted "N<k>".
func seedID(addr string, freshID func() string) string {
	a := strings.TrimSpace(addr)
	if a == "" || strings.EqualFold(a, "N") {
		return freshID()
	}
	if n, err := strconv.Atoi(a); err == nil && n < 0 {
		return freshID()
	}
	return a
}

// Canonicalize normalizes a networkId to its canonical string form:
// trimmed; empty or "-1" -> "-1"; non-negative numeric -> "N<n>";
// negative numeric -> "-1"; otherwise uppercased as-is.
func Canonicalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-1" {
		return "-1"
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 {
			return fmt.Sprintf("N%d", n)
		}
		return "-1"
	}
	return strings.ToUpper(s)
}

var numericSuffix = regexp.MustCompile(`^N(\d+)$`)

// SortIDs sorts canonical network ids by the numeric suffix of "N<k>"
// (so "N2" sorts before "N10"), falling back to lexicographic order for
// ids that aren't in "N<k>" form.
func SortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return less(ids[i], ids[j]) })
}

func less(a, b string) bool {
	am := numericSuffix.FindStringSubmatch(a)
	bm := numericSuffix.FindStringSubmatch(b)
	if am != nil && bm != nil {
		an, _ := strconv.Atoi(am[1])
		bn, _ := strconv.Atoi(bm[1])
		return an < bn
	}
	return a < b
}
