package netid

import "testing"

func TestNormalizeKeepsExistingWhenComplete(t *testing.T) {
	nodes := []Node{
		{ID: 1, IsNetwork: true, Addr: "", NetworkID: "N3"},
		{ID: 2, IsNetwork: false, Addr: "", NetworkID: "n3"},
	}
	got := Normalize(nodes, nil)
	if got[1] != "N3" || got[2] != "N3" {
		t.Fatalf("got %v, want both canonicalized to N3", got)
	}
}

func TestNormalizeFloodsFullReachability(t *testing.T) {
	// 1 -> 2 -> 3 -> 4, network seeded at 1; with one-hop propagation
	// only node 2 would inherit the id. Flood must reach 3 and 4 too.
	nodes := []Node{
		{ID: 1, IsNetwork: true, Addr: "Main", NetworkID: ""},
		{ID: 2, NetworkID: "-1"},
		{ID: 3, NetworkID: "-1"},
		{ID: 4, NetworkID: "-1"},
	}
	links := []Link{{From: 1, To: 2}, {From: 2, To: 3}, {From: 3, To: 4}}

	got := Normalize(nodes, links)
	for _, id := range []int{1, 2, 3, 4} {
		if got[id] != "MAIN" {
			t.Fatalf("node %d got %q, want MAIN", id, got[id])
		}
	}
}

func TestNormalizeUnreachedNodeGetsFreshID(t *testing.T) {
	nodes := []Node{
		{ID: 1, IsNetwork: true, Addr: "Main", NetworkID: ""},
		{ID: 2, NetworkID: ""},
	}
	got := Normalize(nodes, nil) // no links: node 2 is unreachable
	if got[1] != "MAIN" {
		t.Fatalf("node 1 got %q, want MAIN", got[1])
	}
	if got[2] == "MAIN" || got[2] == "" {
		t.Fatalf("node 2 got %q, want a distinct fresh id", got[2])
	}
}

func TestCanonicalizeRules(t *testing.T) {
	cases := map[string]string{
		"":      "-1",
		"-1":    "-1",
		"  ":    "-1",
		"0":     "N0",
		"7":     "N7",
		"-5":    "-1",
		"main":  "MAIN",
		" n3 ":  "N3",
		"Line1": "LINE1",
	}
	for in, want := range cases {
		if got := Canonicalize(in); got != want {
			t.Fatalf("Canonicalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSortIDsNumericNotLexicographic(t *testing.T) {
	ids := []string{"N10", "N2", "N1"}
	SortIDs(ids)
	want := []string{"N1", "N2", "N10"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("SortIDs = %v, want %v", ids, want)
		}
	}
}
