package counter

import "testing"

func TestLookupIsCaseSensitive(t *testing.T) {
	b := New()
	b.GetOrCreate("C0", CTU, 3)

	if _, ok := b.Get("c0"); ok {
		t.Fatal("counter lookup must be case-sensitive")
	}
	if _, ok := b.Get("C0"); !ok {
		t.Fatal("expected C0 to be found")
	}
}

func TestCTDStartsAtPreset(t *testing.T) {
	b := New()
	c := b.GetOrCreate("C0", CTD, 5)
	if c.Current != 5 {
		t.Fatalf("CTD Current = %d, want 5", c.Current)
	}
}

func TestCTUStartsAtZero(t *testing.T) {
	b := New()
	c := b.GetOrCreate("C0", CTU, 5)
	if c.Current != 0 {
		t.Fatalf("CTU Current = %d, want 0", c.Current)
	}
}

func TestResetClearsCurrentAndQ(t *testing.T) {
	b := New()
	c := b.GetOrCreate("C0", CTU, 3)
	c.Current = 3
	c.Q = true

	b.Reset("C0")

	if c.Current != 0 || c.Q {
		t.Fatal("Reset must clear Current and Q")
	}
}
