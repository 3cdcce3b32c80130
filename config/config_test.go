package config

import "testing"

func TestSetUseRemoveRoundTrip(t *testing.T) {
	cfg := &Config{Contexts: make(map[string]Context)}
	cfg.Set("local", Context{Socket: "/run/rungscan.sock"})

	if err := cfg.Use("local"); err != nil {
		t.Fatalf("Use: %v", err)
	}
	name, ctx, ok := cfg.Current()
	if !ok || name != "local" || ctx.Target() != "/run/rungscan.sock" {
		t.Fatalf("Current() = %q, %+v, %v", name, ctx, ok)
	}

	if err := cfg.Remove("local"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, _, ok := cfg.Current(); ok {
		t.Fatal("Current() should report ok=false after removing the current context")
	}
}

func TestUseUnknownContextFails(t *testing.T) {
	cfg := &Config{Contexts: make(map[string]Context)}
	if err := cfg.Use("missing"); err == nil {
		t.Fatal("expected error using an unknown context")
	}
}

func TestContextTargetIsSocketPath(t *testing.T) {
	ctx := Context{Socket: "/run/rungscan.sock"}
	if ctx.Target() != "/run/rungscan.sock" {
		t.Fatalf("Target() = %q, want socket path", ctx.Target())
	}
}
