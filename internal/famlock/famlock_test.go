package famlock

import (
	"errors"
	"testing"
)

func TestAcquireRelease(t *testing.T) {
	g := New()
	if err := g.Acquire("week-10", "solve"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	g.Release("week-10", "solve")
	if err := g.Acquire("week-10", "repair"); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestAcquireConflict(t *testing.T) {
	g := New()
	if err := g.Acquire("week-10", "solve"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	err := g.Acquire("week-10", "repair")
	var cerr *ConcurrentOperationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConcurrentOperationError, got %v", err)
	}
	if cerr.Holder != "solve" {
		t.Fatalf("expected solve as holder, got %q", cerr.Holder)
	}
	// Different families do not conflict.
	if err := g.Acquire("week-11", "repair"); err != nil {
		t.Fatalf("other family: %v", err)
	}
}

func TestReleaseWrongOperation(t *testing.T) {
	g := New()
	if err := g.Acquire("week-10", "solve"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	g.Release("week-10", "repair")
	if err := g.Acquire("week-10", "repair"); err == nil {
		t.Fatal("stale release must not free the family")
	}
}
