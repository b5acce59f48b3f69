package hostcheck

import "testing"

func TestCheck_WildcardDisablesCheck(t *testing.T) {
	if err := Check("*", Identity{Hostname: "other"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheck_EmptyDisablesCheck(t *testing.T) {
	if err := Check("", Identity{Hostname: "other"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheck_MatchesHostname(t *testing.T) {
	if err := Check("box1", Identity{Hostname: "box1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheck_MatchesAddress(t *testing.T) {
	id := Identity{Hostname: "box1", Addresses: []string{"10.0.0.5"}}
	if err := Check("10.0.0.5", id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheck_RejectsMismatch(t *testing.T) {
	id := Identity{Hostname: "box1", Addresses: []string{"10.0.0.5"}}
	if err := Check("box2", id); err == nil {
		t.Fatalf("expected mismatch error")
	}
}
