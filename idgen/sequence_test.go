package idgen

import (
	"strings"
	"testing"
)

func fixed(v string) Generator { return func() string { return v } }

func TestSequence_NextFormat(t *testing.T) {
	seq := NewSequence("sdom", fixed("abcde"))
	if got := seq.Next("btn"); got != "sdom-btn-1-abcde" {
		t.Fatalf("Next: got %q", got)
	}
	if got := seq.Next("link"); got != "sdom-link-2-abcde" {
		t.Fatalf("Next: got %q", got)
	}
}

func TestSequence_NextDefaultSuffix(t *testing.T) {
	seq := NewSequence("sdom", nil)
	id := seq.Next("nav")
	parts := strings.Split(id, "-")
	if len(parts) != 4 {
		t.Fatalf("Next: expected 4 parts, got %q", id)
	}
	if len(parts[3]) != SuffixLength {
		t.Fatalf("suffix length: got %d", len(parts[3]))
	}
}

func TestSequence_NextUnique(t *testing.T) {
	seq := NewSequence("x", NanoID(3))
	seen := make(map[string]struct{})
	for i := 0; i < 2000; i++ {
		id := seq.Next("k")
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id %q at %d", id, i)
		}
		seen[id] = struct{}{}
	}
	if seq.Len() != 2000 {
		t.Fatalf("Len: got %d", seq.Len())
	}
}

func TestSequence_ClaimDuplicates(t *testing.T) {
	seq := NewSequence("sdom", nil)

	tests := []struct {
		want string
		dup  bool
	}{
		{"dup", false},
		{"dup-2", true},
		{"dup-3", true},
	}
	for i, tt := range tests {
		got, dup := seq.Claim("dup")
		if got != tt.want || dup != tt.dup {
			t.Fatalf("claim %d: got (%q, %v), want (%q, %v)", i, got, dup, tt.want, tt.dup)
		}
	}
}

func TestSequence_ClaimSkipsTakenSuffix(t *testing.T) {
	seq := NewSequence("sdom", nil)
	seq.Claim("a-2") // author literally used "a-2"
	seq.Claim("a")
	got, dup := seq.Claim("a")
	if got != "a-3" || !dup {
		t.Fatalf("got (%q, %v), want (a-3, true)", got, dup)
	}
}

func TestSequence_GeneratedNeverShadowsExplicit(t *testing.T) {
	seq := NewSequence("sdom", fixed("zzzzz"))
	first, _ := seq.Claim("sdom-btn-1-zzzzz")
	if first != "sdom-btn-1-zzzzz" {
		t.Fatalf("claim: got %q", first)
	}
	if got := seq.Next("btn"); got == first {
		t.Fatalf("Next reused explicit id %q", got)
	}
}
