package refresh

import "testing"

func TestFingerprintIsStableAndDistinct(t *testing.T) {
	a := Of("token-a")
	if a != Of("token-a") {
		t.Fatal("expected fingerprint to be deterministic")
	}
	if a.Equal(Of("token-b")) {
		t.Fatal("expected different tokens to differ")
	}
	if !a.Matches("token-a") || a.Matches("token-a ") {
		t.Fatal("Matches must compare the exact token string")
	}
}

func TestFingerprintHexRoundTrip(t *testing.T) {
	f := Of("token-a")
	s := f.String()
	if len(s) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(s))
	}
	parsed, err := Parse(s)
	if err != nil || parsed != f {
		t.Fatalf("parse: %v", err)
	}
	for _, bad := range []string{"", "zz", s[:62]} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
