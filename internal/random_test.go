package internal

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewSessionIDIsUniqueAndParses(t *testing.T) {
	seen := make(map[string]struct{}, 256)
	for i := 0; i < 256; i++ {
		sid, err := NewSessionID()
		if err != nil {
			t.Fatalf("new session id: %v", err)
		}
		s := sid.String()
		if _, dup := seen[s]; dup {
			t.Fatalf("duplicate session id %q", s)
		}
		seen[s] = struct{}{}

		parsed, err := ParseSessionID(s)
		if err != nil || parsed != sid {
			t.Fatalf("parse %q: %v", s, err)
		}
	}
}

func TestNewFamilyIDIsUUIDv4(t *testing.T) {
	fid, err := NewFamilyID()
	if err != nil {
		t.Fatalf("new family id: %v", err)
	}
	parsed, err := uuid.Parse(fid)
	if err != nil {
		t.Fatalf("family id is not a uuid: %v", err)
	}
	if parsed.Version() != 4 {
		t.Fatalf("expected v4 uuid, got v%d", parsed.Version())
	}
}
