package session

import "bytes"

// Record is the persisted state of one session, stored under session:{id}.
type Record struct {
	SessionID     string
	UserID        string
	FamilyID      string
	Version       uint32
	Metadata      map[string]string
	CreatedAt     int64
	LastRefreshed int64
}

// FamilyRecord is the persisted state of one token family, stored under
// family:{id}. Members holds refresh fingerprints in insertion order, oldest first.
type FamilyRecord struct {
	FamilyID  string
	SessionID string
	UserID    string
	Version   uint32
	Members   [][32]byte
}

// Contains reports whether fp is a current member of the family.
func (f *FamilyRecord) Contains(fp [32]byte) bool {
	if f == nil {
		return false
	}
	for _, m := range f.Members {
		if bytes.Equal(m[:], fp[:]) {
			return true
		}
	}
	return false
}

// Rotate replaces old with next, bumps the version and evicts the oldest
// members until at most maxMembers remain. It returns the evicted fingerprints.
// Rotate reports false and leaves the record untouched when old is not a member.
func (f *FamilyRecord) Rotate(old, next [32]byte, maxMembers int) ([][32]byte, bool) {
	idx := -1
	for i, m := range f.Members {
		if m == old {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	members := make([][32]byte, 0, len(f.Members))
	members = append(members, f.Members[:idx]...)
	members = append(members, f.Members[idx+1:]...)
	members = append(members, next)

	var evicted [][32]byte
	if maxMembers > 0 && len(members) > maxMembers {
		cut := len(members) - maxMembers
		evicted = append(evicted, members[:cut]...)
		members = append([][32]byte(nil), members[cut:]...)
	}

	f.Members = members
	f.Version++
	return evicted, true
}

// Add appends fp as the newest member and evicts the oldest beyond maxMembers.
func (f *FamilyRecord) Add(fp [32]byte, maxMembers int) [][32]byte {
	f.Members = append(f.Members, fp)
	if maxMembers <= 0 || len(f.Members) <= maxMembers {
		return nil
	}
	cut := len(f.Members) - maxMembers
	evicted := append([][32]byte(nil), f.Members[:cut]...)
	f.Members = append([][32]byte(nil), f.Members[cut:]...)
	return evicted
}
