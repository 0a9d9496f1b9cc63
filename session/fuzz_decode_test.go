package session

import "testing"

// FuzzDecodeRecord feeds arbitrary bytes to the session record decoder.
func FuzzDecodeRecord(f *testing.F) {
	encoded, err := EncodeRecord(&Record{
		SessionID:     "sid-fuzz",
		UserID:        "user1",
		FamilyID:      "fam1",
		Version:       3,
		Metadata:      map[string]string{"device": "ios"},
		CreatedAt:     1700000000,
		LastRefreshed: 1700003600,
	})
	if err == nil {
		f.Add(encoded)
		f.Add(encoded[:len(encoded)/2])
	}
	f.Add([]byte{})
	f.Add([]byte{1})
	f.Add([]byte{255, 255, 255})

	f.Fuzz(func(t *testing.T, data []byte) {
		r, err := DecodeRecord(data)
		if err != nil {
			return
		}
		if r == nil {
			t.Fatal("DecodeRecord returned nil without error")
		}
		if _, err := EncodeRecord(r); err != nil {
			t.Fatalf("decoded record does not re-encode: %v", err)
		}
	})
}

// FuzzDecodeFamily feeds arbitrary bytes to the family record decoder.
func FuzzDecodeFamily(f *testing.F) {
	encoded, err := EncodeFamily(&FamilyRecord{
		FamilyID:  "fam1",
		SessionID: "sid1",
		UserID:    "user1",
		Version:   1,
		Members:   [][32]byte{{1}, {2}},
	})
	if err == nil {
		f.Add(encoded)
		f.Add(encoded[:len(encoded)-5])
	}
	f.Add([]byte{})
	f.Add([]byte{1, 0, 0, 0})

	f.Fuzz(func(t *testing.T, data []byte) {
		fam, err := DecodeFamily(data)
		if err != nil {
			return
		}
		if fam == nil {
			t.Fatal("DecodeFamily returned nil without error")
		}
	})
}
