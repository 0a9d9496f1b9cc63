package internal

import "testing"

// FuzzParseSessionID exercises session id decoding with arbitrary strings.
func FuzzParseSessionID(f *testing.F) {
	f.Add("")
	f.Add("abc")
	f.Add("!!!not-base64!!!")
	f.Add("AAAAAAAAAAAAAAAAAAAAAA")
	if sid, err := NewSessionID(); err == nil {
		f.Add(sid.String())
	}

	f.Fuzz(func(t *testing.T, input string) {
		sid, err := ParseSessionID(input)
		if err != nil {
			return
		}
		round, err := ParseSessionID(sid.String())
		if err != nil || round != sid {
			t.Fatalf("session id did not round-trip: %q", input)
		}
	})
}
