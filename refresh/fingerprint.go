package refresh

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// Fingerprint is the SHA-256 digest of a refresh credential.
type Fingerprint [32]byte

// ErrInvalidFingerprint is returned by Parse for malformed input.
var ErrInvalidFingerprint = errors.New("invalid refresh fingerprint")

// Of returns the fingerprint of token.
func Of(token string) Fingerprint {
	return Fingerprint(sha256.Sum256([]byte(token)))
}

// String returns the lowercase hex form used in store keys.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Equal compares two fingerprints in constant time.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return subtle.ConstantTimeCompare(f[:], other[:]) == 1
}

// Matches reports whether token hashes to f.
func (f Fingerprint) Matches(token string) bool {
	return f.Equal(Of(token))
}

// Parse decodes the hex form produced by String.
func Parse(s string) (Fingerprint, error) {
	var f Fingerprint
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(f) {
		return f, ErrInvalidFingerprint
	}
	copy(f[:], raw)
	return f, nil
}
