// Package refresh derives the stable identity of a refresh credential.
//
// # Fingerprints
//
// A refresh credential is identified by the SHA-256 of its exact string form.
// Family membership and used-markers are keyed by that fingerprint, so the
// store never holds a credential that could be replayed if leaked.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O.
//   - Import goSession, jwt, or session.
//   - Implement rotation or replay logic.
package refresh
