// Package session provides the Redis-backed store and the compact binary
// encoding for session and token-family records.
//
// # Binary encoding
//
// Records are stored as a versioned binary blob. The first byte is the format
// version; decoders reject unknown versions and trailing bytes. Family records
// carry member fingerprints in insertion order so eviction is oldest-first.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Record] and
// [FamilyRecord] models. It does NOT parse credentials or decide whether a
// refresh is a replay; those decisions belong to the Engine.
//
// # What this package must NOT do
//
//   - Import goSession, jwt, or refresh (no upward imports).
//   - Store raw refresh credentials. Only their fingerprints are persisted.
package session
