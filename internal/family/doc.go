// Package family holds the in-process side of token-family bookkeeping: a lock
// per family and two advisory caches (used refresh fingerprints and revoked
// family ids).
//
// The store is authoritative. Everything here may be lost on restart without
// weakening reuse detection; the caches only save round trips, and the locks
// only serialize rotations that run inside one process.
package family
