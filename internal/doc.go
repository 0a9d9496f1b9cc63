// Package internal contains helper utilities that are private to goSession,
// currently random session and family id generation.
//
// # Sub-packages
//
//   - family: in-process family locks and the advisory used-marker and revocation caches
//   - rate: Redis-backed refresh throttle
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API.
//   - Be imported by any package outside the goSession module.
package internal
