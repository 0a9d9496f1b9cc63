// Package rate provides the Redis-backed refresh throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - rf:  refresh per token family
//   - rfi: refresh per client IP
//
// # What this package must NOT do
//
//   - Decide reuse or revocation. A throttled call never consumes the presented credential.
//   - Be imported outside the goSession module.
package rate
