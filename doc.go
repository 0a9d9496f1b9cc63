// Package goSession provides refresh-token rotation with reuse detection on
// top of signed bearer credentials and a Redis-backed session store.
//
// A session is backed by a token family. Every refresh redeems the presented
// refresh credential exactly once and replaces it with a new member of the same
// family. Presenting an already redeemed credential revokes the whole family,
// including the credential that replaced it.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config],
// the [Store] and [TokenCodec] contracts and value types (SessionToken,
// SessionInfo, MetricsSnapshot). Per-family locking, advisory caches and the
// refresh throttle live under internal/ and are never exported.
//
// # Durable state
//
// The store is authoritative. Every engine sharing a store observes the same
// used-markers and revocation tombstones; the in-process tables only
// short-circuit work and may be lost at any time.
//
// # Access credentials
//
// ValidateAccessToken never consults the store. Access credentials are not
// individually revocable and remain valid until their short TTL expires.
package goSession
