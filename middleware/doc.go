// Package middleware adapts the engine to net/http.
//
//   - [Guard] validates the bearer access credential and stores the payload in
//     the request context, see [AccessPayloadFromContext].
//   - [ClientInfo] records peer IP and User-Agent for lifecycle events.
//
// Refresh and revocation are not middleware concerns; handlers call the
// engine directly.
package middleware
