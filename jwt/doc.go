// Package jwt signs and verifies the two session credentials: short-lived access
// credentials and rotating refresh credentials.
//
// Architecture boundaries:
//   - The package only knows claims, keys and clocks. It never reads or writes the store.
//   - Issuer is always enforced; audience is enforced when configured.
//   - The typ claim keeps the two credential kinds apart, so an access credential is
//     never accepted where a refresh credential is expected.
//
// What this package must NOT do:
//   - Decide whether a refresh credential was already used. Reuse detection lives in
//     the engine, which owns the family state.
package jwt
