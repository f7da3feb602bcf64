// Package auth implements session and token lifecycle management for
// Ratewise Core: issuance of short-lived access tokens paired with
// rotating refresh tokens, an in-process revocation blacklist with
// time-bounded cleanup, bearer-token verification against the account
// directory, and the role/ownership access policy.
//
// The pieces compose leaf-first:
//
//	Codec                 - signs and verifies time-bounded JWT claims
//	RevocationStore       - tracks tokens invalidated before natural expiry
//	Issuer                - mints access/refresh pairs and rotates refresh tokens
//	Verifier              - resolves a bearer credential to a live Identity
//	RequireRole et al.    - pure authorisation decisions over an Identity
//
// Codec and the policy functions are stateless and safe under unlimited
// concurrency. The revocation store is the only shared mutable state; the
// in-memory implementation serialises access with a mutex. It does not
// survive process restart and does not scale across instances - acceptable
// for the single-node deployment this system targets, and swappable via
// the RevocationStore interface when that stops being true.
package auth
