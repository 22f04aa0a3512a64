// Package auth provides bearer-token authentication for the gateway.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default decides when
// all authenticators abstain.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from the
// engine. Rejected requests never reach the inference server.
package auth
