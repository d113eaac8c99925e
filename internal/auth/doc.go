// Package auth handles authentication for notify-gateway.
//
// # Overview
//
// Every realtime handshake and API request carries a JWT credential that
// resolves to an Identity (user ID plus role). Verification happens before a
// connection is allowed into the registry; a request with a missing or
// invalid credential is refused with 401 and never retried.
//
// # Tokens
//
// Tokens are HS256 JWTs with "sub" (user ID), "role", "iat" and "exp"
// claims. The JWTVerifier both verifies inbound tokens and mints tokens for
// the gen-token operator command.
//
// # Context Propagation
//
// The HTTP middleware attaches the resolved Identity to the request context:
//
//	identity := auth.FromContext(r.Context())
//
// WebSocket handshakes accept the token from the Authorization header or,
// because browsers cannot set handshake headers, from a ?token= query
// parameter.
package auth
