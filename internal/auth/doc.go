// Package auth issues and validates the bearer tokens that bind an HTTP
// client to its dashboard session.
//
// Tokens are HS256 JWTs whose subject is the session ID. They carry no
// role: the role lives in server-side session state and is re-checked on
// every request.
package auth
