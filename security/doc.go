// Package security provides the security primitives of the implicit-grant
// flow: anti-forgery state generation, constant-time state comparison,
// token expiry checks with clock-skew tolerance, and audit logging with
// hashed credentials.
package security
