// Package auth validates the bearer tokens presented to the Gray Logic
// Home API.
//
// Tokens are HS256 JWTs issued by the hosted identity service. The core
// never issues tokens for end users; it checks the signature, expiry and
// issuer, and takes the household user ID from the "sub" claim.
// GenerateAccessToken exists for local development and tests only.
package auth
