// Package auth defines the verified caller identity and the Verifier contract
// used by the request pipeline.
//
// Two strategies implement [Verifier]: package local checks HS256 tokens
// against a static secret, package jwt checks RS256 tokens against an
// identity provider's JWKS. The strategy is chosen once at startup from
// configuration. Whatever the cause, a failed verification is reported as a
// single unauthorized error so callers cannot tell which check failed.
package auth
