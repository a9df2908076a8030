// Package auth defines the identity model for the API: staff roles and
// their scope hierarchy, the request principal, JWT bearer token
// issuance and verification, and bcrypt credential hashing.
package auth
