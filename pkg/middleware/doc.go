// Package middleware provides the HTTP boundary plumbing: bearer token
// authentication, per-request IDs and logging, and Redis-backed rate
// limiting for the login endpoint.
package middleware
