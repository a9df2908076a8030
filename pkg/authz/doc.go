// Package authz implements row-level authorization for case records
// and organizational units.
//
// The decision itself is a pure function, IsAuthorized, over three
// inputs: the authenticated principal, the ownership tuple of the
// target resource, and an access variant naming the policy for the
// operation at hand. The Resolver loads ownership tuples from Postgres
// with minimal projection queries and never caches them, since officer
// assignment can change between requests.
//
// Every service method must resolve ownership and call IsAuthorized
// before touching the resource. Handlers never re-derive role
// comparisons inline.
package authz
