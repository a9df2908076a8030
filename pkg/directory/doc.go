// Package directory manages the organizational hierarchy: regions and
// the local offices under them. It also provides the hierarchy lookups
// other services use to keep denormalized ownership fields consistent.
package directory
