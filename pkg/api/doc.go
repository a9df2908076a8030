// Package api composes the HTTP surface: the public login and remote
// check-in routes, and the staff router where every request carries an
// authenticated principal.
package api
