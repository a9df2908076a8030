// Package users manages staff accounts: officers, office admins,
// region admins, and super admins. Account management authority is
// narrower than case authority: office admins manage accounts only
// within their own office and can never grant a role above their own.
package users
