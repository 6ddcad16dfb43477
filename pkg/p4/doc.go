// Package p4 defines the lookup contract the validators use to confirm that
// users, changelists, jobs and files exist on the version-control server.
//
// The contract is deliberately narrow: every call is a read-only query that
// maps the server's textual output to a typed answer. Implementations that
// shell out to the p4 binary live in internal/p4cli; Fake serves tests and
// offline runs.
package p4
