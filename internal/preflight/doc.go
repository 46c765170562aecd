// Package preflight validates the local environment and backend
// connectivity before the daemon or CLI relies on them.
package preflight
