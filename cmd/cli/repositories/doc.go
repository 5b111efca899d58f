// Package repositories defines the CLI commands operating on the repository
// engine: catalog management, status refresh, staged git operations, and
// external program launches.
package repositories
