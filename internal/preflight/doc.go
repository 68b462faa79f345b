// Package preflight checks that a configuration can be run: the input
// directory and registry exports are readable, the client registry header
// resolves, and the output and log directories are writable.
package preflight
