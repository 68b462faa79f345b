// Package analysis produces diagnostics over a client registry that help
// tune the matching rules: a census of suspected twins and a field-agreement
// matrix over blocking keys.
package analysis
