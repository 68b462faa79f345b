// Package pipeline runs one resolution pass over an input snapshot.
//
// Resolve builds the stay-history index, streams the client registry through
// the clusterer, picks each group's representative and builds the identifier
// map. Run adds the write side: it locks the output directory, rewrites every
// dataset, writes the diagnostic extracts and optionally exports the results
// database. Load returns the admissible records for the analysis commands.
package pipeline
