// Package resultdb exports the outcome of a resolution run to SQLite.
//
// The database is recreated on every run. It holds one row per run, the
// duplicate groups with their members, the identifier map, and a checksum
// for each file the run wrote.
package resultdb
