// Package hmis reads the HMIS CSV exports a run consumes.
//
// Columns are located by header name, case-insensitively, and fall back to
// the standard export positions when a header is absent or renamed. Input is
// decoded as UTF-8 with an optional byte order mark. Rows that cannot be
// parsed are skipped with a warning and counted in ReadStats; only failures
// to open or read a file abort the run.
package hmis
