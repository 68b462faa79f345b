// Package logging assembles the structured slog loggers used by clientdedup.
//
// It owns the console and JSON handlers, routes every run to stderr plus a
// per-run log file, and provides helpers that keep warning records uniform:
// WarnWithContext always carries an event type, a hint and an impact so a row
// skipped during ingest can be traced back to its file and line.
package logging
