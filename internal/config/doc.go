// Package config loads, normalizes, and validates clientdedup configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the CLIENTDEDUP_INPUT_DIR and
// CLIENTDEDUP_OUTPUT_DIR environment overrides. The Config type centralizes the
// input layout, matching thresholds, and output options a run needs.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log settings, and clear validation errors.
package config
