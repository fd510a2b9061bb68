// Package config loads, normalizes, and validates indexer configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and derives the push-channel endpoint from the
// worker base URL. The Config type centralizes every knob the CLI and the
// session components need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical language codes, and clear validation errors.
package config
