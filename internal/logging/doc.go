// Package logging builds slog loggers for the indexer client.
//
// Two output formats are supported: a compact console format with a
// component prefix and key=value attributes, and standard JSON. When no
// format is configured the console format is chosen for interactive
// terminals and JSON otherwise.
package logging
