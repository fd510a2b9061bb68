// Package main hosts the indexer CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the processing worker, push-channel watching, subtitle
// acquisition runs, panel switching, and configuration scaffolding. It
// centralizes configuration resolution, client identity, and structured
// logging setup so subcommands can focus on user experience instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
