// Package main hosts the mediascribe CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into
// workspace store operations: creating and inspecting workspace documents,
// driving the item lifecycle, watching live progress, rendering reports,
// and configuration scaffolding. It centralizes configuration resolution,
// workspace path resolution, and structured logging setup so subcommands
// can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
