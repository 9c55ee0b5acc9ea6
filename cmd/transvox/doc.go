// Package main hosts the transvox CLI entrypoint and command graph.
//
// The Cobra-based command tree maps terminal invocations onto the media
// pipeline: one-shot commands that drive a single item through a slice of the
// workflow, the long-running watch command that processes a drop folder, and
// queue maintenance and configuration scaffolding. It centralizes
// configuration resolution and structured logging setup so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
