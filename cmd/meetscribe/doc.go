// Package main hosts the meetscribe CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the structured
// logger, and hands recordings to internal/pipeline. Commands that only read
// existing artifacts (render, show, history) never touch the speech engines.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is surfaced here through a command or flag.
package main
