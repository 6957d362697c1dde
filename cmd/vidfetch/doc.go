// Package main hosts the vidfetch CLI entrypoint and command graph.
//
// "vidfetch serve" wires the yt-dlp, WhisperX and translation adapters into
// the metadata resolver, download orchestrator and caption pipeline and runs
// the HTTP server. The remaining commands inspect and maintain the same
// state directly: dependency checks, the job store, configuration
// scaffolding, and offline translation of a local caption file.
package main
