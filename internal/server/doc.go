// Package server exposes vidfetch over HTTP.
//
// The router is a gin engine in release mode with four middlewares applied
// in order: panic recovery, request ids, access logging, and CORS for the
// /api/ prefix. Handlers translate JSON bodies into calls on the metadata
// resolver, the download orchestrator and the caption pipeline, and map
// returned errors to status codes through the sentinel markers in
// internal/services. Client-facing messages come from services.PublicMessage;
// unclassified failures answer 500 with a generic message and are logged in
// full.
//
// Server owns the process lifecycle: the state directory lock, recovery of
// jobs a previous process left running, the retention sweeper, and graceful
// shutdown of the listener.
package server
