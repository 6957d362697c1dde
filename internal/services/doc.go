// Package services defines shared utilities consumed by the HTTP handlers,
// the orchestration packages, and the external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, operation names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap and ToolFailure helpers that
//     let the API layer map failures to status codes and user-facing
//     messages without knowing which tool produced them.
//
// Adapters under services/ (ytdlp, whisperx, llm) are the only code allowed
// to talk to external programs or remote APIs.
package services
