// Package internal contains the core implementation packages for
// polarstudio.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the polarstudio CLI and studio server.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - registry: Append-only component schema registry (tags, params, ranges)
//   - bench: In-memory bench model shared by every other package
//   - codec: Token encoder, decoder and length estimator
//   - share: Share-link builder and link parsing
//   - clipboard: Clipboard copy with a terminal fallback surface
//   - benchfile: YAML and JSON bench files
//   - optics: Jones-calculus trace producing detector readings
//   - config: Configuration loading, validation and the setup wizard
//   - errors: Typed errors and localized user messages
//   - logging: Structured logging on log/slog
//   - validation: Path and origin checks for untrusted input
//   - watcher: Debounced bench-file watching
//   - http, middleware, server: The studio server
//   - monitoring: Request and share metrics, health checks
//   - tui: Terminal bench editor with a live length estimate
//   - version: Build and token-format version reporting
//
// # Data Flow
//
// A bench is edited (tui), loaded from a file (benchfile) or decoded from
// a token (codec). The share package encodes it and checks the link
// against the length limit; the clipboard package hands the link to the
// user. Decoding is all or nothing: a token either yields a complete
// bench or one typed error from the errors package.
//
// # Compatibility
//
// Tokens carry a format version. Registry tags and parameter keys are
// never reused once released, so every link shared so far keeps
// decoding to the same bench.
package internal
