// Package logging provides subsystem-tagged structured logging for mcpctl.
//
// All components log through the package-level Debug/Info/Warn/Error
// functions, passing a short subsystem name (e.g. "Registry", "Installer")
// as the first argument. Output goes through log/slog with a text handler
// configured once at startup via Init.
package logging
