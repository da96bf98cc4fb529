// Package editor provides a Bubble Tea text editor component backed by the
// buffer package.
//
// The package is responsible for input handling, viewport behavior,
// grapheme-aware rendering over the shared layout, per-cell decorations
// supplied by the host, and change and click notifications.
package editor
