// Package buffer implements the rune-accurate text model behind plain input
// fields and the terminal editor.
//
// Coordinates are 0-based (Row, Col) in runes.
// Ranges are half-open selections in document coordinates: [Start, End).
// Flat offsets count runes across the whole document with '\n' as one rune.
package buffer
