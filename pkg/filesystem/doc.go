// Package filesystem provides the small set of filesystem primitives the
// engine needs beyond the standard library: atomic file writes, path
// normalization (tilde expansion and Unicode NFC), and the program data
// directory layout.
package filesystem
