package filesystem

import "golang.org/x/text/unicode/norm"

// NormalizeRelativePathNFC applies Unicode NFC normalization to a relative
// path's components. Filesystems that decompose Unicode (notably HFS+/APFS)
// can hand back NFD-composed names for entries that were created with NFC
// names elsewhere; since relative paths are the identity keys chains are
// built around (§9: identity-across-moves rekeying), normalizing them keeps
// an object's key stable across such filesystems.
func NormalizeRelativePathNFC(path string) string {
	return norm.NFC.String(path)
}
