// Package pathmodel implements the path classifier (§4.A): the four-way
// mapping between a facade path, a storage path, a sidecar path, and the
// relative path that is an object's logical identity, plus the lexical
// rules that decide which root a filesystem path belongs to.
package pathmodel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hcs-sync/engine/pkg/filesystem"
)

// Location identifies which configured root a path was found under.
type Location int

const (
	// LocationOther indicates a path under neither the storage nor the
	// facade root.
	LocationOther Location = iota
	// LocationStorage indicates a path under the storage root.
	LocationStorage
	// LocationFacade indicates a path under the facade root.
	LocationFacade
)

// String renders a Location for diagnostics.
func (l Location) String() string {
	switch l {
	case LocationStorage:
		return "storage"
	case LocationFacade:
		return "facade"
	default:
		return "other"
	}
}

// Kind identifies the filesystem entity a Bundle refers to.
type Kind int

const (
	// KindFile is a regular file.
	KindFile Kind = iota
	// KindDirectory is a directory.
	KindDirectory
	// KindSymlink is a symbolic link.
	KindSymlink
	// KindSidecar is a sidecar metadata file.
	KindSidecar
)

// String renders a Kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	case KindSidecar:
		return "sidecar"
	default:
		return "file"
	}
}

// Roots holds the two configured tree roots that anchor every path
// derivation. Both are expected to be absolute, cleaned paths.
type Roots struct {
	StorageRoot string
	FacadeRoot  string
}

// Bundle is the file paths bundle of §3: everything derivable about one
// logical object from its relative path.
type Bundle struct {
	// Relative is the object's logical identity: a "/"-separated,
	// NFC-normalized path relative to either root.
	Relative string
	// StoragePath is storage_root + Relative.
	StoragePath string
	// FacadePath is facade_root + Relative.
	FacadePath string
	// SidecarPath is dirname(StoragePath) + "." + basename(Relative) + ".sc".
	SidecarPath string
	// Location records which root the path that produced this bundle was
	// found under.
	Location Location
	// Kind is the classified filesystem entity kind.
	Kind Kind
	// LinkTarget holds the symbolic link's target; populated only when Kind
	// is KindSymlink.
	LinkTarget string
}

// ErrLayoutViolation is returned when a path lies under neither the storage
// nor the facade root (§7 error kind 1).
var ErrLayoutViolation = fmt.Errorf("path is not under the storage or facade root")

// ErrClassificationAmbiguity is returned when a path's inode satisfies none
// of the kind predicates (§7 error kind 2).
var ErrClassificationAmbiguity = fmt.Errorf("path satisfies no kind predicate")

// isSidecarName reports whether base is of the form ".<name>.sc".
func isSidecarName(base string) bool {
	return strings.HasPrefix(base, ".") && strings.HasSuffix(base, ".sc") && len(base) > len(".sc")
}

// sidecarObjectName recovers the underlying object's base name from a
// sidecar's base name: strips the leading "." and trailing ".sc".
func sidecarObjectName(sidecarBase string) string {
	return strings.TrimSuffix(strings.TrimPrefix(sidecarBase, "."), ".sc")
}

// underRoot reports whether path lies at or under root, both assumed
// absolute and clean.
func underRoot(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// toRelative converts a cleaned filesystem path under root into the
// canonical "/"-separated, NFC-normalized relative form used as an object's
// identity.
func toRelative(path, root string) string {
	rel := strings.TrimPrefix(path, root)
	rel = strings.TrimPrefix(rel, string(filepath.Separator))
	return filesystem.NormalizeRelativePathNFC(filepath.ToSlash(rel))
}

// LocationOf determines a path's Location by prefix alone, without
// touching the filesystem. Walkers use this to decide how to handle a
// symbolic link target that may no longer exist, where a full Classify
// would fail on the missing inode before reaching a useful answer.
func LocationOf(absPath string, roots Roots) Location {
	absPath = filepath.Clean(absPath)
	switch {
	case underRoot(absPath, roots.StorageRoot):
		return LocationStorage
	case underRoot(absPath, roots.FacadeRoot):
		return LocationFacade
	default:
		return LocationOther
	}
}

// RelativeUnder computes the canonical "/"-separated, NFC-normalized
// relative path of absPath under root, without requiring the path to
// exist.
func RelativeUnder(absPath, root string) string {
	return toRelative(filepath.Clean(absPath), root)
}

// Classify implements classify(abs_path, cfg) from §4.A: it determines
// location and kind purely lexically except for the single stat required to
// distinguish file/directory/symlink kinds.
func Classify(absPath string, roots Roots) (Bundle, error) {
	absPath = filepath.Clean(absPath)
	base := filepath.Base(absPath)
	sidecarName := isSidecarName(base)

	var location Location
	switch {
	case underRoot(absPath, roots.StorageRoot):
		location = LocationStorage
	case underRoot(absPath, roots.FacadeRoot):
		location = LocationFacade
	default:
		return Bundle{}, ErrLayoutViolation
	}

	var kind Kind
	var linkTarget string
	if sidecarName {
		// Kind is chosen by name match regardless of which root the path
		// falls under: a sidecar-named file accidentally dropped in the
		// facade is still classified Sidecar (§4.F case 6, "stray").
		kind = KindSidecar
	} else {
		info, err := os.Lstat(absPath)
		if err != nil {
			return Bundle{}, err
		}
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			kind = KindSymlink
			target, err := os.Readlink(absPath)
			if err != nil {
				return Bundle{}, err
			}
			linkTarget = target
		case info.Mode().IsRegular():
			kind = KindFile
		case info.IsDir():
			kind = KindDirectory
		default:
			return Bundle{}, ErrClassificationAmbiguity
		}
	}

	rootForLocation := roots.StorageRoot
	if location == LocationFacade {
		rootForLocation = roots.FacadeRoot
	}

	var relative string
	if kind == KindSidecar {
		rel := toRelative(absPath, rootForLocation)
		dir, sidecarBase := splitRelative(rel)
		objectName := sidecarObjectName(sidecarBase)
		relative = joinRelative(dir, objectName)
	} else {
		relative = toRelative(absPath, rootForLocation)
	}

	return FromRelative(relative, kind, location, linkTarget, roots), nil
}

// FromRelative implements from_relative(R, kind, location, link_target?,
// cfg) from §4.A: a pure derivation of a full Bundle from an object's
// relative path, touching neither the filesystem nor any cache.
func FromRelative(relative string, kind Kind, location Location, linkTarget string, roots Roots) Bundle {
	relative = filesystem.NormalizeRelativePathNFC(relative)
	nativeRelative := filepath.FromSlash(relative)

	dir, base := splitRelative(relative)
	sidecarBase := "." + base + ".sc"
	sidecarRelativeDir := filepath.FromSlash(dir)

	var sidecarPath string
	if sidecarRelativeDir == "" {
		sidecarPath = filepath.Join(roots.StorageRoot, sidecarBase)
	} else {
		sidecarPath = filepath.Join(roots.StorageRoot, sidecarRelativeDir, sidecarBase)
	}

	return Bundle{
		Relative:    relative,
		StoragePath: filepath.Join(roots.StorageRoot, nativeRelative),
		FacadePath:  filepath.Join(roots.FacadeRoot, nativeRelative),
		SidecarPath: sidecarPath,
		Location:    location,
		Kind:        kind,
		LinkTarget:  linkTarget,
	}
}

// splitRelative splits a "/"-separated relative path into its directory
// component ("" for a top-level entry) and base name.
func splitRelative(relative string) (dir string, base string) {
	if index := strings.LastIndexByte(relative, '/'); index >= 0 {
		return relative[:index], relative[index+1:]
	}
	return "", relative
}

// joinRelative is the inverse of splitRelative.
func joinRelative(dir, base string) string {
	if dir == "" {
		return base
	}
	return dir + "/" + base
}
