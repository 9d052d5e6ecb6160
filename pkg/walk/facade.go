// Package walk implements the facade and storage walkers (§4.F, §4.G): the
// two directory-tree traversals that drive reconciliation. Each walks one
// root, classifies every entry via pkg/pathmodel, and dispatches one of a
// fixed set of cases to pkg/recorder.
package walk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hcs-sync/engine/pkg/logging"
	"github.com/hcs-sync/engine/pkg/pathmodel"
	"github.com/hcs-sync/engine/pkg/recorder"
)

// Facade walks the facade tree (§4.F), rooted at roots.FacadeRoot.
type Facade struct {
	Roots    pathmodel.Roots
	Recorder *recorder.Recorder
	Logger   *logging.Logger
	// Ignore is an optional list of doublestar glob patterns (§4.L),
	// matched against each entry's relative path before classification. A
	// matched entry is skipped entirely: not descended into, not recorded.
	Ignore []string
}

// Walk performs one descent of the facade tree, dispatching the six cases
// of §4.F for every entry. I/O failures on an individual entry are logged
// and the walk continues with the next entry (§4.E "Failure semantics");
// a failure reading a directory itself aborts that subtree.
func (f *Facade) Walk() error {
	return f.walkDir(f.Roots.FacadeRoot)
}

func (f *Facade) walkDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("unable to read facade directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		absPath := filepath.Join(dir, entry.Name())
		if err := f.dispatch(absPath); err != nil {
			f.Logger.Error(fmt.Errorf("facade walk: %s: %w", absPath, err))
		}
	}
	return nil
}

func (f *Facade) ignored(relative string) bool {
	for _, pattern := range f.Ignore {
		if matched, _ := doublestar.Match(pattern, relative); matched {
			return true
		}
	}
	return false
}

func (f *Facade) dispatch(absPath string) error {
	if f.ignored(pathmodel.RelativeUnder(absPath, f.Roots.FacadeRoot)) {
		return nil
	}
	bundle, err := pathmodel.Classify(absPath, f.Roots)
	if err != nil {
		return err
	}

	switch bundle.Kind {
	case pathmodel.KindSymlink:
		return f.dispatchSymlink(absPath, bundle)
	case pathmodel.KindFile:
		return f.dispatchFile(bundle)
	case pathmodel.KindDirectory:
		return f.dispatchDirectory(bundle)
	case pathmodel.KindSidecar:
		// Case 6: a stray sidecar sitting in the facade. It belongs to no
		// object there; just remove it.
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("unable to remove stray facade sidecar: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unhandled facade entry kind %v", bundle.Kind)
	}
}

// dispatchSymlink implements cases 1-3 of §4.F.
func (f *Facade) dispatchSymlink(absPath string, bundle pathmodel.Bundle) error {
	targetAbs := resolveSymlinkTarget(absPath, bundle.LinkTarget)
	switch pathmodel.LocationOf(targetAbs, f.Roots) {
	case pathmodel.LocationFacade:
		// Case 1: reserved, ignored.
		return nil
	case pathmodel.LocationOther:
		// Case 3: points somewhere outside both roots, ignored.
		return nil
	}

	// Case 2: points into storage.
	if _, err := os.Lstat(targetAbs); err != nil {
		if os.IsNotExist(err) {
			return f.Recorder.DeleteFile(bundle)
		}
		return fmt.Errorf("unable to stat symlink target: %w", err)
	}

	targetRelative := pathmodel.RelativeUnder(targetAbs, f.Roots.StorageRoot)
	if targetRelative == bundle.Relative {
		return nil
	}

	from := pathmodel.FromRelative(targetRelative, pathmodel.KindFile, pathmodel.LocationStorage, "", f.Roots)
	to := pathmodel.FromRelative(bundle.Relative, pathmodel.KindFile, pathmodel.LocationStorage, "", f.Roots)
	return f.Recorder.MoveFile(from, to, recorder.SkipSymlink)
}

// dispatchFile implements case 4 of §4.F: a regular file dropped directly
// in the facade, which must be adopted into storage.
func (f *Facade) dispatchFile(bundle pathmodel.Bundle) error {
	uniqueRelative := uniqueStorageRelative(f.Roots.StorageRoot, bundle.Relative)
	destination := pathmodel.FromRelative(uniqueRelative, pathmodel.KindFile, pathmodel.LocationStorage, "", f.Roots)

	if err := os.Rename(bundle.FacadePath, destination.StoragePath); err != nil {
		return fmt.Errorf("unable to move facade file into storage: %w", err)
	}
	return f.Recorder.CreateFile(destination)
}

// dispatchDirectory implements case 5 of §4.F, then always descends: a
// facade directory's children must be observed regardless of whether this
// directory itself needed repair.
func (f *Facade) dispatchDirectory(bundle pathmodel.Bundle) error {
	storageInfo, storageErr := os.Stat(bundle.StoragePath)
	_, sidecarErr := os.Stat(bundle.SidecarPath)

	inSync := storageErr == nil && storageInfo.IsDir() && sidecarErr == nil
	if !inSync {
		if err := f.Recorder.CreateDir(bundle); err != nil {
			return err
		}
	}

	return f.walkDir(bundle.FacadePath)
}

// resolveSymlinkTarget resolves a symbolic link's raw target (which may be
// relative to the link's own directory) to an absolute, cleaned path.
func resolveSymlinkTarget(linkPath, target string) string {
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(filepath.Dir(linkPath), target))
}

// uniqueStorageRelative implements the unique-name allocation algorithm of
// §4.F case 4: append " (k)" before the extension for the smallest k >= 1
// that yields a name not already present under storageRoot. The original
// relative path is tried first (k = 0, no suffix).
func uniqueStorageRelative(storageRoot, relative string) string {
	ext := filepath.Ext(relative)
	base := strings.TrimSuffix(relative, ext)

	for k := 0; ; k++ {
		candidate := relative
		if k > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", base, k, ext)
		}
		if _, err := os.Lstat(filepath.Join(storageRoot, filepath.FromSlash(candidate))); os.IsNotExist(err) {
			return candidate
		}
	}
}
