package walk

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hcs-sync/engine/pkg/logging"
	"github.com/hcs-sync/engine/pkg/pathmodel"
	"github.com/hcs-sync/engine/pkg/recorder"
	"github.com/hcs-sync/engine/pkg/sidecar"
)

// Storage walks the storage tree (§4.G), rooted at roots.StorageRoot.
type Storage struct {
	Roots    pathmodel.Roots
	Recorder *recorder.Recorder
	Logger   *logging.Logger
}

// Walk performs one descent of the storage tree, dispatching the four
// cases of §4.G for every entry.
func (s *Storage) Walk() error {
	return s.walkDir(s.Roots.StorageRoot)
}

func (s *Storage) walkDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("unable to read storage directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		absPath := filepath.Join(dir, entry.Name())
		if err := s.dispatch(absPath); err != nil {
			s.Logger.Error(fmt.Errorf("storage walk: %s: %w", absPath, err))
		}
	}
	return nil
}

func (s *Storage) dispatch(absPath string) error {
	bundle, err := pathmodel.Classify(absPath, s.Roots)
	if err != nil {
		return err
	}

	switch bundle.Kind {
	case pathmodel.KindFile:
		return s.dispatchFile(bundle)
	case pathmodel.KindSidecar:
		return s.dispatchSidecar(bundle)
	case pathmodel.KindDirectory:
		return s.dispatchDirectory(bundle)
	case pathmodel.KindSymlink:
		// Case 10: ignored. Storage never legitimately contains symbolic
		// links; one found here is left alone rather than guessed at.
		return nil
	default:
		return fmt.Errorf("unhandled storage entry kind %v", bundle.Kind)
	}
}

// dispatchFile implements case 7 of §4.G.
func (s *Storage) dispatchFile(bundle pathmodel.Bundle) error {
	side, err := s.Recorder.Sidecars.Read(bundle)
	sidecarMissing := err != nil
	_, facadeErr := os.Lstat(bundle.FacadePath)
	facadeMissing := facadeErr != nil

	if sidecarMissing || facadeMissing {
		return s.Recorder.DeleteFile(bundle)
	}

	mtime, err := sidecar.MtimeOf(bundle.StoragePath)
	if err != nil {
		return fmt.Errorf("unable to stat storage file: %w", err)
	}
	if mtime != side.LastModified {
		return s.Recorder.ModifyFile(bundle)
	}
	return nil
}

// dispatchSidecar implements case 8 of §4.G: a sidecar entry found
// directly by the storage walk (rather than as the counterpart of a file
// or directory entry it has already visited). It must determine whether
// the object it names is a directory or a file by inspecting siblings,
// since the sidecar itself carries no kind tag.
func (s *Storage) dispatchSidecar(bundle pathmodel.Bundle) error {
	if info, err := os.Stat(bundle.StoragePath); err == nil {
		if info.IsDir() {
			return s.deleteDirIfIncomplete(bundle)
		}
		return s.deleteFileIfIncomplete(bundle)
	}

	if info, err := os.Lstat(bundle.FacadePath); err == nil {
		if info.IsDir() {
			return s.deleteDirIfIncomplete(bundle)
		}
		return s.deleteFileIfIncomplete(bundle)
	}

	// Neither the storage object nor the facade counterpart exists; the
	// object kind can't be determined from what's left, so treat it as a
	// stray file sidecar (the more common case) and let DeleteFile's
	// idempotent steps clean it up.
	return s.deleteFileIfIncomplete(bundle)
}

func (s *Storage) deleteDirIfIncomplete(bundle pathmodel.Bundle) error {
	_, facadeErr := os.Stat(bundle.FacadePath)
	_, storageErr := os.Stat(bundle.StoragePath)
	if facadeErr != nil || storageErr != nil {
		return s.Recorder.DeleteDir(bundle)
	}
	return nil
}

func (s *Storage) deleteFileIfIncomplete(bundle pathmodel.Bundle) error {
	_, facadeErr := os.Lstat(bundle.FacadePath)
	_, storageErr := os.Stat(bundle.StoragePath)
	if facadeErr != nil || storageErr != nil {
		return s.Recorder.DeleteFile(bundle)
	}
	return nil
}

// dispatchDirectory implements case 9 of §4.G, then descends unless the
// directory was just deleted.
func (s *Storage) dispatchDirectory(bundle pathmodel.Bundle) error {
	_, sidecarErr := os.Stat(bundle.SidecarPath)
	facadeInfo, facadeErr := os.Stat(bundle.FacadePath)

	if sidecarErr != nil || facadeErr != nil {
		if err := s.Recorder.DeleteDir(bundle); err != nil {
			return err
		}
		return nil
	}

	side, err := s.Recorder.Sidecars.Read(bundle)
	if err != nil {
		return fmt.Errorf("unable to read directory sidecar: %w", err)
	}
	mtime := uint64(facadeInfo.ModTime().Unix())
	if mtime != side.LastModified {
		if err := s.Recorder.ModifyDir(bundle); err != nil {
			return err
		}
	}

	return s.walkDir(bundle.StoragePath)
}
