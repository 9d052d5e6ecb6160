// Package recorder implements the change recorder (§4.E): the seven
// entry points the walkers invoke when they detect a divergence. Each
// entry point performs the filesystem repair it names, updates the
// relevant sidecars, and writes a textual change record, in the exact
// step order §4.E mandates — later steps assume earlier ones already
// landed, and a crash between steps must leave the tree in a state a
// rewalk can repair (§3's "idempotent under rewalk").
package recorder

import (
	"fmt"
	"os"

	"github.com/hcs-sync/engine/pkg/changeevent"
	"github.com/hcs-sync/engine/pkg/changecounter"
	"github.com/hcs-sync/engine/pkg/filesystem"
	"github.com/hcs-sync/engine/pkg/logging"
	"github.com/hcs-sync/engine/pkg/pathmodel"
	"github.com/hcs-sync/engine/pkg/sidecar"
)

// Recorder ties together the sidecar store and change counter that every
// entry point needs.
type Recorder struct {
	Sidecars *sidecar.Store
	Counter  *changecounter.Counter
	Logger   *logging.Logger
}

// New constructs a Recorder over an already-initialized sidecar store and
// change counter.
func New(sidecars *sidecar.Store, counter *changecounter.Counter, logger *logging.Logger) *Recorder {
	return &Recorder{Sidecars: sidecars, Counter: counter, Logger: logger}
}

// SkipKind names the filesystem facet a move_file sub-move should leave
// untouched, because the caller (reconciliation, §4.F case 2) has already
// brought it in line with the destination.
type SkipKind int

const (
	// SkipNone performs all three sub-moves.
	SkipNone SkipKind = iota
	// SkipSymlink leaves the facade symbolic link untouched.
	SkipSymlink
	// SkipFile leaves the storage file untouched.
	SkipFile
	// SkipSidecar leaves the sidecar file untouched.
	SkipSidecar
)

// writeRecord allocates the next counter id and durably writes the given
// record at the path that id names (Invariant CI: the counter is
// advanced, and only then is the record file created).
func (r *Recorder) writeRecord(record changeevent.Record) error {
	id, err := r.Counter.Allocate()
	if err != nil {
		return fmt.Errorf("unable to allocate record id: %w", err)
	}
	if err := filesystem.WriteFileAtomic(r.Counter.RecordPath(id), record.Format(), 0600, r.Logger); err != nil {
		return fmt.Errorf("unable to write change record %d: %w", id, err)
	}
	return nil
}

// CreateFile implements create_file(bundle) from §4.E. It assumes the real
// file is already at bundle.StoragePath.
func (r *Recorder) CreateFile(bundle pathmodel.Bundle) error {
	mtime, err := sidecar.MtimeOf(bundle.StoragePath)
	if err != nil {
		return fmt.Errorf("unable to stat storage path: %w", err)
	}
	if err := r.Sidecars.Write(bundle, sidecar.Sidecar{LastModified: mtime}); err != nil {
		return fmt.Errorf("unable to write sidecar: %w", err)
	}
	if err := os.Symlink(bundle.StoragePath, bundle.FacadePath); err != nil {
		return fmt.Errorf("unable to create facade link: %w", err)
	}
	return r.writeRecord(changeevent.Record{Opcode: changeevent.OpCreateFile, Path: bundle.Relative})
}

// CreateDir implements create_dir(bundle) from §4.E. The facade directory
// itself must already exist; the walker creates it before dispatch since
// walking recurses into it.
func (r *Recorder) CreateDir(bundle pathmodel.Bundle) error {
	if err := os.Mkdir(bundle.StoragePath, 0700); err != nil && !os.IsExist(err) {
		return fmt.Errorf("unable to create storage directory: %w", err)
	}
	mtime, err := sidecar.MtimeOf(bundle.StoragePath)
	if err != nil {
		return fmt.Errorf("unable to stat storage directory: %w", err)
	}
	if err := r.Sidecars.Write(bundle, sidecar.Sidecar{LastModified: mtime}); err != nil {
		return fmt.Errorf("unable to write sidecar: %w", err)
	}
	return r.writeRecord(changeevent.Record{Opcode: changeevent.OpCreateDir, Path: bundle.Relative})
}

// ModifyFile implements modify_file(bundle) from §4.E. The record is
// written before the sidecar is rewritten, so a crash between the two
// replays as a modify on the next walk rather than silently losing the
// change.
func (r *Recorder) ModifyFile(bundle pathmodel.Bundle) error {
	current, err := r.Sidecars.Read(bundle)
	if err != nil {
		return fmt.Errorf("unable to read sidecar: %w", err)
	}
	if err := r.writeRecord(changeevent.Record{Opcode: changeevent.OpModifyFile, Path: bundle.Relative}); err != nil {
		return err
	}
	mtime, err := sidecar.MtimeOf(bundle.StoragePath)
	if err != nil {
		return fmt.Errorf("unable to stat storage path: %w", err)
	}
	current.LastModified = mtime
	if err := r.Sidecars.Write(bundle, current); err != nil {
		return fmt.Errorf("unable to rewrite sidecar: %w", err)
	}
	return nil
}

// ModifyDir implements modify_dir(bundle) from §4.E. No record is emitted:
// directory modifications are implicit in the child create/modify/delete
// events the walk also produces.
func (r *Recorder) ModifyDir(bundle pathmodel.Bundle) error {
	mtime, err := sidecar.MtimeOf(bundle.FacadePath)
	if err != nil {
		return fmt.Errorf("unable to stat facade directory: %w", err)
	}
	return r.Sidecars.Write(bundle, sidecar.Sidecar{LastModified: mtime})
}

// DeleteFile implements delete_file(bundle) from §4.E. Every step is
// independently idempotent, so a crash at any point leaves a state a
// rewalk finishes cleanly.
func (r *Recorder) DeleteFile(bundle pathmodel.Bundle) error {
	if info, err := os.Lstat(bundle.FacadePath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(bundle.FacadePath); err != nil {
			return fmt.Errorf("unable to remove facade link: %w", err)
		}
	} else if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to stat facade path: %w", err)
	}

	if err := r.Sidecars.Remove(bundle); err != nil {
		return fmt.Errorf("unable to remove sidecar: %w", err)
	}

	if err := os.Remove(bundle.StoragePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to remove storage file: %w", err)
	}

	return r.writeRecord(changeevent.Record{Opcode: changeevent.OpDeleteFile, Path: bundle.Relative})
}

// DeleteDir implements delete_dir(bundle) from §4.E.
func (r *Recorder) DeleteDir(bundle pathmodel.Bundle) error {
	if err := r.Sidecars.Remove(bundle); err != nil {
		return fmt.Errorf("unable to remove sidecar: %w", err)
	}

	if err := os.RemoveAll(bundle.FacadePath); err != nil {
		return fmt.Errorf("unable to remove facade directory: %w", err)
	}

	if err := os.RemoveAll(bundle.StoragePath); err != nil {
		return fmt.Errorf("unable to remove storage directory: %w", err)
	}

	return r.writeRecord(changeevent.Record{Opcode: changeevent.OpDeleteDir, Path: bundle.Relative})
}

// MoveFile implements move_file(from_R, to_R, skip_kind, cfg) from §4.E.
// Each of the three sub-moves is independently skippable, for the case
// where reconciliation has already brought one facet in line with the
// destination.
//
// The facade sub-move uses the corrected direction decided in the Open
// Questions resolution (§9): the new symbolic link is created at the *to*
// location, pointing at storage_path(to), with any stale link at *from*
// removed first. The source this engine was distilled from instead linked
// at *from* pointing at *to*, which left no link at the object's new
// location — a bug this implementation does not reproduce.
func (r *Recorder) MoveFile(from, to pathmodel.Bundle, skip SkipKind) error {
	if skip != SkipSymlink {
		if err := os.Remove(from.FacadePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("unable to remove stale facade link: %w", err)
		}
		if err := os.Symlink(to.StoragePath, to.FacadePath); err != nil {
			return fmt.Errorf("unable to create facade link at destination: %w", err)
		}
	}

	if skip != SkipFile {
		if err := os.Rename(from.StoragePath, to.StoragePath); err != nil {
			return fmt.Errorf("unable to rename storage path: %w", err)
		}
	}

	if skip != SkipSidecar {
		if err := os.Rename(from.SidecarPath, to.SidecarPath); err != nil {
			return fmt.Errorf("unable to rename sidecar: %w", err)
		}
	}

	return r.writeRecord(changeevent.Record{Opcode: changeevent.OpMoveFile, From: from.Relative, To: to.Relative})
}
