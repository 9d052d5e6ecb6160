package recorder

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hcs-sync/engine/pkg/changecounter"
	"github.com/hcs-sync/engine/pkg/changeevent"
	"github.com/hcs-sync/engine/pkg/logging"
	"github.com/hcs-sync/engine/pkg/pathmodel"
	"github.com/hcs-sync/engine/pkg/sidecar"
)

type harness struct {
	roots pathmodel.Roots
	rec   *Recorder
}

func newHarness(t *testing.T) harness {
	t.Helper()
	storageRoot := t.TempDir()
	facadeRoot := t.TempDir()
	programData := t.TempDir()

	logger := logging.NewLogger(logging.LevelError, &bytes.Buffer{})
	counter, err := changecounter.Init(programData, logger)
	if err != nil {
		t.Fatal(err)
	}
	store := sidecar.NewStore(logger)

	return harness{
		roots: pathmodel.Roots{StorageRoot: storageRoot, FacadeRoot: facadeRoot},
		rec:   New(store, counter, logger),
	}
}

func (h harness) bundle(relative string, kind pathmodel.Kind) pathmodel.Bundle {
	return pathmodel.FromRelative(relative, kind, pathmodel.LocationStorage, "", h.roots)
}

func readRecord(t *testing.T, path string) changeevent.Record {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal("unable to read record:", err)
	}
	record, err := changeevent.ParseRecord(data)
	if err != nil {
		t.Fatal("unable to parse record:", err)
	}
	return record
}

func TestCreateFile(t *testing.T) {
	h := newHarness(t)
	bundle := h.bundle("a.txt", pathmodel.KindFile)

	if err := os.WriteFile(bundle.StoragePath, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := h.rec.CreateFile(bundle); err != nil {
		t.Fatal("CreateFile failed:", err)
	}

	target, err := os.Readlink(bundle.FacadePath)
	if err != nil || target != bundle.StoragePath {
		t.Errorf("expected facade link to storage path, got %q, err %v", target, err)
	}

	value, err := h.rec.Sidecars.Read(bundle)
	if err != nil {
		t.Fatal("sidecar missing:", err)
	}
	if value.LastModified == 0 {
		t.Error("expected nonzero sidecar mtime")
	}

	record := readRecord(t, h.rec.Counter.RecordPath(1))
	if record.Opcode != changeevent.OpCreateFile || record.Path != "a.txt" {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestCreateDir(t *testing.T) {
	h := newHarness(t)
	bundle := h.bundle("sub", pathmodel.KindDirectory)

	if err := h.rec.CreateDir(bundle); err != nil {
		t.Fatal("CreateDir failed:", err)
	}
	if info, err := os.Stat(bundle.StoragePath); err != nil || !info.IsDir() {
		t.Error("expected storage directory to exist")
	}
	record := readRecord(t, h.rec.Counter.RecordPath(1))
	if record.Opcode != changeevent.OpCreateDir || record.Path != "sub" {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestModifyFile(t *testing.T) {
	h := newHarness(t)
	bundle := h.bundle("a.txt", pathmodel.KindFile)

	if err := os.WriteFile(bundle.StoragePath, []byte("v1"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := h.rec.CreateFile(bundle); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(bundle.StoragePath, []byte("v2 longer content"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := h.rec.ModifyFile(bundle); err != nil {
		t.Fatal("ModifyFile failed:", err)
	}

	record := readRecord(t, h.rec.Counter.RecordPath(2))
	if record.Opcode != changeevent.OpModifyFile || record.Path != "a.txt" {
		t.Errorf("unexpected record: %+v", record)
	}

	value, err := h.rec.Sidecars.Read(bundle)
	if err != nil {
		t.Fatal(err)
	}
	stat, err := os.Stat(bundle.StoragePath)
	if err != nil {
		t.Fatal(err)
	}
	if value.LastModified != uint64(stat.ModTime().Unix()) {
		t.Error("sidecar mtime not updated to current storage mtime")
	}
}

func TestModifyDirEmitsNoRecord(t *testing.T) {
	h := newHarness(t)
	bundle := h.bundle("sub", pathmodel.KindDirectory)
	if err := h.rec.CreateDir(bundle); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(bundle.FacadePath, 0700); err != nil {
		t.Fatal(err)
	}

	if err := h.rec.ModifyDir(bundle); err != nil {
		t.Fatal("ModifyDir failed:", err)
	}
	if h.rec.Counter.Value() != 1 {
		t.Error("expected modify_dir to not advance the counter, got", h.rec.Counter.Value())
	}
}

func TestDeleteFileIsIdempotent(t *testing.T) {
	h := newHarness(t)
	bundle := h.bundle("a.txt", pathmodel.KindFile)
	if err := os.WriteFile(bundle.StoragePath, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := h.rec.CreateFile(bundle); err != nil {
		t.Fatal(err)
	}

	if err := h.rec.DeleteFile(bundle); err != nil {
		t.Fatal("first DeleteFile failed:", err)
	}
	if _, err := os.Lstat(bundle.FacadePath); !os.IsNotExist(err) {
		t.Error("expected facade link to be gone")
	}

	// Simulate a crash-and-rewalk: calling DeleteFile again on an
	// already-cleaned bundle must not error.
	if err := h.rec.DeleteFile(bundle); err != nil {
		t.Fatal("second DeleteFile should be idempotent, got:", err)
	}
}

func TestDeleteDir(t *testing.T) {
	h := newHarness(t)
	bundle := h.bundle("sub", pathmodel.KindDirectory)
	if err := h.rec.CreateDir(bundle); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(bundle.FacadePath, 0700); err != nil {
		t.Fatal(err)
	}

	if err := h.rec.DeleteDir(bundle); err != nil {
		t.Fatal("DeleteDir failed:", err)
	}
	if _, err := os.Stat(bundle.StoragePath); !os.IsNotExist(err) {
		t.Error("expected storage directory to be gone")
	}
	if _, err := os.Stat(bundle.FacadePath); !os.IsNotExist(err) {
		t.Error("expected facade directory to be gone")
	}
}

func TestMoveFileCreatesLinkAtDestination(t *testing.T) {
	h := newHarness(t)
	from := h.bundle("old.txt", pathmodel.KindFile)
	to := h.bundle("new.txt", pathmodel.KindFile)

	if err := os.WriteFile(from.StoragePath, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := h.rec.CreateFile(from); err != nil {
		t.Fatal(err)
	}

	if err := h.rec.MoveFile(from, to, SkipNone); err != nil {
		t.Fatal("MoveFile failed:", err)
	}

	if _, err := os.Lstat(from.FacadePath); !os.IsNotExist(err) {
		t.Error("expected stale facade link at the from-path to be removed")
	}
	target, err := os.Readlink(to.FacadePath)
	if err != nil {
		t.Fatal("expected a facade link at the to-path:", err)
	}
	if target != to.StoragePath {
		t.Errorf("expected link at destination to point at the destination storage path, got %q", target)
	}
	if _, err := os.Stat(to.StoragePath); err != nil {
		t.Error("expected storage file at destination:", err)
	}
	if _, err := os.Stat(from.StoragePath); !os.IsNotExist(err) {
		t.Error("expected storage file at source to be gone")
	}

	record := readRecord(t, h.rec.Counter.RecordPath(2))
	if record.Opcode != changeevent.OpMoveFile || record.From != "old.txt" || record.To != "new.txt" {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestMoveFileSkipsRequestedFacet(t *testing.T) {
	h := newHarness(t)
	from := h.bundle("old.txt", pathmodel.KindFile)
	to := h.bundle("new.txt", pathmodel.KindFile)

	if err := os.WriteFile(from.StoragePath, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := h.rec.CreateFile(from); err != nil {
		t.Fatal(err)
	}

	// Simulate the caller already having moved the storage file into
	// place itself.
	if err := os.Rename(from.StoragePath, to.StoragePath); err != nil {
		t.Fatal(err)
	}

	if err := h.rec.MoveFile(from, to, SkipFile); err != nil {
		t.Fatal("MoveFile with SkipFile failed:", err)
	}
	if _, err := os.Stat(to.StoragePath); err != nil {
		t.Error("expected the pre-moved storage file to remain at destination:", err)
	}
}

func TestRecordPathBase(t *testing.T) {
	h := newHarness(t)
	if got, want := filepath.Base(h.rec.Counter.RecordPath(1)), "1"; got != want {
		t.Errorf("record filename mismatch: got %q want %q", got, want)
	}
}
