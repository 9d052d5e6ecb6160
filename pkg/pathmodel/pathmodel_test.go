package pathmodel

import (
	"os"
	"path/filepath"
	"testing"
)

func testRoots(t *testing.T) Roots {
	t.Helper()
	base := t.TempDir()
	storage := filepath.Join(base, "storage")
	facade := filepath.Join(base, "facade")
	if err := os.MkdirAll(storage, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(facade, 0700); err != nil {
		t.Fatal(err)
	}
	return Roots{StorageRoot: storage, FacadeRoot: facade}
}

func TestClassifyStorageFile(t *testing.T) {
	roots := testRoots(t)
	path := filepath.Join(roots.StorageRoot, "a.txt")
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	bundle, err := Classify(path, roots)
	if err != nil {
		t.Fatal("classify failed:", err)
	}
	if bundle.Location != LocationStorage {
		t.Error("expected storage location")
	}
	if bundle.Kind != KindFile {
		t.Error("expected file kind")
	}
	if bundle.Relative != "a.txt" {
		t.Error("relative path mismatch:", bundle.Relative)
	}
	if bundle.SidecarPath != filepath.Join(roots.StorageRoot, ".a.txt.sc") {
		t.Error("sidecar path mismatch:", bundle.SidecarPath)
	}
}

func TestClassifyNestedSidecar(t *testing.T) {
	roots := testRoots(t)
	if err := os.MkdirAll(filepath.Join(roots.StorageRoot, "sub"), 0700); err != nil {
		t.Fatal(err)
	}
	sidecarPath := filepath.Join(roots.StorageRoot, "sub", ".b.txt.sc")
	if err := os.WriteFile(sidecarPath, []byte(`{"last_modified":1}`), 0600); err != nil {
		t.Fatal(err)
	}

	bundle, err := Classify(sidecarPath, roots)
	if err != nil {
		t.Fatal("classify failed:", err)
	}
	if bundle.Kind != KindSidecar {
		t.Error("expected sidecar kind")
	}
	if bundle.Relative != "sub/b.txt" {
		t.Error("relative path mismatch:", bundle.Relative)
	}
	if bundle.StoragePath != filepath.Join(roots.StorageRoot, "sub", "b.txt") {
		t.Error("storage path mismatch:", bundle.StoragePath)
	}
}

func TestClassifyFacadeSymlink(t *testing.T) {
	roots := testRoots(t)
	target := filepath.Join(roots.StorageRoot, "a.txt")
	if err := os.WriteFile(target, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(roots.FacadeRoot, "a.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	bundle, err := Classify(link, roots)
	if err != nil {
		t.Fatal("classify failed:", err)
	}
	if bundle.Location != LocationFacade {
		t.Error("expected facade location")
	}
	if bundle.Kind != KindSymlink {
		t.Error("expected symlink kind")
	}
	if bundle.LinkTarget != target {
		t.Error("link target mismatch:", bundle.LinkTarget)
	}
}

func TestClassifyStraySidecarInFacade(t *testing.T) {
	roots := testRoots(t)
	path := filepath.Join(roots.FacadeRoot, ".ghost.sc")
	if err := os.WriteFile(path, []byte(`{"last_modified":1}`), 0600); err != nil {
		t.Fatal(err)
	}

	bundle, err := Classify(path, roots)
	if err != nil {
		t.Fatal("classify failed:", err)
	}
	if bundle.Location != LocationFacade {
		t.Error("expected facade location")
	}
	if bundle.Kind != KindSidecar {
		t.Error("expected a stray facade sidecar to still classify as Sidecar")
	}
	if bundle.Relative != "ghost" {
		t.Error("relative path mismatch:", bundle.Relative)
	}
}

func TestClassifyLayoutViolation(t *testing.T) {
	roots := testRoots(t)
	if _, err := Classify("/tmp/nowhere/x.txt", roots); err != ErrLayoutViolation {
		t.Errorf("expected ErrLayoutViolation, got %v", err)
	}
}

// TestClassifyIsLexicalNotInodeBased checks §8 boundary behavior 6 in its
// simplest form: a path textually prefixed by the storage root classifies
// as storage.
func TestClassifyIsLexicalNotInodeBased(t *testing.T) {
	roots := testRoots(t)
	path := filepath.Join(roots.StorageRoot, "dir")
	if err := os.MkdirAll(path, 0700); err != nil {
		t.Fatal(err)
	}

	bundle, err := Classify(path, roots)
	if err != nil {
		t.Fatal(err)
	}
	if bundle.Location != LocationStorage {
		t.Error("classification should follow the textual prefix")
	}
}

func TestFromRelativeRoundTrip(t *testing.T) {
	roots := testRoots(t)
	bundle := FromRelative("sub/file.txt", KindFile, LocationStorage, "", roots)

	if bundle.StoragePath != filepath.Join(roots.StorageRoot, "sub", "file.txt") {
		t.Error("storage path mismatch:", bundle.StoragePath)
	}
	if bundle.FacadePath != filepath.Join(roots.FacadeRoot, "sub", "file.txt") {
		t.Error("facade path mismatch:", bundle.FacadePath)
	}
	if bundle.SidecarPath != filepath.Join(roots.StorageRoot, "sub", ".file.txt.sc") {
		t.Error("sidecar path mismatch:", bundle.SidecarPath)
	}
}

func TestFromRelativeNoExtension(t *testing.T) {
	roots := testRoots(t)
	bundle := FromRelative("README", KindFile, LocationStorage, "", roots)
	if bundle.SidecarPath != filepath.Join(roots.StorageRoot, ".README.sc") {
		t.Error("sidecar path mismatch for extensionless file:", bundle.SidecarPath)
	}
}
