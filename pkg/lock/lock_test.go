package lock

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireFailOnDirectory(t *testing.T) {
	if _, err := Acquire(t.TempDir()); err == nil {
		t.Fatal("acquiring a lock on a directory path succeeded")
	}
}

func TestAcquireUnlockCycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	locker, err := Acquire(path)
	if err != nil {
		t.Fatal("unable to acquire lock:", err)
	}
	if locker.Token() == "" {
		t.Error("expected a non-empty diagnostic token")
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatal("unable to read lock file:", err)
	}
	if len(contents) == 0 {
		t.Error("expected diagnostic contents to be written to lock file")
	}

	if err := locker.Unlock(); err != nil {
		t.Fatal("unable to release lock:", err)
	}
}

func TestAcquireDuplicateFail(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatal("unable to acquire lock:", err)
	}
	defer first.Unlock()

	if _, err := Acquire(path); err != ErrLocked {
		t.Fatalf("expected ErrLocked acquiring an already-held lock, got %v", err)
	}
}
