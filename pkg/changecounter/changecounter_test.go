package changecounter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hcs-sync/engine/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.LevelError, &bytes.Buffer{})
}

func TestInitCreatesZeroedCounter(t *testing.T) {
	dir := t.TempDir()

	counter, err := Init(dir, testLogger())
	if err != nil {
		t.Fatal("init failed:", err)
	}
	if counter.Value() != 0 {
		t.Error("expected initial value of 0, got", counter.Value())
	}

	contents, err := os.ReadFile(filepath.Join(dir, "change_count"))
	if err != nil {
		t.Fatal("unable to read counter file:", err)
	}
	if string(contents) != "0" {
		t.Error("counter file contents mismatch:", string(contents))
	}

	if _, err := os.Stat(filepath.Join(dir, "changes")); err != nil {
		t.Error("expected changes/ subdirectory to exist:", err)
	}
}

func TestAllocateIsMonotoneAndDurable(t *testing.T) {
	dir := t.TempDir()
	counter, err := Init(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	first, err := counter.Allocate()
	if err != nil {
		t.Fatal(err)
	}
	second, err := counter.Allocate()
	if err != nil {
		t.Fatal(err)
	}
	if first != 1 || second != 2 {
		t.Errorf("expected allocations 1, 2; got %d, %d", first, second)
	}

	// Durability: re-Init from the same directory should pick up the
	// persisted value, not start over from 0.
	reloaded, err := Init(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Value() != 2 {
		t.Error("expected reloaded counter to reflect persisted value, got", reloaded.Value())
	}
}

func TestResetOutsideWalkerLoop(t *testing.T) {
	dir := t.TempDir()
	counter, err := Init(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := counter.Allocate(); err != nil {
		t.Fatal(err)
	}
	if err := counter.Reset(0); err != nil {
		t.Fatal("reset failed:", err)
	}
	if counter.Value() != 0 {
		t.Error("expected counter to be reset to 0")
	}
}

func TestRecordPath(t *testing.T) {
	dir := t.TempDir()
	counter, err := Init(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := counter.RecordPath(5), filepath.Join(dir, "changes", "5"); got != want {
		t.Errorf("record path mismatch: got %q, want %q", got, want)
	}
}
