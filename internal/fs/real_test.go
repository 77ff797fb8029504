package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"docvault/internal/fs"
)

func Test_Write_File_Atomic_When_Target_Missing(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	path := filepath.Join(t.TempDir(), "data.json")

	if err := fsys.WriteFileAtomic(path, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := string(data), `{"a":1}`; got != want {
		t.Errorf("content=%q, want=%q", got, want)
	}
}

func Test_Write_File_Atomic_When_Target_Exists(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")

	if err := fsys.WriteFileAtomic(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := fsys.WriteFileAtomic(path, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := string(data), "new"; got != want {
		t.Errorf("content=%q, want=%q", got, want)
	}

	// No stray temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := len(entries), 1; got != want {
		for _, entry := range entries {
			t.Logf("left behind: %s", entry.Name())
		}

		t.Errorf("entries=%d, want=%d", got, want)
	}
}

func Test_Exists_When_File_Present_And_Absent(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")

	exists, err := fsys.Exists(path)
	if err != nil {
		t.Fatal(err)
	}

	if exists {
		t.Error("Exists=true for a missing file")
	}

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	exists, err = fsys.Exists(path)
	if err != nil {
		t.Fatal(err)
	}

	if !exists {
		t.Error("Exists=false for a present file")
	}
}

func Test_Lock_When_Released_And_Reacquired(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	path := filepath.Join(t.TempDir(), "data.json")

	lock, err := fsys.Lock(path)
	if err != nil {
		t.Fatalf("first Lock: %v", err)
	}

	// The lock lives in a sidecar file, never in the target itself.
	if _, statErr := os.Stat(path + ".lock"); statErr != nil {
		t.Errorf("sidecar lock file: %v", statErr)
	}

	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("locking created the target file: %v", statErr)
	}

	if err := lock.Close(); err != nil {
		t.Fatalf("release: %v", err)
	}

	// A second Close is a no-op.
	if err := lock.Close(); err != nil {
		t.Errorf("double release: %v", err)
	}

	again, err := fsys.Lock(path)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}

	_ = again.Close()
}
