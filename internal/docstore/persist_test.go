package docstore_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"

	"docvault/internal/docstore"
	"docvault/internal/fs"
)

var persistTime = time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

// newStoreAt returns a store pinned to persistTime over path.
func newStoreAt(t *testing.T, path string) *docstore.DocStore {
	t.Helper()

	logger, _ := test.NewNullLogger()
	store := docstore.New(path, logger)
	store.SetNow(func() time.Time { return persistTime })

	return store
}

func Test_Load_When_File_Missing(t *testing.T) {
	t.Parallel()

	store := newStoreAt(t, filepath.Join(t.TempDir(), docstore.DefaultStoreName))

	dump := store.Dump()

	if got, want := len(dump.Files), 0; got != want {
		t.Errorf("files=%d, want=%d", got, want)
	}

	if got, want := dump.Metadata.CreatedAt, docstore.FormatTimestamp(persistTime); got != want {
		t.Errorf("CreatedAt=%q, want=%q", got, want)
	}
}

func Test_Load_When_File_Is_Not_JSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), docstore.DefaultStoreName)
	corrupt := []byte(`{"metadata": {,,,`)

	if err := os.WriteFile(path, corrupt, 0o644); err != nil {
		t.Fatal(err)
	}

	store := newStoreAt(t, path)

	dump := store.Dump()
	if got, want := len(dump.Files), 0; got != want {
		t.Errorf("files=%d, want=%d", got, want)
	}

	// The undecodable bytes were moved aside, not destroyed.
	backup := docstore.BackupPath(path, "corrupted", persistTime)

	saved, readErr := os.ReadFile(backup)
	if readErr != nil {
		t.Fatalf("backup file: %v", readErr)
	}

	if string(saved) != string(corrupt) {
		t.Errorf("backup bytes differ from original")
	}

	// The original path no longer holds the corrupt file.
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("corrupt file still present at store path: %v", statErr)
	}
}

func Test_Load_When_Root_Is_Legacy_List(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), docstore.DefaultStoreName)

	legacy := []any{validFileObject()}

	data, err := json.Marshal(legacy)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	store := newStoreAt(t, path)

	dump := store.Dump()

	if got, want := len(dump.Files), 1; got != want {
		t.Fatalf("files=%d, want=%d", got, want)
	}

	payload, err := docstore.ObjectPayload(map[string]any{"description": "d"})
	if err != nil {
		t.Fatal(err)
	}

	want := docstore.FileEntry{
		ID:            "abc123def456",
		Filename:      "a.py",
		Language:      "Python",
		LanguageIcon:  "🐍",
		Timestamp:     "2024-01-01T00:00:00Z",
		FileSizeBytes: 42,
		FileHash:      "abc123def456abc123def456abc123de",
		FunctionCount: 1,
		Functions:     []docstore.FunctionDoc{{Function: "f", Documentation: payload}},
	}

	if diff := cmp.Diff(want, dump.Files[0]); diff != "" {
		t.Errorf("migrated entry mismatch (-want +got):\n%s", diff)
	}

	if got, want := dump.Metadata.TotalFiles, 1; got != want {
		t.Errorf("TotalFiles=%d, want=%d", got, want)
	}
}

func Test_Load_When_Legacy_List_Holds_Only_Functions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), docstore.DefaultStoreName)
	data := []byte(`[{"function":"f","documentation":{}}]`)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	store := newStoreAt(t, path)

	if got, want := len(store.Dump().Files), 0; got != want {
		t.Errorf("files=%d, want=%d", got, want)
	}
}

func Test_Load_When_Object_Has_No_Files_Key(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), docstore.DefaultStoreName)
	data := []byte(`{"metadata":{"total_files":3}}`)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	store := newStoreAt(t, path)

	dump := store.Dump()

	if got, want := len(dump.Files), 0; got != want {
		t.Errorf("files=%d, want=%d", got, want)
	}

	if got, want := dump.Metadata.TotalFiles, 0; got != want {
		t.Errorf("TotalFiles=%d, want=%d (stale metadata must not survive)", got, want)
	}
}

func Test_Load_When_One_Entry_Is_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), docstore.DefaultStoreName)

	bad := validFileObject()
	delete(bad, "file_hash")

	root := map[string]any{
		"metadata": map[string]any{"created_at": "2023-01-01T00:00:00Z"},
		"files":    []any{validFileObject(), bad},
	}

	data, err := json.Marshal(root)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	store := newStoreAt(t, path)

	dump := store.Dump()

	if got, want := len(dump.Files), 1; got != want {
		t.Fatalf("files=%d, want=%d", got, want)
	}

	if got, want := dump.Metadata.CreatedAt, "2023-01-01T00:00:00Z"; got != want {
		t.Errorf("CreatedAt=%q, want=%q", got, want)
	}
}

func Test_Save_When_Write_Fails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), docstore.DefaultStoreName)
	logger, _ := test.NewNullLogger()

	// Seed a valid store through the real filesystem first.
	seed := docstore.New(path, logger)

	if _, err := seed.AddDocumentation("a.py", "x=1", 3, docList("f")); err != nil {
		t.Fatal(err)
	}

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	injected := fs.NewInjected(fs.NewReal())
	injected.WriteFileAtomicErr = func(string) error {
		return errors.New("disk full")
	}

	store := docstore.NewWithFS(path, injected, logger)

	_, addErr := store.AddDocumentation("b.py", "y=2", 3, docList("g"))

	if !errors.Is(addErr, docstore.ErrStoreWrite) {
		t.Fatalf("err=%v, want ErrStoreWrite", addErr)
	}

	if !fs.IsInjected(addErr) {
		t.Errorf("err=%v, want injected marker preserved", addErr)
	}

	// A failed atomic write leaves the previous file untouched.
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if string(before) != string(after) {
		t.Error("store file changed despite failed write")
	}
}

func Test_Lock_When_Flock_Fails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), docstore.DefaultStoreName)
	logger, hook := test.NewNullLogger()

	injected := fs.NewInjected(fs.NewReal())
	injected.LockErr = func(string) error {
		return errors.New("lock held elsewhere")
	}

	store := docstore.NewWithFS(path, injected, logger)

	// Mutating operations refuse to run without the file lock.
	if _, err := store.AddDocumentation("a.py", "x=1", 3, docList("f")); err == nil {
		t.Error("AddDocumentation succeeded without the file lock")
	}

	// Read operations degrade to the process mutex with a warning.
	stats := store.Stats()

	if got, want := stats.TotalFiles, 0; got != want {
		t.Errorf("TotalFiles=%d, want=%d", got, want)
	}

	if got := hook.LastEntry(); got == nil {
		t.Error("expected a degraded-lock warning")
	}
}

func Test_Save_When_Parent_Directory_Missing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "deeper", docstore.DefaultStoreName)
	store := newStoreAt(t, path)

	if _, err := store.AddDocumentation("a.py", "x=1", 3, docList("f")); err != nil {
		t.Fatalf("AddDocumentation: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("store file not created under nested directory: %v", err)
	}
}
