package docstore

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"docvault/internal/fs"
)

const (
	dirPerms  = 0o755
	filePerms = 0o644

	// backupStampLayout names corruption backups and repair backups.
	backupStampLayout = "20060102_150405"
)

// DocStore owns the on-disk documentation store.
//
// All public operations run a full load-mutate-save (or load-read)
// sequence under one process-wide mutex plus an flock on a sidecar
// lock file, so concurrent operations never interleave their file I/O
// and no update is lost. Values returned to callers are detached
// copies, never live references into store state.
type DocStore struct {
	path string
	fsys fs.FS
	log  logrus.FieldLogger

	mu  sync.Mutex
	now func() time.Time
}

// New returns a store backed by the real filesystem.
// An empty path selects DefaultStoreName in the working directory.
// A nil logger discards all output.
func New(path string, logger logrus.FieldLogger) *DocStore {
	return NewWithFS(path, fs.NewReal(), logger)
}

// NewWithFS returns a store backed by the given filesystem.
// Tests use this with [fs.Injected] to exercise failure paths.
func NewWithFS(path string, fsys fs.FS, logger logrus.FieldLogger) *DocStore {
	if path == "" {
		path = DefaultStoreName
	}

	if logger == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		logger = quiet
	}

	return &DocStore{
		path: path,
		fsys: fsys,
		log:  logger.WithField("store", path),
		now:  time.Now,
	}
}

// Path returns the store file path.
func (s *DocStore) Path() string {
	return s.path
}

// load reads and validates the store file. It never fails: every
// corruption mode degrades to a best-effort (possibly empty) store.
//
//   - missing file: fresh empty store
//   - undecodable file: backed up beside the original, fresh store
//   - legacy list root: migrated
//   - current root failing validation: per-entry recovery
//   - object without a files key, or foreign root: fresh store
//
// Callers must hold the store lock.
func (s *DocStore) load() Store {
	data, readErr := s.fsys.ReadFile(s.path)
	if readErr != nil {
		if !os.IsNotExist(readErr) {
			s.log.WithError(readErr).Warn("cannot read store file, starting empty")
		}

		return NewStore(s.now())
	}

	var raw any

	decodeErr := json.Unmarshal(data, &raw)
	if decodeErr != nil {
		s.log.WithError(decodeErr).Error("store file is not valid JSON")
		s.backupAndReset()

		return NewStore(s.now())
	}

	switch ClassifyRoot(raw) {
	case RootLegacyList:
		s.log.Warn("detected legacy list format, migrating")

		return MigrateLegacyList(raw.([]any), s.now(), s.log)

	case RootStore:
		root := raw.(map[string]any)

		store, ok := decodeStore(root)
		if ok {
			return store
		}

		s.log.Warn("store failed validation, attempting partial recovery")

		return RecoverPartial(root, s.now(), s.log)

	case RootMissingFiles:
		s.log.Error("store file has no files key, starting empty")

		return NewStore(s.now())

	case RootForeign:
		s.log.Error("store file has unexpected root type, starting empty")

		return NewStore(s.now())
	}

	return NewStore(s.now())
}

// save recomputes the derived metadata and commits the store with an
// atomic temp-file-plus-rename write. Caller-supplied metadata is
// never trusted. Save is the one operation allowed to fail loudly:
// silently losing a write is worse than reporting it.
//
// Callers must hold the store lock.
func (s *DocStore) save(store *Store) error {
	RecomputeMetadata(store, s.now())

	data, marshalErr := json.MarshalIndent(store, "", "  ")
	if marshalErr != nil {
		return fmt.Errorf("%w: %w", ErrStoreWrite, marshalErr)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if mkdirErr := s.fsys.MkdirAll(dir, dirPerms); mkdirErr != nil {
			return fmt.Errorf("%w: %w", ErrStoreWrite, mkdirErr)
		}
	}

	writeErr := s.fsys.WriteFileAtomic(s.path, data, filePerms)
	if writeErr != nil {
		return fmt.Errorf("%w: %w", ErrStoreWrite, writeErr)
	}

	return nil
}

// backupAndReset moves an undecodable store file aside under a
// timestamp-suffixed name so its bytes stay recoverable, leaving no
// store file behind.
func (s *DocStore) backupAndReset() {
	backup := BackupPath(s.path, "corrupted", s.now())

	renameErr := s.fsys.Rename(s.path, backup)
	if renameErr != nil {
		s.log.WithError(renameErr).Error("cannot back up corrupted store file")

		return
	}

	s.log.WithField("backup", backup).Info("corrupted store file backed up")
}

// BackupPath derives a timestamp-suffixed sibling path for path, e.g.
// documentation.corrupted.20240131_120000.json.
func BackupPath(path, label string, now time.Time) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))

	return fmt.Sprintf("%s.%s.%s.json", base, label, now.UTC().Format(backupStampLayout))
}

// lockStore acquires the process mutex and the sidecar file lock.
// The returned release function undoes both.
func (s *DocStore) lockStore() (func(), error) {
	s.mu.Lock()

	flock, lockErr := s.fsys.Lock(s.path)
	if lockErr != nil {
		s.mu.Unlock()

		return nil, fmt.Errorf("locking store: %w", lockErr)
	}

	return func() {
		_ = flock.Close()
		s.mu.Unlock()
	}, nil
}

// lockStoreRead is lockStore for read-only operations: a file lock
// failure degrades to the process mutex alone, since a read cannot
// corrupt the store.
func (s *DocStore) lockStoreRead() func() {
	s.mu.Lock()

	flock, lockErr := s.fsys.Lock(s.path)
	if lockErr != nil {
		s.log.WithError(lockErr).Warn("cannot lock store file for read")

		return s.mu.Unlock
	}

	return func() {
		_ = flock.Close()
		s.mu.Unlock()
	}
}
