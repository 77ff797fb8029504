package docstore

import (
	"time"

	"github.com/sirupsen/logrus"
)

// MigrateLegacyList converts the legacy root-is-a-list representation
// into a current-format store.
//
// Only entries that individually classify as valid file entries
// survive; misplaced function entries and malformed objects are
// dropped, each drop logged with its index and detected shape.
// Migration never fails: zero survivors yields an empty store.
// Metadata is rebuilt entirely from the survivors with created_at set
// to the migration time, since the legacy format carried none.
func MigrateLegacyList(entries []any, now time.Time, logger logrus.FieldLogger) Store {
	store := NewStore(now)

	for idx, raw := range entries {
		c := ClassifyEntry(raw)
		if c.Kind == EntryFile {
			store.Files = append(store.Files, *c.File)

			continue
		}

		logDroppedEntry(logger, "migration", idx, c)
	}

	logger.WithFields(logrus.Fields{
		"kept":  len(store.Files),
		"total": len(entries),
	}).Info("migrated legacy list format")

	RecomputeMetadata(&store, now)

	return store
}

// RecoverPartial salvages every individually valid file entry from a
// current-format payload that failed whole-structure validation.
//
// Recovery is strictly additive: it keeps at least every entry that
// whole-structure validation would have accepted and never fabricates
// entries. Any metadata object found in the input is reused as a
// starting point (its created_at survives when parseable) before being
// recomputed from the survivors.
func RecoverPartial(root map[string]any, now time.Time, logger logrus.FieldLogger) Store {
	store := NewStore(now)

	if createdAt := lenientCreatedAt(root["metadata"]); createdAt != "" {
		store.Metadata.CreatedAt = createdAt
	}

	rawFiles, ok := root["files"].([]any)
	if !ok {
		logger.Warn("recovery: files value is not a list, nothing to salvage")
		RecomputeMetadata(&store, now)

		return store
	}

	for idx, raw := range rawFiles {
		c := ClassifyEntry(raw)
		if c.Kind == EntryFile {
			store.Files = append(store.Files, *c.File)

			continue
		}

		logDroppedEntry(logger, "recovery", idx, c)
	}

	logger.WithFields(logrus.Fields{
		"recovered": len(store.Files),
		"total":     len(rawFiles),
	}).Info("recovered valid files from corrupted store")

	RecomputeMetadata(&store, now)

	return store
}

// lenientCreatedAt pulls created_at out of a raw metadata value
// without failing on any other malformed field.
func lenientCreatedAt(raw any) string {
	obj, ok := raw.(map[string]any)
	if !ok {
		return ""
	}

	createdAt, _ := obj["created_at"].(string)

	return createdAt
}

func logDroppedEntry(logger logrus.FieldLogger, phase string, idx int, c Classification) {
	fields := logrus.Fields{
		"phase": phase,
		"index": idx,
		"shape": c.Kind.String(),
	}

	if len(c.Keys) > 0 {
		fields["keys"] = c.Keys
	}

	switch c.Kind {
	case EntryFunction:
		fields["function"] = c.FunctionName
		logger.WithFields(fields).Warn("dropping function entry misplaced in files collection")
	case EntryInvalid:
		if len(c.Missing) > 0 {
			fields["missing"] = c.Missing
		}

		if c.Err != nil {
			fields["error"] = c.Err.Error()
		}

		logger.WithFields(fields).Warn("dropping malformed file entry")
	case EntryForeign:
		logger.WithFields(fields).Warn("dropping non-object entry")
	case EntryFile:
		// Callers never pass valid entries here.
	}
}
