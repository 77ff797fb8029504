package docstore

import (
	"time"

	"github.com/sirupsen/logrus"
)

// EntryDiagnosis records the classification of one entry for the
// offline repair report.
type EntryDiagnosis struct {
	Index int
	Classification
}

// Diagnosis is the structured result of inspecting a decoded store
// payload without mutating it. The same classification rules drive the
// normal load path; Diagnose only adds the bookkeeping a
// human-readable report needs.
type Diagnosis struct {
	Root    RootKind
	Entries []EntryDiagnosis

	ValidFiles         int
	MisplacedFunctions int
	InvalidEntries     int

	HasMetadata bool
	Metadata    StoreMetadata

	// Issues lists the problems that warrant a repair. A legacy list
	// containing only valid file entries is deliberately not an issue:
	// the normal load path migrates it transparently.
	Issues []string
}

// Healthy reports whether the payload needs no repair.
func (d Diagnosis) Healthy() bool {
	return len(d.Issues) == 0
}

// Diagnose classifies the root shape and every entry of a decoded
// store payload, exactly as the load-time validator does.
func Diagnose(raw any) Diagnosis {
	diag := Diagnosis{Root: ClassifyRoot(raw)}

	switch diag.Root {
	case RootLegacyList:
		diagnoseEntries(&diag, raw.([]any))

		if diag.MisplacedFunctions > 0 {
			diag.Issues = append(diag.Issues, "legacy list contains misplaced function entries")
		}

	case RootStore:
		root := raw.(map[string]any)

		rawFiles, ok := root["files"].([]any)
		if !ok {
			diag.Issues = append(diag.Issues, "files value is not a list")
		} else {
			diagnoseEntries(&diag, rawFiles)

			if diag.MisplacedFunctions > 0 {
				diag.Issues = append(diag.Issues, "files array contains misplaced function entries")
			}

			if diag.InvalidEntries > 0 {
				diag.Issues = append(diag.Issues, "files array contains invalid entries")
			}
		}

		if metaRaw, exists := root["metadata"]; exists {
			diag.HasMetadata = true
			diag.Metadata, _ = decodeMetadataStrict(metaRaw)
		}

	case RootMissingFiles:
		diag.Issues = append(diag.Issues, "missing files key")

	case RootForeign:
		diag.Issues = append(diag.Issues, "unexpected root type")
	}

	return diag
}

func diagnoseEntries(diag *Diagnosis, entries []any) {
	for idx, raw := range entries {
		c := ClassifyEntry(raw)
		diag.Entries = append(diag.Entries, EntryDiagnosis{Index: idx, Classification: c})

		switch c.Kind {
		case EntryFile:
			diag.ValidFiles++
		case EntryFunction:
			diag.MisplacedFunctions++
		case EntryInvalid, EntryForeign:
			diag.InvalidEntries++
		}
	}
}

// RepairData applies the same migration/recovery logic as the load
// path to a decoded payload. Returns the repaired store and whether
// the repair salvaged anything worth writing back. A payload from
// which nothing can be salvaged reports ok=false so the caller leaves
// the original file untouched.
func RepairData(raw any, now time.Time, logger logrus.FieldLogger) (Store, bool) {
	switch ClassifyRoot(raw) {
	case RootLegacyList:
		store := MigrateLegacyList(raw.([]any), now, logger)

		return store, len(store.Files) > 0

	case RootStore:
		store := RecoverPartial(raw.(map[string]any), now, logger)

		return store, len(store.Files) > 0

	case RootMissingFiles:
		// Nothing to salvage, but an empty files array is a valid
		// store; preserve created_at when the metadata carries one.
		store := NewStore(now)

		root := raw.(map[string]any)
		if createdAt := lenientCreatedAt(root["metadata"]); createdAt != "" {
			store.Metadata.CreatedAt = createdAt
		}

		RecomputeMetadata(&store, now)

		return store, true

	case RootForeign:
		return Store{}, false
	}

	return Store{}, false
}
