package docstore

import (
	"encoding/json"
	"fmt"
	"sort"
)

// EntryKind classifies one decoded element of a files collection.
//
// The three-way split between file-shaped, function-shaped, and
// malformed entries exists because an earlier version of the generator
// appended function entries directly to the root list. A
// function-shaped entry decodes as perfectly valid JSON, so structural
// decoding alone cannot reject it; only the field-level signature can.
type EntryKind int

const (
	// EntryFile is a structurally valid file entry.
	EntryFile EntryKind = iota
	// EntryFunction is a function entry misplaced in a files
	// collection. Always rejected, never coerced into a file.
	EntryFunction
	// EntryInvalid is an object missing required fields or carrying
	// mistyped ones.
	EntryInvalid
	// EntryForeign is not an object at all.
	EntryForeign
)

// String returns a short human-readable kind name for reports.
func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryFunction:
		return "function"
	case EntryInvalid:
		return "invalid"
	case EntryForeign:
		return "foreign"
	default:
		return "unknown"
	}
}

// identityFields is the field set that distinguishes a file entry from
// anything else. An entry missing any of these is never a file.
var identityFields = []string{"id", "filename", "language", "file_hash"}

// requiredFileFields is the full required field set of a file entry.
// functions is optional and defaults to empty.
var requiredFileFields = []string{
	"id", "filename", "language", "language_icon",
	"timestamp", "file_size_bytes", "file_hash", "function_count",
}

// functionSignature marks an entry as function-shaped.
var functionSignature = []string{"function", "documentation"}

// Classification is the result of classifying one decoded entry.
type Classification struct {
	Kind EntryKind

	// File holds the parsed entry when Kind is EntryFile.
	File *FileEntry

	// Keys holds the entry's sorted key set for diagnostics.
	Keys []string

	// Missing holds the missing required fields when Kind is
	// EntryInvalid and fields were absent (rather than mistyped).
	Missing []string

	// FunctionName holds the misplaced function's name when Kind is
	// EntryFunction, if it is a string.
	FunctionName string

	// Err holds the decode error when Kind is EntryInvalid and all
	// required fields were present but mistyped.
	Err error
}

// ClassifyEntry classifies an arbitrary decoded value as a file entry,
// a misplaced function entry, a malformed object, or a non-object.
func ClassifyEntry(raw any) Classification {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Classification{Kind: EntryForeign}
	}

	keys := sortedKeys(obj)

	if !hasAll(obj, identityFields) {
		if hasAll(obj, functionSignature) {
			name, _ := obj["function"].(string)

			return Classification{Kind: EntryFunction, Keys: keys, FunctionName: name}
		}

		return Classification{
			Kind:    EntryInvalid,
			Keys:    keys,
			Missing: missingFields(obj, requiredFileFields),
		}
	}

	if missing := missingFields(obj, requiredFileFields); len(missing) > 0 {
		return Classification{Kind: EntryInvalid, Keys: keys, Missing: missing}
	}

	entry, err := decodeFileEntry(obj)
	if err != nil {
		return Classification{Kind: EntryInvalid, Keys: keys, Err: err}
	}

	return Classification{Kind: EntryFile, Keys: keys, File: entry}
}

// decodeFileEntry converts a raw object into a FileEntry, enforcing
// field types and nested function shapes.
func decodeFileEntry(obj map[string]any) (*FileEntry, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("re-encoding entry: %w", err)
	}

	var entry FileEntry

	decodeErr := json.Unmarshal(data, &entry)
	if decodeErr != nil {
		return nil, decodeErr
	}

	for i, fn := range entry.Functions {
		if fn.Function == "" {
			return nil, fmt.Errorf("functions[%d]: %w", i, ErrDocMissingFunction)
		}
	}

	if entry.Functions == nil {
		entry.Functions = []FunctionDoc{}
	}

	return &entry, nil
}

// RootKind classifies the root of a decoded store payload.
type RootKind int

const (
	// RootStore is the current format: an object with a files key.
	RootStore RootKind = iota
	// RootLegacyList is the legacy format: the files sequence itself.
	RootLegacyList
	// RootMissingFiles is an object without a files key.
	RootMissingFiles
	// RootForeign is neither an object nor a list.
	RootForeign
)

// String returns a short human-readable kind name for reports.
func (k RootKind) String() string {
	switch k {
	case RootStore:
		return "store"
	case RootLegacyList:
		return "legacy list"
	case RootMissingFiles:
		return "object without files"
	case RootForeign:
		return "foreign"
	default:
		return "unknown"
	}
}

// ClassifyRoot classifies the root shape of a decoded payload.
func ClassifyRoot(raw any) RootKind {
	switch root := raw.(type) {
	case []any:
		return RootLegacyList
	case map[string]any:
		if _, ok := root["files"]; ok {
			return RootStore
		}

		return RootMissingFiles
	default:
		return RootForeign
	}
}

// decodeStore attempts whole-structure validation of a current-format
// payload. Returns ok=false when any part fails, in which case the
// caller falls back to per-entry recovery.
func decodeStore(root map[string]any) (Store, bool) {
	rawFiles, ok := root["files"].([]any)
	if !ok {
		return Store{}, false
	}

	files := make([]FileEntry, 0, len(rawFiles))

	for _, raw := range rawFiles {
		c := ClassifyEntry(raw)
		if c.Kind != EntryFile {
			return Store{}, false
		}

		files = append(files, *c.File)
	}

	metadata, metaOK := decodeMetadataStrict(root["metadata"])
	if !metaOK {
		return Store{}, false
	}

	return Store{Metadata: metadata, Files: files}, true
}

// decodeMetadataStrict decodes a metadata value, rejecting non-object
// shapes and mistyped fields. A missing metadata value is accepted as
// zero metadata since it is derived state anyway.
func decodeMetadataStrict(raw any) (StoreMetadata, bool) {
	if raw == nil {
		return StoreMetadata{}, true
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return StoreMetadata{}, false
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return StoreMetadata{}, false
	}

	var metadata StoreMetadata

	decodeErr := json.Unmarshal(data, &metadata)
	if decodeErr != nil {
		return StoreMetadata{}, false
	}

	return metadata, true
}

func hasAll(obj map[string]any, fields []string) bool {
	for _, field := range fields {
		if _, ok := obj[field]; !ok {
			return false
		}
	}

	return true
}

func missingFields(obj map[string]any, fields []string) []string {
	var missing []string

	for _, field := range fields {
		if _, ok := obj[field]; !ok {
			missing = append(missing, field)
		}
	}

	return missing
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
