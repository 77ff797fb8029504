// Package docstore implements the documentation store: a single-file,
// schema-versioned, crash-safe persistence layer for generated
// per-function documentation.
//
// The on-disk format is a JSON object with a derived metadata block and
// a files array. An earlier version persisted the files array directly
// at the root (and, through a bug, sometimes mixed function entries
// into it); loading transparently migrates that shape. See
// [DocStore.AddDocumentation] for the write path and Repair for the
// offline diagnosis tool.
package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// timestampLayout is the wire format for all store timestamps.
// RFC 3339 in UTC keeps timestamps lexicographically sortable.
const timestampLayout = time.RFC3339

// FormatTimestamp renders t in the store's wire format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// DocPayload is one function's documentation: either a structured
// object (description, parameters, returns, example, notes) or a
// free-form error string produced when generation failed.
//
// The raw bytes are preserved as-is so unknown keys survive a
// load/save round trip.
type DocPayload json.RawMessage

// UnmarshalJSON accepts only JSON objects and strings. Anything else
// (arrays, numbers, booleans, null) is not a valid documentation
// payload and poisons the owning file entry.
func (d *DocPayload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty payload", ErrDocPayloadInvalid)
	}

	if trimmed[0] != '{' && trimmed[0] != '"' {
		return fmt.Errorf("%w: must be an object or a string", ErrDocPayloadInvalid)
	}

	*d = DocPayload(append([]byte(nil), data...))

	return nil
}

// MarshalJSON emits the preserved raw bytes. A zero payload marshals
// as an empty object so a half-built entry never emits invalid JSON.
func (d DocPayload) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("{}"), nil
	}

	return json.RawMessage(d).MarshalJSON()
}

// ObjectPayload builds a DocPayload from a structured value.
// Returns an error if v does not marshal to an object or string.
func ObjectPayload(v any) (DocPayload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding documentation payload: %w", err)
	}

	var payload DocPayload

	unmarshalErr := payload.UnmarshalJSON(data)
	if unmarshalErr != nil {
		return nil, unmarshalErr
	}

	return payload, nil
}

// FunctionDoc is one function's generated documentation. It has no
// identity of its own; it is owned by its parent FileEntry.
type FunctionDoc struct {
	Function      string     `json:"function"`
	Documentation DocPayload `json:"documentation"`
}

// FileEntry is the persisted documentation bundle for one analyzed
// source file. FileHash (full content hash) is the identity key:
// re-adding content with the same hash replaces the entry in place.
type FileEntry struct {
	ID            string        `json:"id"`
	Filename      string        `json:"filename"`
	Language      string        `json:"language"`
	LanguageIcon  string        `json:"language_icon"`
	Timestamp     string        `json:"timestamp"`
	FileSizeBytes int64         `json:"file_size_bytes"`
	FileHash      string        `json:"file_hash"`
	FunctionCount int           `json:"function_count"`
	Functions     []FunctionDoc `json:"functions"`
}

// Clone returns a detached copy. Callers get copies, never live
// references into store state.
func (f FileEntry) Clone() FileEntry {
	clone := f
	clone.Functions = make([]FunctionDoc, len(f.Functions))

	for i, fn := range f.Functions {
		clone.Functions[i] = FunctionDoc{
			Function:      fn.Function,
			Documentation: DocPayload(append([]byte(nil), fn.Documentation...)),
		}
	}

	return clone
}

// StoreMetadata is a derived cache over the files array. It is
// recomputed on every save and never treated as ground truth, with one
// exception: created_at is set once and carried forward.
type StoreMetadata struct {
	CreatedAt      string   `json:"created_at"`
	LastUpdated    string   `json:"last_updated,omitempty"`
	TotalFiles     int      `json:"total_files"`
	TotalFunctions int      `json:"total_functions"`
	Languages      []string `json:"languages"`
}

// Store is the sole persisted aggregate and the unit of load and save.
type Store struct {
	Metadata StoreMetadata `json:"metadata"`
	Files    []FileEntry   `json:"files"`
}

// NewStore returns an empty store created at the given time.
func NewStore(now time.Time) Store {
	return Store{
		Metadata: StoreMetadata{
			CreatedAt: FormatTimestamp(now),
			Languages: []string{},
		},
		Files: []FileEntry{},
	}
}

// RecomputeMetadata rebuilds the derived metadata block from the files
// array. CreatedAt is preserved (or initialized if empty) and
// LastUpdated is set to now.
func RecomputeMetadata(store *Store, now time.Time) {
	createdAt := store.Metadata.CreatedAt
	if createdAt == "" {
		createdAt = FormatTimestamp(now)
	}

	languageSet := make(map[string]struct{})
	totalFunctions := 0

	for _, file := range store.Files {
		languageSet[file.Language] = struct{}{}
		totalFunctions += file.FunctionCount
	}

	languages := make([]string, 0, len(languageSet))
	for lang := range languageSet {
		languages = append(languages, lang)
	}

	sort.Strings(languages)

	store.Metadata = StoreMetadata{
		CreatedAt:      createdAt,
		LastUpdated:    FormatTimestamp(now),
		TotalFiles:     len(store.Files),
		TotalFunctions: totalFunctions,
		Languages:      languages,
	}
}

// languageByExtension maps a lowercased file extension to a language
// name. Unrecognized extensions map to LanguageUnknown.
var languageByExtension = map[string]string{
	".py":   "Python",
	".js":   "JavaScript",
	".ts":   "TypeScript",
	".java": "Java",
	".cpp":  "C++",
	".c":    "C",
	".go":   "Go",
	".rs":   "Rust",
	".rb":   "Ruby",
	".php":  "PHP",
}

// iconByLanguage maps a language name to its display icon.
var iconByLanguage = map[string]string{
	"Python":     "🐍",
	"JavaScript": "🟨",
	"TypeScript": "🔷",
	"Java":       "☕",
	"C++":        "⚙️",
	"C":          "🔧",
	"Go":         "🐹",
	"Rust":       "🦀",
	"Ruby":       "💎",
	"PHP":        "🐘",
	"Unknown":    "📄",
}

// LanguageUnknown is the sentinel for unrecognized file extensions.
const LanguageUnknown = "Unknown"

// LanguageForFilename infers the language from the filename extension.
func LanguageForFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	if lang, ok := languageByExtension[ext]; ok {
		return lang
	}

	return LanguageUnknown
}

// IconForLanguage returns the display icon for a language.
func IconForLanguage(language string) string {
	if icon, ok := iconByLanguage[language]; ok {
		return icon
	}

	return iconByLanguage[LanguageUnknown]
}
