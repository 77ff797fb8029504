package docstore

import (
	"crypto/md5" //nolint:gosec // content identity, not security
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// shortIDLength is the number of hash characters used for the display id.
const shortIDLength = 12

// recentFilesLimit caps the recent-files list in Stats.
const recentFilesLimit = 5

// AddResult reports a successful AddDocumentation call.
type AddResult struct {
	Status  string `json:"status"`
	Files   int    `json:"files"`
	Message string `json:"message"`
}

// SearchResult is one function match from SearchFunctions.
type SearchResult struct {
	File          string     `json:"file"`
	Function      string     `json:"function"`
	Documentation DocPayload `json:"documentation"`
}

// RecentFile summarizes one recently updated file for Stats.
type RecentFile struct {
	Filename  string `json:"filename"`
	Language  string `json:"language"`
	Timestamp string `json:"timestamp"`
	Functions int    `json:"functions"`
}

// StatsResult aggregates store statistics.
type StatsResult struct {
	TotalFiles     int            `json:"total_files"`
	TotalFunctions int            `json:"total_functions"`
	Languages      map[string]int `json:"languages"`
	RecentFiles    []RecentFile   `json:"recent_files"`
}

// ValidateFunctionDocs checks a documentation list before any I/O.
// Every entry must carry a non-empty function name and a valid
// (object or string) documentation payload.
func ValidateFunctionDocs(docs []FunctionDoc) error {
	for i, doc := range docs {
		if doc.Function == "" {
			return fmt.Errorf("documentation[%d]: %w", i, ErrDocMissingFunction)
		}

		if len(doc.Documentation) == 0 {
			return fmt.Errorf("documentation[%d]: %w: missing documentation", i, ErrDocPayloadInvalid)
		}
	}

	return nil
}

// ParseFunctionDocs decodes a raw JSON documentation list, applying
// the same validation as ValidateFunctionDocs. The input must be a
// JSON array of objects, each with a function name and a
// documentation payload.
func ParseFunctionDocs(data []byte) ([]FunctionDoc, error) {
	var rawList []json.RawMessage

	if err := json.Unmarshal(data, &rawList); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocsNotList, err)
	}

	docs := make([]FunctionDoc, 0, len(rawList))

	for i, raw := range rawList {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("documentation[%d]: %w", i, ErrDocEntryNotObject)
		}

		if _, ok := obj["function"]; !ok {
			return nil, fmt.Errorf("documentation[%d]: %w (has keys: %s)",
				i, ErrDocMissingFunction, strings.Join(rawKeys(obj), ", "))
		}

		var doc FunctionDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("documentation[%d]: %w", i, err)
		}

		docs = append(docs, doc)
	}

	if err := ValidateFunctionDocs(docs); err != nil {
		return nil, err
	}

	return docs, nil
}

func rawKeys(obj map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// AddDocumentation adds or replaces one file's documentation.
//
// The documentation list is validated before any storage I/O; a
// malformed list is an input-validation error and leaves the store
// untouched. The file's full content hash is the identity key: if a
// record with the same hash exists it is replaced in its current
// sequence position, otherwise the new record is appended. The whole
// store is saved before returning.
func (s *DocStore) AddDocumentation(
	filename, fileContent string, fileSizeBytes int64, docs []FunctionDoc,
) (AddResult, error) {
	validateErr := ValidateFunctionDocs(docs)
	if validateErr != nil {
		return AddResult{}, validateErr
	}

	release, lockErr := s.lockStore()
	if lockErr != nil {
		return AddResult{}, lockErr
	}
	defer release()

	store := s.load()

	sum := md5.Sum([]byte(fileContent)) //nolint:gosec // content identity, not security
	fileHash := hex.EncodeToString(sum[:])
	language := LanguageForFilename(filename)

	entry := FileEntry{
		ID:            fileHash[:shortIDLength],
		Filename:      filename,
		Language:      language,
		LanguageIcon:  IconForLanguage(language),
		Timestamp:     FormatTimestamp(s.now()),
		FileSizeBytes: fileSizeBytes,
		FileHash:      fileHash,
		FunctionCount: len(docs),
		Functions:     docs,
	}

	replaced := false

	for i := range store.Files {
		if store.Files[i].FileHash == fileHash {
			store.Files[i] = entry
			replaced = true

			break
		}
	}

	if !replaced {
		store.Files = append(store.Files, entry)
	}

	saveErr := s.save(&store)
	if saveErr != nil {
		return AddResult{}, saveErr
	}

	action := "Added"
	if replaced {
		action = "Updated"
	}

	s.log.WithFields(logrus.Fields{
		"filename":  filename,
		"functions": len(docs),
		"replaced":  replaced,
	}).Info("documented file")

	return AddResult{
		Status:  "success",
		Files:   len(store.Files),
		Message: fmt.Sprintf("%s %s: documented %d functions", action, filename, len(docs)),
	}, nil
}

// GetFileDocs returns the stored record for filename, or nil if none
// exists. Lookup is by name, not hash: when several records share a
// filename (same name ingested with different content) the most
// recently written one wins. The returned record is a detached copy.
func (s *DocStore) GetFileDocs(filename string) *FileEntry {
	release := s.lockStoreRead()
	defer release()

	store := s.load()

	var newest *FileEntry

	for i := range store.Files {
		file := &store.Files[i]
		if file.Filename != filename {
			continue
		}

		// Replaced records keep their sequence position, so storage
		// order does not imply write order; timestamps do.
		if newest == nil || file.Timestamp >= newest.Timestamp {
			newest = file
		}
	}

	if newest == nil {
		return nil
	}

	clone := newest.Clone()

	return &clone
}

// SearchFunctions returns every function whose name contains query,
// case-insensitively, across all files.
func (s *DocStore) SearchFunctions(query string) []SearchResult {
	release := s.lockStoreRead()
	defer release()

	store := s.load()
	queryLower := strings.ToLower(query)

	var results []SearchResult

	for _, file := range store.Files {
		for _, fn := range file.Functions {
			if strings.Contains(strings.ToLower(fn.Function), queryLower) {
				results = append(results, SearchResult{
					File:          file.Filename,
					Function:      fn.Function,
					Documentation: DocPayload(append([]byte(nil), fn.Documentation...)),
				})
			}
		}
	}

	return results
}

// Stats returns aggregate counts, a per-language histogram, and the
// five most recently updated files.
func (s *DocStore) Stats() StatsResult {
	release := s.lockStoreRead()
	defer release()

	store := s.load()

	languages := make(map[string]int)
	totalFunctions := 0

	for _, file := range store.Files {
		languages[file.Language]++
		totalFunctions += file.FunctionCount
	}

	recent := make([]FileEntry, len(store.Files))
	copy(recent, store.Files)

	// Wire timestamps are RFC 3339 in UTC, so lexicographic order is
	// chronological order.
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp > recent[j].Timestamp
	})

	if len(recent) > recentFilesLimit {
		recent = recent[:recentFilesLimit]
	}

	recentFiles := make([]RecentFile, 0, len(recent))
	for _, file := range recent {
		recentFiles = append(recentFiles, RecentFile{
			Filename:  file.Filename,
			Language:  file.Language,
			Timestamp: file.Timestamp,
			Functions: file.FunctionCount,
		})
	}

	return StatsResult{
		TotalFiles:     len(store.Files),
		TotalFunctions: totalFunctions,
		Languages:      languages,
		RecentFiles:    recentFiles,
	}
}

// Dump returns the full store as currently persisted. The result is a
// detached copy.
func (s *DocStore) Dump() Store {
	release := s.lockStoreRead()
	defer release()

	store := s.load()

	files := make([]FileEntry, 0, len(store.Files))
	for _, file := range store.Files {
		files = append(files, file.Clone())
	}

	store.Files = files

	return store
}

// Clear replaces the store with an empty one and saves immediately.
// Destructive: there is no soft delete.
func (s *DocStore) Clear() error {
	release, lockErr := s.lockStore()
	if lockErr != nil {
		return lockErr
	}
	defer release()

	s.log.Info("clearing all documentation")

	empty := NewStore(s.now())

	return s.save(&empty)
}
