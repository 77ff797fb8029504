package cli

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"

	"docvault/internal/docstore"
	"docvault/internal/fs"
)

// runRepair is the offline diagnosis/repair procedure. It operates on
// the store file directly, for use when load-time recovery has
// already been exhausted. The classification, migration, and recovery
// logic is exactly the load path's; only the I/O shell differs.
func runRepair(
	stdin io.Reader, out io.Writer, errOut io.Writer,
	fsys fs.FS, storePath string, dryRun bool, now time.Time,
) int {
	fprintln(out, "docvault repair:", storePath)

	exists, existsErr := fsys.Exists(storePath)
	if existsErr != nil {
		fprintln(errOut, "error: cannot stat store file:", existsErr)

		return 1
	}

	if !exists {
		fprintln(out, "No store file found - nothing to repair.")
		fprintln(out, "A fresh store will be created on the next add.")

		return 0
	}

	// Back up before any further action, even the diagnosis read.
	// A dry run writes nothing, backup included.
	backupPath := ""

	if !dryRun {
		backupPath = docstore.BackupPath(storePath, "backup", now)

		backupErr := copyFile(fsys, storePath, backupPath)
		if backupErr != nil {
			fprintln(errOut, "warning: backup failed:", backupErr)

			if !confirm(stdin, out, "Continue without backup? (y/n): ") {
				fprintln(out, "Aborted.")

				return 1
			}

			backupPath = ""
		} else {
			fprintln(out, "Backup created:", backupPath)
		}
	}

	data, readErr := fsys.ReadFile(storePath)
	if readErr != nil {
		fprintln(errOut, "error: cannot read store file:", readErr)

		return 1
	}

	var raw any

	decodeErr := json.Unmarshal(data, &raw)
	if decodeErr != nil {
		fprintln(errOut, "error: store file is not valid JSON:", decodeErr)
		fprintln(out, "")
		fprintln(out, "The file cannot be repaired automatically.")
		fprintln(out, "Delete", storePath, "and re-ingest your files.")

		if backupPath != "" {
			fprintln(out, "The original bytes are preserved in:", backupPath)
		}

		return 1
	}

	diag := docstore.Diagnose(raw)
	printDiagnosis(out, diag)

	if diag.Healthy() {
		fprintln(out, "No issues found - store is healthy.")

		return 0
	}

	if dryRun {
		fprintln(out, "Dry run - no changes written.")

		return 0
	}

	fprintln(out, "Attempting repair...")

	// The diagnosis above already reported every bad entry; the
	// migration/recovery logging would only repeat it.
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	repaired, ok := docstore.RepairData(raw, now, quiet)
	if !ok {
		printRepairFailed(out, storePath, backupPath)

		return 1
	}

	encoded, marshalErr := json.MarshalIndent(repaired, "", "  ")
	if marshalErr != nil {
		fprintln(errOut, "error: cannot encode repaired store:", marshalErr)
		printRepairFailed(out, storePath, backupPath)

		return 1
	}

	writeErr := fsys.WriteFileAtomic(storePath, encoded, 0o644)
	if writeErr != nil {
		fprintln(errOut, "error: cannot write repaired store:", writeErr)
		printRepairFailed(out, storePath, backupPath)

		return 1
	}

	fprintln(out, "Repair successful.")
	fprintln(out, "  files:    ", repaired.Metadata.TotalFiles)
	fprintln(out, "  functions:", repaired.Metadata.TotalFunctions)

	if backupPath != "" {
		fprintln(out, "  backup:   ", backupPath)
	}

	return 0
}

func printDiagnosis(out io.Writer, diag docstore.Diagnosis) {
	fprintln(out, "")
	fprintln(out, "Diagnosis")
	fprintln(out, "  root shape:", diag.Root)

	for _, entry := range diag.Entries {
		switch entry.Kind {
		case docstore.EntryFile:
			// Valid entries are summarized, not listed.
		case docstore.EntryFunction:
			fprintf(out, "  entry %d: function entry (should be nested in a file): %s\n",
				entry.Index, entry.FunctionName)
		case docstore.EntryInvalid:
			if len(entry.Missing) > 0 {
				fprintf(out, "  entry %d: missing fields: %s\n",
					entry.Index, strings.Join(entry.Missing, ", "))
			} else if entry.Err != nil {
				fprintf(out, "  entry %d: invalid: %v\n", entry.Index, entry.Err)
			}
		case docstore.EntryForeign:
			fprintf(out, "  entry %d: not an object\n", entry.Index)
		}
	}

	fprintln(out, "  valid files:        ", diag.ValidFiles)
	fprintln(out, "  misplaced functions:", diag.MisplacedFunctions)
	fprintln(out, "  invalid entries:    ", diag.InvalidEntries)

	if diag.HasMetadata {
		fprintln(out, "  metadata: total_files:", diag.Metadata.TotalFiles,
			"total_functions:", diag.Metadata.TotalFunctions)
	}

	for _, issue := range diag.Issues {
		fprintln(out, "  issue:", issue)
	}

	fprintln(out, "")
}

func printRepairFailed(out io.Writer, storePath, backupPath string) {
	fprintln(out, "Repair failed - nothing could be salvaged.")
	fprintln(out, "The original file was left untouched.")
	fprintln(out, "")
	fprintln(out, "Manual fix:")
	fprintln(out, "  1. Delete", storePath)
	fprintln(out, "  2. Re-ingest your files")

	if backupPath != "" {
		fprintln(out, "  3. The original is preserved in:", backupPath)
	}
}

// copyFile copies src to dst, preserving src.
func copyFile(fsys fs.FS, src, dst string) error {
	data, err := fsys.ReadFile(src)
	if err != nil {
		return err
	}

	return fsys.WriteFileAtomic(dst, data, 0o644)
}

// confirm asks a yes/no question. On an interactive terminal it uses
// a line editor; otherwise it reads one line from stdin so scripted
// runs can answer.
func confirm(stdin io.Reader, out io.Writer, prompt string) bool {
	if f, ok := stdin.(*os.File); ok && f == os.Stdin && liner.TerminalSupported() {
		editor := liner.NewLiner()
		defer func() { _ = editor.Close() }()

		answer, err := editor.Prompt(prompt)
		if err != nil {
			return false
		}

		return isYes(answer)
	}

	fprintf(out, "%s", prompt)

	reader := bufio.NewReader(stdin)

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	return isYes(line)
}

func isYes(answer string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y")
}
