package cli

import (
	"encoding/json"
	"io"

	"docvault/internal/docstore"
)

const showHelp = `  show <filename>        Print one file's documentation`

func cmdShow(out io.Writer, errOut io.Writer, store *docstore.DocStore, args []string) int {
	if hasHelpFlag(args) {
		printShowHelp(out)

		return 0
	}

	if len(args) == 0 {
		fprintln(errOut, "error:", docstore.ErrFilenameRequired)

		return 1
	}

	filename := args[0]

	entry := store.GetFileDocs(filename)
	if entry == nil {
		fprintln(errOut, "error:", docstore.ErrFileNotDocumented, "-", filename)

		return 1
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	fprintln(out, string(data))

	return 0
}

func printShowHelp(out io.Writer) {
	fprintln(out, "Usage: docvault show <filename>")
	fprintln(out, "")
	fprintln(out, "Print the stored documentation record for a filename.")
}
