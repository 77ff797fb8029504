package cli

import (
	"io"

	"docvault/internal/docstore"
)

const clearHelp = `  clear                  Wipe the store (destructive, immediate)`

func cmdClear(out io.Writer, errOut io.Writer, store *docstore.DocStore, args []string) int {
	if hasHelpFlag(args) {
		fprintln(out, "Usage: docvault clear")
		fprintln(out, "")
		fprintln(out, "Replace the store with an empty one. There is no undo.")

		return 0
	}

	clearErr := store.Clear()
	if clearErr != nil {
		fprintln(errOut, "error:", clearErr)

		return 1
	}

	fprintln(out, "Store cleared")

	return 0
}
