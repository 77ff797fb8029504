package cli

import (
	"io"

	"docvault/internal/docstore"
)

const searchHelp = `  search <query>         Search function names across all files`

func cmdSearch(out io.Writer, errOut io.Writer, store *docstore.DocStore, args []string) int {
	if hasHelpFlag(args) {
		printSearchHelp(out)

		return 0
	}

	if len(args) == 0 {
		fprintln(errOut, "error:", docstore.ErrQueryRequired)

		return 1
	}

	query := args[0]

	results := store.SearchFunctions(query)
	if len(results) == 0 {
		fprintln(out, "No matches for", query)

		return 0
	}

	for _, result := range results {
		fprintf(out, "%s  (%s)\n", result.Function, result.File)
	}

	fprintln(out, "")
	fprintln(out, len(results), "matches")

	return 0
}

func printSearchHelp(out io.Writer) {
	fprintln(out, "Usage: docvault search <query>")
	fprintln(out, "")
	fprintln(out, "Case-insensitive substring match against every function name.")
}
