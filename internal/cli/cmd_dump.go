package cli

import (
	"encoding/json"
	"io"

	"docvault/internal/docstore"
)

const dumpHelp = `  dump                   Print the full store as JSON`

func cmdDump(out io.Writer, errOut io.Writer, store *docstore.DocStore, args []string) int {
	if hasHelpFlag(args) {
		fprintln(out, "Usage: docvault dump")
		fprintln(out, "")
		fprintln(out, "Print the full store (metadata and files) as JSON.")

		return 0
	}

	data, err := json.MarshalIndent(store.Dump(), "", "  ")
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	fprintln(out, string(data))

	return 0
}
