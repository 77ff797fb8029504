package cli

import (
	"io"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"docvault/internal/docstore"
)

const addHelp = `  add <file> [--docs p]  Store a documentation list for a source file`

// cmdAdd ingests one source file plus a JSON documentation list (from
// --docs or stdin) into the store. This is the offline stand-in for
// the generation pipeline, which ends every file in exactly one such
// add call.
func cmdAdd(stdin io.Reader, out io.Writer, errOut io.Writer, store *docstore.DocStore, args []string) int {
	if hasHelpFlag(args) {
		printAddHelp(out)

		return 0
	}

	flagSet := flag.NewFlagSet("add", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	docsPath := flagSet.String("docs", "", "Path to the JSON documentation list (default: stdin)")
	storedName := flagSet.String("name", "", "Filename to store the record under (default: basename)")

	parseErr := flagSet.Parse(args)
	if parseErr != nil {
		fprintln(errOut, "error:", parseErr)

		return 1
	}

	remaining := flagSet.Args()
	if len(remaining) == 0 {
		fprintln(errOut, "error:", docstore.ErrSourceFileRequired)

		return 1
	}

	sourcePath := remaining[0]

	content, readErr := os.ReadFile(sourcePath) //nolint:gosec // path is intentionally user-controlled
	if readErr != nil {
		fprintln(errOut, "error: cannot read source file:", readErr)

		return 1
	}

	var docsData []byte

	var docsErr error

	if *docsPath != "" {
		docsData, docsErr = os.ReadFile(*docsPath) //nolint:gosec // path is intentionally user-controlled
	} else {
		docsData, docsErr = io.ReadAll(stdin)
	}

	if docsErr != nil {
		fprintln(errOut, "error: cannot read documentation list:", docsErr)

		return 1
	}

	docs, parseDocsErr := docstore.ParseFunctionDocs(docsData)
	if parseDocsErr != nil {
		fprintln(errOut, "error:", parseDocsErr)

		return 1
	}

	filename := *storedName
	if filename == "" {
		filename = filepath.Base(sourcePath)
	}

	result, addErr := store.AddDocumentation(filename, string(content), int64(len(content)), docs)
	if addErr != nil {
		fprintln(errOut, "error:", addErr)

		return 1
	}

	fprintln(out, result.Message)
	fprintln(out, "Files in store:", result.Files)

	return 0
}

func printAddHelp(out io.Writer) {
	fprintln(out, "Usage: docvault add <file> [--docs <path>] [--name <filename>]")
	fprintln(out, "")
	fprintln(out, "Store a documentation list for one source file. The list is a")
	fprintln(out, "JSON array of {\"function\": ..., \"documentation\": ...} objects,")
	fprintln(out, "read from --docs or stdin. Re-adding identical file content")
	fprintln(out, "replaces the stored record instead of appending a duplicate.")
	fprintln(out, "")
	fprintln(out, "Options:")
	fprintln(out, "  --docs <path>   Read the documentation list from a file")
	fprintln(out, "  --name <name>   Store the record under this filename")
}
