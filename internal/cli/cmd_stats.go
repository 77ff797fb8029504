package cli

import (
	"encoding/json"
	"io"
	"sort"

	flag "github.com/spf13/pflag"

	"docvault/internal/docstore"
)

const statsHelp = `  stats [--json]         Print aggregate counts and language histogram`

func cmdStats(out io.Writer, errOut io.Writer, store *docstore.DocStore, args []string) int {
	if hasHelpFlag(args) {
		printStatsHelp(out)

		return 0
	}

	flagSet := flag.NewFlagSet("stats", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	asJSON := flagSet.Bool("json", false, "Print stats as JSON")

	parseErr := flagSet.Parse(args)
	if parseErr != nil {
		fprintln(errOut, "error:", parseErr)

		return 1
	}

	stats := store.Stats()

	if *asJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			fprintln(errOut, "error:", err)

			return 1
		}

		fprintln(out, string(data))

		return 0
	}

	fprintln(out, "Files:    ", stats.TotalFiles)
	fprintln(out, "Functions:", stats.TotalFunctions)

	if len(stats.Languages) > 0 {
		fprintln(out, "Languages:")

		languages := make([]string, 0, len(stats.Languages))
		for lang := range stats.Languages {
			languages = append(languages, lang)
		}

		sort.Strings(languages)

		for _, lang := range languages {
			fprintf(out, "  %s: %d\n", lang, stats.Languages[lang])
		}
	}

	if len(stats.RecentFiles) > 0 {
		fprintln(out, "Recent:")

		for _, recent := range stats.RecentFiles {
			fprintf(out, "  %s  %s  %s  %d functions\n",
				recent.Filename, recent.Language, recent.Timestamp, recent.Functions)
		}
	}

	return 0
}

func printStatsHelp(out io.Writer) {
	fprintln(out, "Usage: docvault stats [--json]")
	fprintln(out, "")
	fprintln(out, "Print file and function counts, a per-language histogram,")
	fprintln(out, "and the five most recently updated files.")
	fprintln(out, "")
	fprintln(out, "Options:")
	fprintln(out, "  --json  Print stats as JSON")
}
