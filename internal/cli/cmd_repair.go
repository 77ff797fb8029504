package cli

import (
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"docvault/internal/fs"
)

const repairHelp = `  repair [--dry-run]     Diagnose and repair the store file offline`

func cmdRepair(stdin io.Reader, out io.Writer, errOut io.Writer, storePath string, args []string) int {
	if hasHelpFlag(args) {
		printRepairHelp(out)

		return 0
	}

	flagSet := flag.NewFlagSet("repair", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	dryRun := flagSet.Bool("dry-run", false, "Diagnose only, never write")

	parseErr := flagSet.Parse(args)
	if parseErr != nil {
		fprintln(errOut, "error:", parseErr)

		return 1
	}

	return runRepair(stdin, out, errOut, fs.NewReal(), storePath, *dryRun, time.Now())
}

func printRepairHelp(out io.Writer) {
	fprintln(out, "Usage: docvault repair [--dry-run]")
	fprintln(out, "")
	fprintln(out, "Diagnose the store file directly, outside the normal load path,")
	fprintln(out, "and repair it in place when entries can be salvaged. A timestamped")
	fprintln(out, "backup is written before anything is touched.")
	fprintln(out, "")
	fprintln(out, "Options:")
	fprintln(out, "  --dry-run  Print the diagnosis without writing")
}
