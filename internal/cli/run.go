// Package cli implements the docvault command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"docvault/internal/docstore"
)

const (
	minArgs      = 2
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

// Run is the main entry point. Returns exit code.
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string) int {
	if len(args) < minArgs {
		printUsage(out)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	workDir := flags.workDir
	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			fprintln(errOut, "error: cannot get working directory:", err)

			return 1
		}
	}

	cliOverrides := docstore.Config{StorePath: flags.storePath}

	cfg, sources, err := docstore.LoadConfig(workDir, flags.configPath, cliOverrides, flags.hasStoreOverride, env)
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut)

		return 1
	}

	// Resolve store path to absolute
	storePath := cfg.StorePath
	if !filepath.IsAbs(storePath) {
		storePath = filepath.Join(workDir, storePath)
	}

	if len(flags.remaining) == 0 {
		printUsage(out)

		return 0
	}

	cmd := flags.remaining[0]
	cmdArgs := flags.remaining[1:]

	if cmd == "-h" || cmd == helpFlag {
		printUsage(out)

		return 0
	}

	store := docstore.New(storePath, newLogger(errOut))

	switch cmd {
	case "add":
		return cmdAdd(stdin, out, errOut, store, cmdArgs)
	case "show":
		return cmdShow(out, errOut, store, cmdArgs)
	case "search":
		return cmdSearch(out, errOut, store, cmdArgs)
	case "stats":
		return cmdStats(out, errOut, store, cmdArgs)
	case "dump":
		return cmdDump(out, errOut, store, cmdArgs)
	case "clear":
		return cmdClear(out, errOut, store, cmdArgs)
	case "repair":
		return cmdRepair(stdin, out, errOut, storePath, cmdArgs)
	case "print-config":
		return cmdPrintConfig(out, errOut, cfg, sources)
	default:
		fprintln(errOut, "error: unknown command:", cmd)
		printUsage(errOut)

		return 1
	}
}

// newLogger builds the CLI logger: warnings and errors only, written
// to stderr so command output stays clean for piping.
func newLogger(errOut io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(errOut)
	logger.SetLevel(logrus.WarnLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})

	return logger
}

type globalFlags struct {
	workDir          string
	configPath       string
	storePath        string
	hasStoreOverride bool
	remaining        []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	// -C/--cwd flag (work directory)
	if (arg == "-C" || arg == "--cwd") && idx+1 < len(args) {
		flags.workDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "-C"); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	if after, ok := strings.CutPrefix(arg, "--cwd="); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	// -c/--config flag
	if arg == "-c" || arg == "--config" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", docstore.ErrFlagRequiresArg, arg)
		}

		flags.configPath = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--config="); ok {
		flags.configPath = after

		return consumedOne, nil
	}

	// --store flag
	if arg == "--store" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", docstore.ErrFlagRequiresArg, arg)
		}

		flags.storePath = args[idx+1]
		flags.hasStoreOverride = true

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--store="); ok {
		flags.storePath = after
		flags.hasStoreOverride = true

		return consumedOne, nil
	}

	// -h/--help flags
	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	// Unknown flag
	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("%w: %s", docstore.ErrUnknownFlag, arg)
	}

	// Not a flag
	return consumedNone, nil
}

func cmdPrintConfig(out, errOut io.Writer, cfg docstore.Config, sources docstore.ConfigSources) int {
	formatted, err := docstore.FormatConfig(cfg)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	fprintln(out, formatted)

	fprintln(out, "")
	fprintln(out, "# Sources:")

	if sources.Global != "" {
		fprintln(out, "#   global:", sources.Global)
	}

	if sources.Project != "" {
		fprintln(out, "#   project:", sources.Project)
	}

	if sources.Global == "" && sources.Project == "" {
		fprintln(out, "#   (using defaults only)")
	}

	return 0
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func fprintf(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format, a...)
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == helpFlag {
			return true
		}
	}

	return false
}

func printUsage(writer io.Writer) {
	fprintln(writer, `docvault - crash-safe documentation store

Usage: docvault [options] <command> [args]

Options:
  -C, --cwd <dir>    Run as if started in <dir>
  -c, --config       Use specified config file
  --store <path>     Use specified store file

Commands:`)
	fprintln(writer, addHelp)
	fprintln(writer, showHelp)
	fprintln(writer, searchHelp)
	fprintln(writer, statsHelp)
	fprintln(writer, dumpHelp)
	fprintln(writer, clearHelp)
	fprintln(writer, repairHelp)
	fprintln(writer, `  print-config           Show resolved configuration`)
}
