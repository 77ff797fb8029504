package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docvault/internal/docstore"
)

// CLI provides a clean interface for running CLI commands in tests.
// It manages a temp directory and environment variables.
type CLI struct {
	t   *testing.T
	Dir string
	Env map[string]string
}

// NewCLI creates a new test CLI with a temp directory.
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	return &CLI{
		t:   t,
		Dir: t.TempDir(),
		Env: map[string]string{},
	}
}

// Run executes the CLI with the given args and returns stdout, stderr,
// and exit code. Args should not include "docvault" or "--cwd" - those
// are added automatically.
func (r *CLI) Run(args ...string) (string, string, int) {
	return r.RunWithInput("", args...)
}

// RunWithInput executes the CLI with stdin and returns stdout, stderr,
// and exit code. stdin must be a string or io.Reader; panics otherwise.
func (r *CLI) RunWithInput(stdin any, args ...string) (string, string, int) {
	var inReader io.Reader

	switch v := stdin.(type) {
	case string:
		inReader = strings.NewReader(v)
	case io.Reader:
		inReader = v
	default:
		panic(fmt.Sprintf("stdin must be string or io.Reader, got %T", stdin))
	}

	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"docvault", "--cwd", r.Dir}, args...)
	code := Run(inReader, &outBuf, &errBuf, fullArgs, r.Env)

	return outBuf.String(), errBuf.String(), code
}

// MustRun executes the CLI and fails the test if the command returns
// non-zero. Returns trimmed stdout on success.
func (r *CLI) MustRun(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code != 0 {
		r.t.Fatalf("command %v failed with exit code %d\nstderr: %s", args, code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustFail executes the CLI and fails the test if the command
// succeeds. Returns trimmed stderr.
func (r *CLI) MustFail(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code == 0 {
		r.t.Fatalf("command %v should have failed but succeeded\nstdout: %s", args, stdout)
	}

	return strings.TrimSpace(stderr)
}

// StorePath returns the path to the default store file.
func (r *CLI) StorePath() string {
	return filepath.Join(r.Dir, docstore.DefaultStoreName)
}

// ReadStore reads and returns the raw content of the store file.
func (r *CLI) ReadStore() string {
	r.t.Helper()

	data, err := os.ReadFile(r.StorePath())
	if err != nil {
		r.t.Fatalf("reading store file: %v", err)
	}

	return string(data)
}

// WriteStore writes raw content to the store file, creating it if
// needed. Used to seed legacy or corrupted shapes.
func (r *CLI) WriteStore(content string) {
	r.t.Helper()

	err := os.WriteFile(r.StorePath(), []byte(content), 0o644)
	if err != nil {
		r.t.Fatalf("writing store file: %v", err)
	}
}

// WriteSourceFile writes a source file into the temp directory and
// returns its path.
func (r *CLI) WriteSourceFile(name, content string) string {
	r.t.Helper()

	path := filepath.Join(r.Dir, name)

	err := os.WriteFile(path, []byte(content), 0o644)
	if err != nil {
		r.t.Fatalf("writing source file: %v", err)
	}

	return path
}

// AssertContains fails the test if s does not contain substr.
func AssertContains(t *testing.T, s, substr string) {
	t.Helper()

	if !strings.Contains(s, substr) {
		t.Errorf("expected output to contain %q\ngot: %s", substr, s)
	}
}
