package cli_test

import (
	"bytes"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"

	"stackit.dev/rebaser/internal/cli"
)

// runCLI runs the root command in-process and returns everything it printed
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("REBASER_LOG_FILE", "")
	t.Setenv("REBASER_TEST_NO_INTERACTIVE", "1")

	var out bytes.Buffer
	cmd := cli.NewRootCmd("test", "none", "unknown")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func hashStrings(hashes []plumbing.Hash) []string {
	out := make([]string, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, h.String())
	}
	return out
}
