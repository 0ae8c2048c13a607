package rebase_test

import (
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"stackit.dev/rebaser/internal/graph"
	"stackit.dev/rebaser/internal/rebase"
	"stackit.dev/rebaser/testhelpers"
)

var editTime = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time {
	return editTime
}

// linearRepo builds root → a → b with main at b
func linearRepo(t *testing.T) (*testhelpers.GitRepo, []plumbing.Hash) {
	t.Helper()
	repo := testhelpers.NewMemoryRepo(t)
	chain := repo.CreateChain(plumbing.ZeroHash, "root", "a", "b")
	repo.SetBranch("main", chain[2])
	return repo, chain
}

func newEditor(t *testing.T, repo *testhelpers.GitRepo) *rebase.Editor {
	t.Helper()
	g, err := graph.Build(repo.Repo, graph.Options{})
	require.NoError(t, err)

	editor, err := rebase.NewEditor(g, repo.Repo, rebase.Options{
		Clock:   fixedClock,
		Message: "Blank",
	})
	require.NoError(t, err)
	return editor
}

// insertBlank authors a blank commit and splices it next to target
func insertBlank(t *testing.T, editor *rebase.Editor, target rebase.Selector, side rebase.InsertSide) plumbing.Hash {
	t.Helper()
	id, err := editor.WriteCommit(editor.EmptyCommit(), rebase.CommitterUpdateAuthorUpdate)
	require.NoError(t, err)
	editor.Insert(target, rebase.NewPick(id), side)
	return id
}

// materialize rebases and writes, returning the output and the final id of the authored commit
func materialize(t *testing.T, editor *rebase.Editor, provisional plumbing.Hash) (*rebase.MaterializeOutput, plumbing.Hash) {
	t.Helper()
	outcome, err := editor.Rebase()
	require.NoError(t, err)
	final, ok := outcome.AuthoredCommit(provisional)
	require.True(t, ok)

	out, err := outcome.Materialize()
	require.NoError(t, err)
	return out, final
}

func parents(c *object.Commit) []plumbing.Hash {
	return append([]plumbing.Hash(nil), c.ParentHashes...)
}
