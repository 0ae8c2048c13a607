package git_test

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	rebaseerrors "stackit.dev/rebaser/internal/errors"
	"stackit.dev/rebaser/testhelpers"
)

func TestResolveReference(t *testing.T) {
	repo := testhelpers.NewMemoryRepo(t)
	chain := repo.CreateChain(plumbing.ZeroHash, "root", "a")
	repo.SetBranch("main", chain[1])
	repo.SetRef("refs/remotes/origin/upstream", chain[0])
	repo.SetRef("refs/tags/v1", chain[0])
	repo.SetHead("main")

	tests := []struct {
		name     string
		wantName plumbing.ReferenceName
		wantHash plumbing.Hash
	}{
		{"main", "refs/heads/main", chain[1]},
		{"refs/heads/main", "refs/heads/main", chain[1]},
		{"upstream", "refs/remotes/origin/upstream", chain[0]},
		{"v1", "refs/tags/v1", chain[0]},
		{"HEAD", "refs/heads/main", chain[1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := repo.Repo.ResolveReference(tt.name)
			require.NoError(t, err)
			require.Equal(t, tt.wantName, ref.Name())
			require.Equal(t, tt.wantHash, ref.Hash())
		})
	}

	t.Run("missing", func(t *testing.T) {
		_, err := repo.Repo.ResolveReference("nope")
		require.ErrorIs(t, err, rebaseerrors.ErrReferenceNotFound)
	})
}

func TestResolveCommit(t *testing.T) {
	repo := testhelpers.NewMemoryRepo(t)
	chain := repo.CreateChain(plumbing.ZeroHash, "root", "a")
	repo.SetBranch("main", chain[1])

	id, err := repo.Repo.ResolveCommit("main~1")
	require.NoError(t, err)
	require.Equal(t, chain[0], id)

	id, err = repo.Repo.ResolveCommit(chain[1].String())
	require.NoError(t, err)
	require.Equal(t, chain[1], id)

	_, err = repo.Repo.ResolveCommit("nope")
	require.Error(t, err)
}

func TestListReferences(t *testing.T) {
	repo := testhelpers.NewMemoryRepo(t)
	root := repo.CreateChain(plumbing.ZeroHash, "root")[0]
	repo.SetBranch("zeta", root)
	repo.SetBranch("alpha", root)
	repo.SetRef("refs/tags/v1", root)

	refs, err := repo.Repo.ListReferences("refs/heads/")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.Equal(t, plumbing.NewBranchReferenceName("alpha"), refs[0].Name())
	require.Equal(t, plumbing.NewBranchReferenceName("zeta"), refs[1].Name())
}

func TestReferenceTarget(t *testing.T) {
	repo := testhelpers.NewMemoryRepo(t)
	root := repo.CreateChain(plumbing.ZeroHash, "root")[0]
	repo.SetBranch("main", root)

	target, err := repo.Repo.ReferenceTarget("refs/heads/main")
	require.NoError(t, err)
	require.Equal(t, root, target)

	target, err = repo.Repo.ReferenceTarget("refs/heads/missing")
	require.NoError(t, err)
	require.True(t, target.IsZero())
}

func TestUpdateReference(t *testing.T) {
	t.Run("moves the reference when it still points at old", func(t *testing.T) {
		repo := testhelpers.NewMemoryRepo(t)
		chain := repo.CreateChain(plumbing.ZeroHash, "root", "a")
		repo.SetBranch("main", chain[0])

		moved, err := repo.Repo.UpdateReference("refs/heads/main", chain[0], chain[1])
		require.NoError(t, err)
		require.True(t, moved)
		require.Equal(t, chain[1], repo.GetRef("main"))

		moved, err = repo.Repo.UpdateReference("refs/heads/main", chain[0], chain[1])
		require.NoError(t, err)
		require.False(t, moved)
	})

	t.Run("refuses when the reference moved", func(t *testing.T) {
		repo := testhelpers.NewMemoryRepo(t)
		chain := repo.CreateChain(plumbing.ZeroHash, "root", "a", "b")
		repo.SetBranch("main", chain[2])

		_, err := repo.Repo.UpdateReference("refs/heads/main", chain[0], chain[1])
		require.Error(t, err)
		require.Equal(t, chain[2], repo.GetRef("main"))
	})

	t.Run("creates a reference when old is zero", func(t *testing.T) {
		repo := testhelpers.NewMemoryRepo(t)
		root := repo.CreateChain(plumbing.ZeroHash, "root")[0]

		moved, err := repo.Repo.UpdateReference("refs/heads/new", plumbing.ZeroHash, root)
		require.NoError(t, err)
		require.True(t, moved)
		require.Equal(t, root, repo.GetRef("new"))
	})
}
