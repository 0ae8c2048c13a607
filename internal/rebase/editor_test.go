package rebase_test

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	rebaseerrors "stackit.dev/rebaser/internal/errors"
	"stackit.dev/rebaser/internal/git"
	"stackit.dev/rebaser/internal/graph"
	"stackit.dev/rebaser/internal/rebase"
	"stackit.dev/rebaser/testhelpers"
)

func TestInsert(t *testing.T) {
	t.Run("after a commit rebases its descendants", func(t *testing.T) {
		repo, chain := linearRepo(t)
		root, a, b := chain[0], chain[1], chain[2]
		editor := newEditor(t, repo)

		sel, err := editor.SelectCommit(a)
		require.NoError(t, err)
		blank := insertBlank(t, editor, sel, rebase.After)

		out, final := materialize(t, editor, blank)
		require.NotContains(t, out.CommitMapping, root)
		require.NotContains(t, out.CommitMapping, a)
		require.Len(t, out.CommitMapping, 1)

		blankCommit := repo.GetCommit(final)
		require.Equal(t, []plumbing.Hash{a}, parents(blankCommit))
		require.Equal(t, repo.GetCommit(a).TreeHash, blankCommit.TreeHash)

		newB := repo.GetCommit(out.CommitMapping[b])
		require.Equal(t, []plumbing.Hash{final}, parents(newB))
		require.Equal(t, repo.GetCommit(b).TreeHash, newB.TreeHash)
		require.Equal(t, out.CommitMapping[b], repo.GetRef("main"))
	})

	t.Run("before a commit takes over its parents", func(t *testing.T) {
		repo, chain := linearRepo(t)
		root, a, b := chain[0], chain[1], chain[2]
		editor := newEditor(t, repo)

		sel, err := editor.SelectCommit(a)
		require.NoError(t, err)
		blank := insertBlank(t, editor, sel, rebase.Before)

		out, final := materialize(t, editor, blank)
		require.Len(t, out.CommitMapping, 2)

		blankCommit := repo.GetCommit(final)
		require.Equal(t, []plumbing.Hash{root}, parents(blankCommit))
		require.Equal(t, repo.GetCommit(root).TreeHash, blankCommit.TreeHash)

		newA := repo.GetCommit(out.CommitMapping[a])
		require.Equal(t, []plumbing.Hash{final}, parents(newA))
		newB := repo.GetCommit(out.CommitMapping[b])
		require.Equal(t, []plumbing.Hash{newA.Hash}, parents(newB))
	})

	t.Run("before the root gives the blank commit the empty tree", func(t *testing.T) {
		repo, chain := linearRepo(t)
		editor := newEditor(t, repo)
		require.False(t, repo.Repo.HasObject(git.EmptyTreeHash))

		sel, err := editor.SelectCommit(chain[0])
		require.NoError(t, err)
		blank := insertBlank(t, editor, sel, rebase.Before)

		out, final := materialize(t, editor, blank)
		require.Len(t, out.CommitMapping, 3)

		blankCommit := repo.GetCommit(final)
		require.Empty(t, blankCommit.ParentHashes)
		require.Equal(t, git.EmptyTreeHash, blankCommit.TreeHash)
		require.True(t, repo.Repo.HasObject(git.EmptyTreeHash))
		require.Contains(t, out.Written, git.EmptyTreeHash)
	})

	t.Run("after a reference moves the reference to the blank commit", func(t *testing.T) {
		repo, chain := linearRepo(t)
		b := chain[2]
		editor := newEditor(t, repo)

		sel, err := editor.SelectReference("main")
		require.NoError(t, err)
		require.Equal(t, plumbing.NewBranchReferenceName("main"), sel.Reference())
		blank := insertBlank(t, editor, sel, rebase.After)

		out, final := materialize(t, editor, blank)
		require.Empty(t, out.CommitMapping)
		require.Equal(t, []rebase.ReferenceUpdate{{
			Name: plumbing.NewBranchReferenceName("main"),
			Old:  b,
			New:  final,
		}}, out.References)
		require.Equal(t, final, repo.GetRef("main"))
		require.Equal(t, []plumbing.Hash{b}, parents(repo.GetCommit(final)))
	})

	t.Run("after a branch tip carries its branches along", func(t *testing.T) {
		repo, chain := linearRepo(t)
		b := chain[2]
		repo.SetBranch("feature", b)
		editor := newEditor(t, repo)

		sel, err := editor.SelectCommit(b)
		require.NoError(t, err)
		blank := insertBlank(t, editor, sel, rebase.After)

		out, final := materialize(t, editor, blank)
		require.Empty(t, out.CommitMapping)
		require.Equal(t, []rebase.ReferenceUpdate{
			{Name: plumbing.NewBranchReferenceName("feature"), Old: b, New: final},
			{Name: plumbing.NewBranchReferenceName("main"), Old: b, New: final},
		}, out.References)
		require.Equal(t, final, repo.GetRef("main"))
		require.Equal(t, final, repo.GetRef("feature"))
	})

	t.Run("tags stay on the original commit", func(t *testing.T) {
		repo, chain := linearRepo(t)
		b := chain[2]
		tag := plumbing.NewTagReferenceName("v1.0")
		repo.SetRef(tag, b)

		// Bind the tag explicitly; Build leaves tags out on its own
		built, err := graph.Build(repo.Repo, graph.Options{})
		require.NoError(t, err)
		refs := built.References()
		refs[tag] = b
		g, err := graph.New(built.Nodes(), refs)
		require.NoError(t, err)

		editor, err := rebase.NewEditor(g, repo.Repo, rebase.Options{Clock: fixedClock, Message: "Blank"})
		require.NoError(t, err)
		sel, err := editor.SelectCommit(b)
		require.NoError(t, err)
		blank := insertBlank(t, editor, sel, rebase.Before)

		out, _ := materialize(t, editor, blank)
		require.Equal(t, []rebase.ReferenceUpdate{
			{Name: plumbing.NewBranchReferenceName("main"), Old: b, New: out.CommitMapping[b]},
		}, out.References)
		require.Equal(t, b, repo.GetRef("v1.0"))
	})

	t.Run("after a tag moves the branches, not the tag", func(t *testing.T) {
		repo, chain := linearRepo(t)
		b := chain[2]
		repo.SetRef(plumbing.NewTagReferenceName("v1.0"), b)
		editor := newEditor(t, repo)

		sel, err := editor.SelectReference("v1.0")
		require.NoError(t, err)
		blank := insertBlank(t, editor, sel, rebase.After)

		_, final := materialize(t, editor, blank)
		require.Equal(t, b, repo.GetRef("v1.0"))
		require.Equal(t, final, repo.GetRef("main"))
	})

	t.Run("before a reference leaves the reference on the rewritten commit", func(t *testing.T) {
		repo, chain := linearRepo(t)
		b := chain[2]
		editor := newEditor(t, repo)

		sel, err := editor.SelectReference("main")
		require.NoError(t, err)
		blank := insertBlank(t, editor, sel, rebase.Before)

		out, final := materialize(t, editor, blank)
		require.Equal(t, out.CommitMapping[b], repo.GetRef("main"))
		require.Equal(t, []plumbing.Hash{final}, parents(repo.GetCommit(out.CommitMapping[b])))
	})

	t.Run("after a commit re-points every child, including merges", func(t *testing.T) {
		repo := testhelpers.NewMemoryRepo(t)
		root := repo.CreateChangeAndCommit("root", map[string]string{"root.txt": "root"})
		a := repo.CreateChangeAndCommit("a", map[string]string{"a.txt": "a"}, root)
		c := repo.CreateChangeAndCommit("c", map[string]string{"c.txt": "c"}, root)
		m := repo.CreateChangeAndCommit("merge", nil, a, c)
		repo.SetBranch("main", m)
		repo.SetBranch("side", c)
		editor := newEditor(t, repo)

		sel, err := editor.SelectCommit(root)
		require.NoError(t, err)
		blank := insertBlank(t, editor, sel, rebase.After)

		out, final := materialize(t, editor, blank)
		require.Len(t, out.CommitMapping, 3)

		newA := out.CommitMapping[a]
		newC := out.CommitMapping[c]
		require.Equal(t, []plumbing.Hash{final}, parents(repo.GetCommit(newA)))
		require.Equal(t, []plumbing.Hash{final}, parents(repo.GetCommit(newC)))
		require.Equal(t, []plumbing.Hash{newA, newC}, parents(repo.GetCommit(out.CommitMapping[m])))
		require.Equal(t, newC, repo.GetRef("side"))
		require.Equal(t, out.CommitMapping[m], repo.GetRef("main"))
	})

	t.Run("commits outside the anchor's descendants are left alone", func(t *testing.T) {
		repo, chain := linearRepo(t)
		root, a, b := chain[0], chain[1], chain[2]
		d := repo.CreateChangeAndCommit("d", map[string]string{"d.txt": "d"}, root)
		repo.SetBranch("other", d)
		editor := newEditor(t, repo)

		sel, err := editor.SelectCommit(a)
		require.NoError(t, err)
		blank := insertBlank(t, editor, sel, rebase.After)

		out, _ := materialize(t, editor, blank)
		require.Equal(t, []plumbing.Hash{b}, mappingKeys(out.CommitMapping))
		require.Equal(t, d, repo.GetRef("other"))
		for _, ref := range out.References {
			require.NotEqual(t, plumbing.NewBranchReferenceName("other"), ref.Name)
		}
	})

	t.Run("rewrites drop the signature and keep every other field", func(t *testing.T) {
		repo, chain := linearRepo(t)
		original := repo.GetCommit(chain[1])
		signed := *original
		signed.PGPSignature = "-----BEGIN PGP SIGNATURE-----\n\niQEzBAABCAAdFiEE\n-----END PGP SIGNATURE-----\n"
		signedID, err := git.EncodeObject(repo.Storage, &signed)
		require.NoError(t, err)
		repo.SetBranch("main", signedID)
		editor := newEditor(t, repo)

		sel, err := editor.SelectCommit(signedID)
		require.NoError(t, err)
		blank := insertBlank(t, editor, sel, rebase.Before)

		out, _ := materialize(t, editor, blank)
		before := repo.GetCommit(signedID)
		after := repo.GetCommit(out.CommitMapping[signedID])
		require.NotEmpty(t, before.PGPSignature)
		require.Empty(t, after.PGPSignature)
		require.Equal(t, before.Message, after.Message)
		require.Equal(t, before.TreeHash, after.TreeHash)
		require.Equal(t, before.Author.String(), after.Author.String())
		require.Equal(t, before.Author.When.Unix(), after.Author.When.Unix())
		require.Equal(t, before.Committer.When.Unix(), after.Committer.When.Unix())
	})
}

func TestRepeatedInsertions(t *testing.T) {
	t.Run("inserts stack in the order they were made", func(t *testing.T) {
		repo, chain := linearRepo(t)
		a, b := chain[1], chain[2]
		editor := newEditor(t, repo)

		first := editor.EmptyCommit()
		first.Message = "first\n"
		firstID, err := editor.WriteCommit(first, rebase.CommitterUpdateAuthorUpdate)
		require.NoError(t, err)
		second := editor.EmptyCommit()
		second.Message = "second\n"
		secondID, err := editor.WriteCommit(second, rebase.CommitterUpdateAuthorUpdate)
		require.NoError(t, err)

		sel, err := editor.SelectCommit(a)
		require.NoError(t, err)
		editor.Insert(sel, rebase.NewPick(firstID), rebase.After)
		sel, err = editor.SelectCommit(a)
		require.NoError(t, err)
		editor.Insert(sel, rebase.NewPick(secondID), rebase.After)

		steps, err := editor.Steps()
		require.NoError(t, err)
		require.Len(t, steps, 5)

		outcome, err := editor.Rebase()
		require.NoError(t, err)
		finalFirst, ok := outcome.AuthoredCommit(firstID)
		require.True(t, ok)
		finalSecond, ok := outcome.AuthoredCommit(secondID)
		require.True(t, ok)
		_, err = outcome.Materialize()
		require.NoError(t, err)

		require.Equal(t, []plumbing.Hash{a}, parents(repo.GetCommit(finalSecond)))
		require.Equal(t, []plumbing.Hash{finalSecond}, parents(repo.GetCommit(finalFirst)))
		require.Equal(t, []plumbing.Hash{finalFirst}, parents(repo.GetCommit(outcome.CommitMapping()[b])))
	})

	t.Run("a returned selector anchors further inserts", func(t *testing.T) {
		repo, chain := linearRepo(t)
		a := chain[1]
		editor := newEditor(t, repo)

		first := editor.EmptyCommit()
		first.Message = "first\n"
		firstID, err := editor.WriteCommit(first, rebase.CommitterUpdateAuthorUpdate)
		require.NoError(t, err)
		second := editor.EmptyCommit()
		second.Message = "second\n"
		secondID, err := editor.WriteCommit(second, rebase.CommitterUpdateAuthorUpdate)
		require.NoError(t, err)

		sel, err := editor.SelectCommit(a)
		require.NoError(t, err)
		inserted := editor.Insert(sel, rebase.NewPick(firstID), rebase.After)
		editor.Insert(inserted, rebase.NewPick(secondID), rebase.After)

		outcome, err := editor.Rebase()
		require.NoError(t, err)
		finalFirst, _ := outcome.AuthoredCommit(firstID)
		finalSecond, _ := outcome.AuthoredCommit(secondID)
		_, err = outcome.Materialize()
		require.NoError(t, err)

		require.Equal(t, []plumbing.Hash{a}, parents(repo.GetCommit(finalFirst)))
		require.Equal(t, []plumbing.Hash{finalFirst}, parents(repo.GetCommit(finalSecond)))
	})
}

func TestSelect(t *testing.T) {
	t.Run("unknown commit", func(t *testing.T) {
		repo, _ := linearRepo(t)
		editor := newEditor(t, repo)

		_, err := editor.SelectCommit(plumbing.NewHash("1111111111111111111111111111111111111111"))
		require.ErrorIs(t, err, rebaseerrors.ErrAnchorNotFound)

		var anchorErr *rebaseerrors.AnchorNotFoundError
		require.ErrorAs(t, err, &anchorErr)
		require.Equal(t, "1111111111111111111111111111111111111111", anchorErr.Commit)
	})

	t.Run("unknown reference", func(t *testing.T) {
		repo, _ := linearRepo(t)
		editor := newEditor(t, repo)

		_, err := editor.SelectReference("nope")
		require.ErrorIs(t, err, rebaseerrors.ErrAnchorNotFound)
		require.ErrorIs(t, err, rebaseerrors.ErrReferenceNotFound)
	})

	t.Run("reference outside the graph", func(t *testing.T) {
		repo, chain := linearRepo(t)
		g, err := graph.Build(repo.Repo, graph.Options{Boundary: []plumbing.Hash{chain[1]}})
		require.NoError(t, err)
		repo.SetRef("refs/tags/v1", chain[0])

		editor, err := rebase.NewEditor(g, repo.Repo, rebase.Options{Clock: fixedClock})
		require.NoError(t, err)

		_, err = editor.SelectReference("v1")
		require.ErrorIs(t, err, rebaseerrors.ErrAnchorNotFound)
	})

	t.Run("selector from another session panics", func(t *testing.T) {
		repo, chain := linearRepo(t)
		first := newEditor(t, repo)
		second := newEditor(t, repo)

		sel, err := first.SelectCommit(chain[1])
		require.NoError(t, err)
		id, err := second.WriteCommit(second.EmptyCommit(), rebase.CommitterUpdateAuthorUpdate)
		require.NoError(t, err)

		require.Panics(t, func() {
			second.Insert(sel, rebase.NewPick(id), rebase.After)
		})
	})

	t.Run("zero selector panics", func(t *testing.T) {
		repo, _ := linearRepo(t)
		editor := newEditor(t, repo)

		require.Panics(t, func() {
			editor.Insert(rebase.Selector{}, rebase.NewPick(plumbing.ZeroHash), rebase.After)
		})
	})
}

func TestNewEditor(t *testing.T) {
	repo, _ := linearRepo(t)
	g, err := graph.Build(repo.Repo, graph.Options{})
	require.NoError(t, err)

	_, err = rebase.NewEditor(nil, repo.Repo, rebase.Options{})
	require.Error(t, err)
	_, err = rebase.NewEditor(g, nil, rebase.Options{})
	require.Error(t, err)

	editor, err := rebase.NewEditor(g, repo.Repo, rebase.Options{})
	require.NoError(t, err)
	steps, err := editor.Steps()
	require.NoError(t, err)
	require.Len(t, steps, 3)
	for i, n := range g.Nodes() {
		require.Equal(t, rebase.NewPick(n.ID), steps[i])
	}
}

func mappingKeys(m map[plumbing.Hash]plumbing.Hash) []plumbing.Hash {
	keys := make([]plumbing.Hash, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
