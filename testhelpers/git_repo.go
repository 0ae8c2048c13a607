package testhelpers

import (
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"

	"stackit.dev/rebaser/internal/git"
)

// baseTime anchors commit timestamps so object ids are stable across runs
var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// GitRepo represents a Git repository for testing purposes.
// Commits are written straight into the object store; there is no worktree involved.
type GitRepo struct {
	Repo    *git.Repository
	Storage storage.Storer
	t       testing.TB
	tick    int
}

// NewMemoryRepo creates a repository backed by memory storage and a go-billy memfs worktree.
func NewMemoryRepo(t testing.TB) *GitRepo {
	t.Helper()
	return NewGitRepoWithStorage(t, memory.NewStorage())
}

// NewGitRepoWithStorage creates a repository on top of the given storer.
func NewGitRepoWithStorage(t testing.TB, s storage.Storer) *GitRepo {
	t.Helper()
	repo, err := git.InitRepositoryWithStorage(s, memfs.New())
	require.NoError(t, err)

	r := &GitRepo{Repo: repo, Storage: s, t: t}
	r.configureUser()
	return r
}

// OpenGitRepo wraps an on-disk repository.
func OpenGitRepo(t testing.TB, dir string) *GitRepo {
	t.Helper()
	repo, err := git.OpenRepository(dir)
	require.NoError(t, err)

	r := &GitRepo{Repo: repo, Storage: repo.Storer, t: t}
	r.configureUser()
	return r
}

// configureUser sets the identity commits are authored with.
func (r *GitRepo) configureUser() {
	cfg, err := r.Repo.Config()
	require.NoError(r.t, err)
	cfg.User.Name = "Test User"
	cfg.User.Email = "test@example.com"
	require.NoError(r.t, r.Repo.Storer.SetConfig(cfg))
}

// signature returns a test signature one minute after the previous one.
func (r *GitRepo) signature() object.Signature {
	r.tick++
	return object.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  baseTime.Add(time.Duration(r.tick) * time.Minute),
	}
}

// CreateChangeAndCommit writes a commit whose tree is the first parent's tree with files overlaid.
// File names must not contain slashes.
func (r *GitRepo) CreateChangeAndCommit(message string, files map[string]string, parents ...plumbing.Hash) plumbing.Hash {
	r.t.Helper()

	entries := map[string]object.TreeEntry{}
	if len(parents) > 0 {
		parent, err := object.GetCommit(r.Storage, parents[0])
		require.NoError(r.t, err)
		tree, err := object.GetTree(r.Storage, parent.TreeHash)
		require.NoError(r.t, err)
		for _, e := range tree.Entries {
			entries[e.Name] = e
		}
	}

	for name, content := range files {
		require.False(r.t, strings.Contains(name, "/"), "nested paths are not supported: %s", name)
		blob := r.Storage.NewEncodedObject()
		blob.SetType(plumbing.BlobObject)
		w, err := blob.Writer()
		require.NoError(r.t, err)
		_, err = w.Write([]byte(content))
		require.NoError(r.t, err)
		require.NoError(r.t, w.Close())
		hash, err := r.Storage.SetEncodedObject(blob)
		require.NoError(r.t, err)
		entries[name] = object.TreeEntry{Name: name, Mode: filemode.Regular, Hash: hash}
	}

	tree := &object.Tree{}
	for _, e := range entries {
		tree.Entries = append(tree.Entries, e)
	}
	sort.Slice(tree.Entries, func(i, j int) bool {
		return tree.Entries[i].Name < tree.Entries[j].Name
	})
	treeHash, err := git.EncodeObject(r.Storage, tree)
	require.NoError(r.t, err)

	sig := r.signature()
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parents,
	}
	hash, err := git.EncodeObject(r.Storage, commit)
	require.NoError(r.t, err)
	return hash
}

// CreateChain writes one commit per message, each on top of the previous one, starting at base.
// It returns the new commits oldest first.
func (r *GitRepo) CreateChain(base plumbing.Hash, messages ...string) []plumbing.Hash {
	r.t.Helper()

	hashes := make([]plumbing.Hash, 0, len(messages))
	parent := base
	for _, msg := range messages {
		var parents []plumbing.Hash
		if !parent.IsZero() {
			parents = []plumbing.Hash{parent}
		}
		parent = r.CreateChangeAndCommit(msg, map[string]string{fileName(msg): msg}, parents...)
		hashes = append(hashes, parent)
	}
	return hashes
}

// SetBranch points refs/heads/<name> at hash.
func (r *GitRepo) SetBranch(name string, hash plumbing.Hash) {
	r.t.Helper()
	r.SetRef(plumbing.NewBranchReferenceName(name), hash)
}

// SetRef points the full reference name at hash.
func (r *GitRepo) SetRef(name plumbing.ReferenceName, hash plumbing.Hash) {
	r.t.Helper()
	require.NoError(r.t, r.Storage.SetReference(plumbing.NewHashReference(name, hash)))
}

// SetHead makes HEAD a symbolic reference to the given branch.
func (r *GitRepo) SetHead(branch string) {
	r.t.Helper()
	ref := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))
	require.NoError(r.t, r.Storage.SetReference(ref))
}

// GetRef returns the commit a reference points at.
func (r *GitRepo) GetRef(name string) plumbing.Hash {
	r.t.Helper()
	ref, err := r.Repo.ResolveReference(name)
	require.NoError(r.t, err)
	return ref.Hash()
}

// GetCommit loads a commit object.
func (r *GitRepo) GetCommit(hash plumbing.Hash) *object.Commit {
	r.t.Helper()
	commit, err := object.GetCommit(r.Storage, hash)
	require.NoError(r.t, err)
	return commit
}

// Snapshot captures every object id and every reference target in the store.
func (r *GitRepo) Snapshot() map[string]string {
	r.t.Helper()

	snap := map[string]string{}
	objects, err := r.Storage.IterEncodedObjects(plumbing.AnyObject)
	require.NoError(r.t, err)
	require.NoError(r.t, objects.ForEach(func(o plumbing.EncodedObject) error {
		snap["object:"+o.Hash().String()] = o.Type().String()
		return nil
	}))

	refs, err := r.Storage.IterReferences()
	require.NoError(r.t, err)
	require.NoError(r.t, refs.ForEach(func(ref *plumbing.Reference) error {
		snap["ref:"+ref.Name().String()] = ref.Strings()[1]
		return nil
	}))
	return snap
}

func fileName(message string) string {
	return fmt.Sprintf("%s.txt", strings.ReplaceAll(strings.ToLower(message), " ", "_"))
}
