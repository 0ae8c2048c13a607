package git

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Default identity used when the repository config carries no user
const (
	DefaultAuthorName  = "rebaser"
	DefaultAuthorEmail = "rebaser@localhost"
)

// goGitMu serializes go-git object and reference access
var goGitMu sync.Mutex

// Repository wraps a go-git repository
type Repository struct {
	*git.Repository
	path string
}

// OpenRepository opens a git repository at the given path
func OpenRepository(path string) (*Repository, error) {
	// Resolve to absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	root := absPath
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}

	return &Repository{
		Repository: repo,
		path:       root,
	}, nil
}

// NewRepository wraps an already opened go-git repository
func NewRepository(repo *git.Repository) *Repository {
	return &Repository{Repository: repo}
}

// InitMemoryRepository creates an empty repository backed by memory storage and an in-memory worktree
func InitMemoryRepository() (*Repository, error) {
	return InitRepositoryWithStorage(memory.NewStorage(), memfs.New())
}

// InitRepositoryWithStorage creates an empty repository on top of the given storer
func InitRepositoryWithStorage(s storage.Storer, worktree billy.Filesystem) (*Repository, error) {
	repo, err := git.Init(s, worktree)
	if err != nil {
		return nil, fmt.Errorf("failed to init repository: %w", err)
	}
	return &Repository{Repository: repo}, nil
}

// GetRepoRoot returns the root directory of the repository, empty for in-memory repositories
func (r *Repository) GetRepoRoot() string {
	return r.path
}

// Signature returns the configured user identity, falling back to the rebaser default
func (r *Repository) Signature() object.Signature {
	sig := object.Signature{Name: DefaultAuthorName, Email: DefaultAuthorEmail}

	goGitMu.Lock()
	cfg, err := r.Config()
	goGitMu.Unlock()
	if err != nil {
		return sig
	}

	if cfg.User.Name != "" {
		sig.Name = cfg.User.Name
	}
	if cfg.User.Email != "" {
		sig.Email = cfg.User.Email
	}
	return sig
}
