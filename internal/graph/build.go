package graph

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5/plumbing"

	"stackit.dev/rebaser/internal/git"
)

// Options controls which slice of history Build walks
type Options struct {
	// Tips are the reference names the walk starts from
	Tips []string
	// Branches are glob patterns (doublestar syntax) over short branch names whose
	// branches are walked as well. With neither Tips nor Branches every local branch is walked.
	Branches []string
	// Boundary commits stop the walk; they and their ancestors are left out.
	Boundary []plumbing.Hash
	// Limit caps the number of commits walked. Zero means no limit.
	Limit int
}


// Build walks the repository from the tips and returns the commits it reaches.
// Every local branch pointing into the walked commits is bound to its node; tags are not.
func Build(repo *git.Repository, opts Options) (*Graph, error) {
	refs := map[plumbing.ReferenceName]plumbing.Hash{}
	var starts []plumbing.Hash

	patterns := opts.Branches
	if len(opts.Tips) == 0 && len(patterns) == 0 {
		patterns = []string{"**"}
	}
	if len(patterns) > 0 {
		branches, err := repo.ListReferences("refs/heads/")
		if err != nil {
			return nil, err
		}
		for _, ref := range branches {
			ok, err := matchAny(patterns, ref.Name().Short())
			if err != nil {
				return nil, err
			}
			if ok {
				refs[ref.Name()] = ref.Hash()
				starts = append(starts, ref.Hash())
			}
		}
	}
	for _, tip := range opts.Tips {
		ref, err := repo.ResolveReference(tip)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tip %s: %w", tip, err)
		}
		// A tag tip is walked but stays unbound
		if ref.Name().IsBranch() || ref.Name() == plumbing.HEAD {
			refs[ref.Name()] = ref.Hash()
		}
		starts = append(starts, ref.Hash())
	}

	boundary := make(map[plumbing.Hash]bool, len(opts.Boundary))
	for _, h := range opts.Boundary {
		boundary[h] = true
	}

	nodes, err := walk(repo, starts, boundary, opts.Limit)
	if err != nil {
		return nil, err
	}

	walked := make(map[plumbing.Hash]bool, len(nodes))
	for _, n := range nodes {
		walked[n.ID] = true
	}
	branches, err := repo.ListReferences("refs/heads/")
	if err != nil {
		return nil, err
	}
	for _, ref := range branches {
		if walked[ref.Hash()] {
			refs[ref.Name()] = ref.Hash()
		}
	}
	for name, id := range refs {
		if !walked[id] {
			delete(refs, name)
		}
	}

	return New(nodes, refs)
}

func matchAny(patterns []string, name string) (bool, error) {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return false, fmt.Errorf("invalid branch pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("invalid branch pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// walk collects commits reachable from starts using BFS, newest first
func walk(repo *git.Repository, starts []plumbing.Hash, boundary map[plumbing.Hash]bool, limit int) ([]Node, error) {
	var nodes []Node
	visited := make(map[plumbing.Hash]bool)

	queue := append([]plumbing.Hash(nil), starts...)
	for len(queue) > 0 {
		if limit > 0 && len(nodes) >= limit {
			break
		}
		hash := queue[0]
		queue = queue[1:]

		if visited[hash] || boundary[hash] {
			continue
		}
		visited[hash] = true

		commit, err := repo.ReadCommit(hash)
		if err != nil {
			return nil, err
		}

		nodes = append(nodes, Node{
			ID:      commit.Hash,
			Parents: append([]plumbing.Hash(nil), commit.ParentHashes...),
			Tree:    commit.TreeHash,
			Message: strings.TrimSpace(commit.Message),
		})

		for _, parentHash := range commit.ParentHashes {
			if !visited[parentHash] && !boundary[parentHash] {
				queue = append(queue, parentHash)
			}
		}
	}

	return nodes, nil
}
