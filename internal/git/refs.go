package git

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	rebaseerrors "stackit.dev/rebaser/internal/errors"
)

// ResolveReference resolves a full or short reference name to the concrete reference it names.
// Symbolic references (HEAD) are followed.
func (r *Repository) ResolveReference(name string) (*plumbing.Reference, error) {
	goGitMu.Lock()
	defer goGitMu.Unlock()

	candidates := []string{
		name,
		"refs/heads/" + name,
		"refs/remotes/origin/" + name,
		"refs/tags/" + name,
	}
	for _, candidate := range candidates {
		ref, err := r.Reference(plumbing.ReferenceName(candidate), true)
		if err == nil {
			return ref, nil
		}
	}

	return nil, fmt.Errorf("failed to resolve ref %s: %w", name, rebaseerrors.ErrReferenceNotFound)
}

// ListReferences returns the hash references whose full name starts with prefix, sorted by name
func (r *Repository) ListReferences(prefix string) ([]*plumbing.Reference, error) {
	goGitMu.Lock()
	defer goGitMu.Unlock()

	iter, err := r.References()
	if err != nil {
		return nil, fmt.Errorf("failed to get references: %w", err)
	}
	defer iter.Close()

	var refs []*plumbing.Reference
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		if strings.HasPrefix(ref.Name().String(), prefix) {
			refs = append(refs, ref)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate references: %w", err)
	}

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Name() < refs[j].Name()
	})
	return refs, nil
}

// ReferenceTarget returns the hash name points at without following symbolic references.
// A missing reference yields the zero hash.
func (r *Repository) ReferenceTarget(name plumbing.ReferenceName) (plumbing.Hash, error) {
	goGitMu.Lock()
	defer goGitMu.Unlock()

	ref, err := r.Storer.Reference(name)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to read reference %s: %w", name, err)
	}
	return ref.Hash(), nil
}

// UpdateReference moves name from old to new with a compare-and-swap.
// It reports false when the reference already points at new.
func (r *Repository) UpdateReference(name plumbing.ReferenceName, old, new plumbing.Hash) (bool, error) {
	goGitMu.Lock()
	defer goGitMu.Unlock()

	if current, err := r.Storer.Reference(name); err == nil && current.Hash() == new {
		return false, nil
	}

	var oldRef *plumbing.Reference
	if !old.IsZero() {
		oldRef = plumbing.NewHashReference(name, old)
	}
	if err := r.Storer.CheckAndSetReference(plumbing.NewHashReference(name, new), oldRef); err != nil {
		return false, err
	}
	return true, nil
}

// ResolveCommit resolves a revision (full or abbreviated hash, reference, HEAD~2) to a commit id
func (r *Repository) ResolveCommit(rev string) (plumbing.Hash, error) {
	goGitMu.Lock()
	defer goGitMu.Unlock()

	hash, err := r.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to resolve revision %s: %w", rev, err)
	}
	return *hash, nil
}
