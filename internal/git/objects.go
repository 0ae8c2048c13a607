package git

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// EmptyTreeHash is the identity of the tree with no entries
var EmptyTreeHash = plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904")

// Encoder is implemented by go-git objects that can serialize themselves (commits, trees, blobs)
type Encoder interface {
	Encode(o plumbing.EncodedObject) error
}

// HashObject computes the content address of o without storing it anywhere
func HashObject(o Encoder) (plumbing.Hash, error) {
	obj := &plumbing.MemoryObject{}
	if err := o.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return obj.Hash(), nil
}

// EncodeObject serializes o into s and returns its identity
func EncodeObject(s storer.EncodedObjectStorer, o Encoder) (plumbing.Hash, error) {
	obj := s.NewEncodedObject()
	if err := o.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return s.SetEncodedObject(obj)
}

// ReadCommit loads and decodes a commit object
func (r *Repository) ReadCommit(hash plumbing.Hash) (*object.Commit, error) {
	goGitMu.Lock()
	defer goGitMu.Unlock()

	commit, err := r.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", hash, err)
	}
	return commit, nil
}

// HasObject reports whether an object with the given identity is already stored
func (r *Repository) HasObject(hash plumbing.Hash) bool {
	goGitMu.Lock()
	defer goGitMu.Unlock()

	return r.Storer.HasEncodedObject(hash) == nil
}

// WriteObject stores obj unless an object with the same identity already exists.
// It reports whether a write happened.
func (r *Repository) WriteObject(obj plumbing.EncodedObject) (bool, error) {
	goGitMu.Lock()
	defer goGitMu.Unlock()

	if r.Storer.HasEncodedObject(obj.Hash()) == nil {
		return false, nil
	}
	if _, err := r.Storer.SetEncodedObject(obj); err != nil {
		return false, err
	}
	return true, nil
}
