package testhelpers

import (
	"errors"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

// ErrInjectedWrite is returned by FailingStorage once writes are disabled
var ErrInjectedWrite = errors.New("injected write failure")

// FailingStorage is a memory storage whose object and reference writes can be switched off.
type FailingStorage struct {
	*memory.Storage
	FailObjects    bool
	FailReferences bool
	ObjectWrites   int
}

// NewFailingStorage creates a FailingStorage that accepts writes until told otherwise.
func NewFailingStorage() *FailingStorage {
	return &FailingStorage{Storage: memory.NewStorage()}
}

// SetEncodedObject stores obj unless object writes are failing.
func (s *FailingStorage) SetEncodedObject(obj plumbing.EncodedObject) (plumbing.Hash, error) {
	if s.FailObjects {
		return plumbing.ZeroHash, ErrInjectedWrite
	}
	s.ObjectWrites++
	return s.Storage.SetEncodedObject(obj)
}

// CheckAndSetReference updates a reference unless reference writes are failing.
func (s *FailingStorage) CheckAndSetReference(ref, old *plumbing.Reference) error {
	if s.FailReferences {
		return ErrInjectedWrite
	}
	return s.Storage.CheckAndSetReference(ref, old)
}

// DeleteObject drops an object from the store, simulating a corrupt repository.
func (s *FailingStorage) DeleteObject(hash plumbing.Hash) {
	delete(s.ObjectStorage.Objects, hash)
	delete(s.ObjectStorage.Commits, hash)
	delete(s.ObjectStorage.Trees, hash)
	delete(s.ObjectStorage.Blobs, hash)
}
