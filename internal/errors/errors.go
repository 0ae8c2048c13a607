// Package errors provides sentinel errors and custom error types for the rebaser.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrAnchorNotFound indicates that a commit or reference selector did not resolve
	ErrAnchorNotFound = errors.New("anchor not found")

	// ErrEncoding indicates that a commit could not be serialized or identified
	ErrEncoding = errors.New("commit encoding failed")

	// ErrStorageWrite indicates that the object store rejected a write
	ErrStorageWrite = errors.New("storage write failed")

	// ErrReferenceNotFound indicates that a reference name does not exist in the repository
	ErrReferenceNotFound = errors.New("reference not found")
)

// AnchorNotFoundError represents a selector that does not resolve to a step in the plan
type AnchorNotFoundError struct {
	Commit    string
	Reference string
	Err       error
}

func (e *AnchorNotFoundError) Error() string {
	var msg string
	if e.Reference != "" {
		msg = fmt.Sprintf("reference %s does not resolve to a commit in the graph", e.Reference)
	} else {
		msg = fmt.Sprintf("commit %s is not part of the graph", e.Commit)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Is returns true if the target error is ErrAnchorNotFound
func (e *AnchorNotFoundError) Is(target error) bool {
	return target == ErrAnchorNotFound
}

func (e *AnchorNotFoundError) Unwrap() error {
	return e.Err
}

// NewCommitAnchorNotFoundError creates an AnchorNotFoundError for a commit selector
func NewCommitAnchorNotFoundError(commit string) *AnchorNotFoundError {
	return &AnchorNotFoundError{Commit: commit}
}

// NewReferenceAnchorNotFoundError creates an AnchorNotFoundError for a reference selector
func NewReferenceAnchorNotFoundError(reference string, err error) *AnchorNotFoundError {
	return &AnchorNotFoundError{Reference: reference, Err: err}
}

// EncodingError represents a commit that could not be serialized during authoring or rebase
type EncodingError struct {
	Stage  string
	Commit string
	Err    error
}

func (e *EncodingError) Error() string {
	msg := fmt.Sprintf("%s: cannot encode commit", e.Stage)
	if e.Commit != "" {
		msg += " " + e.Commit
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Is returns true if the target error is ErrEncoding
func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// NewEncodingError creates a new EncodingError
func NewEncodingError(stage, commit string, err error) *EncodingError {
	return &EncodingError{
		Stage:  stage,
		Commit: commit,
		Err:    err,
	}
}

// StorageWriteError represents a durable write that the backing store rejected
type StorageWriteError struct {
	Object    string
	Reference string
	Err       error
}

func (e *StorageWriteError) Error() string {
	target := e.Object
	if e.Reference != "" {
		target = "reference " + e.Reference
	} else if target != "" {
		target = "object " + target
	}
	msg := fmt.Sprintf("failed to write %s", target)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Is returns true if the target error is ErrStorageWrite
func (e *StorageWriteError) Is(target error) bool {
	return target == ErrStorageWrite
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

// NewObjectWriteError creates a StorageWriteError for an object write
func NewObjectWriteError(object string, err error) *StorageWriteError {
	return &StorageWriteError{Object: object, Err: err}
}

// NewReferenceWriteError creates a StorageWriteError for a reference update
func NewReferenceWriteError(reference string, err error) *StorageWriteError {
	return &StorageWriteError{Reference: reference, Err: err}
}
