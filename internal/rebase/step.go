package rebase

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
)

// Step is one entry of the plan. The executor switches over every variant.
type Step interface {
	isStep()
}

// Pick replays a commit. The commit is either part of the graph or was written with
// Editor.WriteCommit in the same session.
type Pick struct {
	ID plumbing.Hash
}

func (Pick) isStep() {}

// NewPick creates a step that picks the given commit
func NewPick(id plumbing.Hash) Step {
	return Pick{ID: id}
}

// InsertSide says where a step goes relative to its anchor
type InsertSide int

const (
	// Before makes the new step the parent of the anchor
	Before InsertSide = iota
	// After makes the new step the child of the anchor
	After
)

func (s InsertSide) String() string {
	switch s {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return fmt.Sprintf("InsertSide(%d)", int(s))
	}
}

// ParseInsertSide parses "before" or "after"
func ParseInsertSide(s string) (InsertSide, error) {
	switch s {
	case "before":
		return Before, nil
	case "after":
		return After, nil
	default:
		return 0, fmt.Errorf("unknown insert side %q (want before or after)", s)
	}
}

// Selector points at a step of one editor session.
// It is only valid for the Editor that produced it.
type Selector struct {
	session uint64
	index   int
	ref     plumbing.ReferenceName
}

// Reference returns the reference name the selector was resolved from, if any
func (s Selector) Reference() plumbing.ReferenceName {
	return s.ref
}
