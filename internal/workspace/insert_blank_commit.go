// Package workspace provides the history edits exposed to callers.
package workspace

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"stackit.dev/rebaser/internal/git"
	"stackit.dev/rebaser/internal/graph"
	"stackit.dev/rebaser/internal/rebase"
	"stackit.dev/rebaser/internal/tui"
)

// RelativeTo names the anchor of an insertion: a commit or a reference
type RelativeTo struct {
	commit    plumbing.Hash
	reference string
}

// RelativeToCommit anchors on a commit
func RelativeToCommit(id plumbing.Hash) RelativeTo {
	return RelativeTo{commit: id}
}

// RelativeToReference anchors on the commit a reference points at
func RelativeToReference(name string) RelativeTo {
	return RelativeTo{reference: name}
}

func (r RelativeTo) String() string {
	if r.reference != "" {
		return "reference " + r.reference
	}
	return "commit " + r.commit.String()
}

// InsertCommitOutcome describes the result of inserting a blank commit
type InsertCommitOutcome struct {
	// BlankCommitID is the id of the blank commit as written
	BlankCommitID plumbing.Hash
	// CommitMapping maps every existing commit that was rewritten to its new id
	CommitMapping map[plumbing.Hash]plumbing.Hash
	// References are the reference moves that were applied
	References []rebase.ReferenceUpdate
}

// Options controls InsertBlankCommitWithOptions
type Options struct {
	// DateMode must be set; DefaultOptions picks CommitterUpdateAuthorUpdate
	DateMode  rebase.DateMode
	Message   string
	Clock     func() time.Time
	Signature *object.Signature
	// DryRun rebases in memory and reports the outcome without writing anything
	DryRun bool
	Splog  *tui.Splog
}

// DefaultMessage is used when Options.Message is empty
const DefaultMessage = "Blank commit"

// DefaultOptions stamps author and committer with the current time
func DefaultOptions() Options {
	return Options{DateMode: rebase.CommitterUpdateAuthorUpdate, Message: DefaultMessage}
}

// InsertBlankCommit inserts a commit without changes before or after the anchor, rebases
// everything above it and writes the result.
func InsertBlankCommit(g *graph.Graph, repo *git.Repository, side rebase.InsertSide, relativeTo RelativeTo) (*InsertCommitOutcome, error) {
	return InsertBlankCommitWithOptions(g, repo, side, relativeTo, DefaultOptions())
}

// InsertBlankCommitWithOptions is InsertBlankCommit with an explicit date policy and message
func InsertBlankCommitWithOptions(g *graph.Graph, repo *git.Repository, side rebase.InsertSide, relativeTo RelativeTo, opts Options) (*InsertCommitOutcome, error) {
	if opts.DateMode == 0 {
		return nil, errors.New("no date mode given")
	}
	message := opts.Message
	if message == "" {
		message = DefaultMessage
	}
	editor, err := rebase.NewEditor(g, repo, rebase.Options{
		Clock:     opts.Clock,
		Signature: opts.Signature,
		Message:   message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open editor: %w", err)
	}

	var target rebase.Selector
	switch {
	case relativeTo.reference != "":
		target, err = editor.SelectReference(relativeTo.reference)
	case !relativeTo.commit.IsZero():
		target, err = editor.SelectCommit(relativeTo.commit)
	default:
		err = errors.New("no anchor given")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select anchor %s: %w", relativeTo, err)
	}
	debugf(opts.Splog, "Selected %s as anchor", relativeTo)
	if name := target.Reference(); side == rebase.After && name != "" && !rebase.Movable(name) {
		if opts.Splog != nil {
			opts.Splog.Warn("%s does not move; branches on its commit move instead", name.Short())
		}
	}

	blankID, err := editor.WriteCommit(editor.EmptyCommit(), opts.DateMode)
	if err != nil {
		return nil, fmt.Errorf("failed to author blank commit: %w", err)
	}

	editor.Insert(target, rebase.NewPick(blankID), side)
	debugf(opts.Splog, "Inserted blank commit %s %s %s", blankID, side, relativeTo)

	outcome, err := editor.Rebase()
	if err != nil {
		return nil, fmt.Errorf("failed to rebase: %w", err)
	}

	finalID, ok := outcome.AuthoredCommit(blankID)
	if !ok {
		return nil, fmt.Errorf("failed to rebase: blank commit %s was not replayed", blankID)
	}
	debugf(opts.Splog, "Rebased %d commit(s)", len(outcome.CommitMapping()))

	if opts.DryRun {
		return &InsertCommitOutcome{
			BlankCommitID: finalID,
			CommitMapping: outcome.CommitMapping(),
			References:    outcome.References(),
		}, nil
	}

	mat, err := outcome.Materialize()
	if err != nil {
		return nil, fmt.Errorf("failed to materialize: %w", err)
	}
	debugf(opts.Splog, "Wrote %d object(s)", len(mat.Written))

	return &InsertCommitOutcome{
		BlankCommitID: finalID,
		CommitMapping: mat.CommitMapping,
		References:    mat.References,
	}, nil
}

func debugf(splog *tui.Splog, format string, args ...interface{}) {
	if splog != nil {
		splog.Debug(format, args...)
	}
}
