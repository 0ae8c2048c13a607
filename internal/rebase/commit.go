package rebase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	rebaseerrors "stackit.dev/rebaser/internal/errors"
	"stackit.dev/rebaser/internal/git"
)

// DateMode decides which timestamps are refreshed when a commit is written.
// It changes the encoded content and therefore the commit id. The zero value is not a
// valid mode; callers pick one.
type DateMode int

const (
	// CommitterKeepAuthorKeep keeps both timestamps as authored
	CommitterKeepAuthorKeep DateMode = iota + 1
	// CommitterUpdateAuthorKeep stamps the committer with the current time
	CommitterUpdateAuthorKeep
	// CommitterUpdateAuthorUpdate stamps committer and author with the current time
	CommitterUpdateAuthorUpdate
)

var dateModeNames = map[DateMode]string{
	CommitterKeepAuthorKeep:     "committer-keep-author-keep",
	CommitterUpdateAuthorKeep:   "committer-update-author-keep",
	CommitterUpdateAuthorUpdate: "committer-update-author-update",
}

func (m DateMode) String() string {
	if name, ok := dateModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("DateMode(%d)", int(m))
}

// ParseDateMode parses the String form of a DateMode
func ParseDateMode(s string) (DateMode, error) {
	for mode, name := range dateModeNames {
		if name == s {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown date mode %q", s)
}

// Commit is a commit authored during an edit session
type Commit struct {
	object.Commit
	// EmptyDiff makes the tree follow the first resulting parent when the plan is rebased
	EmptyDiff bool
}

// EmptyCommit returns a commit that introduces no change: it has no parents yet and its
// tree is resolved against its parent at rebase time.
func (e *Editor) EmptyCommit() *Commit {
	sig := e.signature
	sig.When = e.clock()
	message := e.message
	if message != "" && !strings.HasSuffix(message, "\n") {
		message += "\n"
	}
	return &Commit{
		Commit: object.Commit{
			Author:    sig,
			Committer: sig,
			Message:   message,
			TreeHash:  git.EmptyTreeHash,
		},
		EmptyDiff: true,
	}
}

// WriteCommit encodes c into the session buffer and returns its provisional id.
// The repository is not touched; the commit only becomes durable through Materialize.
func (e *Editor) WriteCommit(c *Commit, mode DateMode) (plumbing.Hash, error) {
	if c == nil {
		return plumbing.ZeroHash, rebaseerrors.NewEncodingError("author", "", errors.New("no commit given"))
	}
	if c.TreeHash.IsZero() && !c.EmptyDiff {
		return plumbing.ZeroHash, rebaseerrors.NewEncodingError("author", "", errors.New("commit has no tree"))
	}

	commit := c.Commit
	commit.ParentHashes = append([]plumbing.Hash(nil), c.ParentHashes...)

	now := e.clock()
	switch mode {
	case CommitterKeepAuthorKeep:
	case CommitterUpdateAuthorKeep:
		commit.Committer.When = now
	case CommitterUpdateAuthorUpdate:
		commit.Committer.When = now
		commit.Author.When = now
	default:
		return plumbing.ZeroHash, rebaseerrors.NewEncodingError("author", "", fmt.Errorf("unknown date mode %d", int(mode)))
	}

	id, err := git.EncodeObject(e.buffer, &commit)
	if err != nil {
		return plumbing.ZeroHash, rebaseerrors.NewEncodingError("author", "", err)
	}
	e.authored[id] = c.EmptyDiff
	return id, nil
}
