package rebase

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	rebaseerrors "stackit.dev/rebaser/internal/errors"
)

// MaterializeOutput is what Materialize wrote and the identity mapping it produced
type MaterializeOutput struct {
	// CommitMapping maps every existing commit whose identity changed to its new id
	CommitMapping map[plumbing.Hash]plumbing.Hash
	// AuthoredCommits maps provisional ids from Editor.WriteCommit to their final ids
	AuthoredCommits map[plumbing.Hash]plumbing.Hash
	// References are the reference moves now in place
	References []ReferenceUpdate
	// Written lists the objects this call stored; objects already present are skipped
	Written []plumbing.Hash
}

// Materialize writes the staged objects parents first, skipping any the store already
// has, then moves references with compare-and-swap. Calling it again is a no-op.
// A rejected write is returned as a StorageWriteError without retrying.
//
// Every reference is checked before anything is written, so a reference moved by
// someone else fails the call with the repository untouched. A storage failure in the
// middle of the reference updates can still leave the earlier references moved; calling
// Materialize again finishes the job.
func (o *Outcome) Materialize() (*MaterializeOutput, error) {
	if err := o.checkReferences(); err != nil {
		return nil, err
	}

	res := &MaterializeOutput{
		CommitMapping:   copyMapping(o.commitMapping),
		AuthoredCommits: copyMapping(o.authored),
		References:      o.References(),
	}

	for _, id := range o.objects {
		obj, err := o.staging.EncodedObject(plumbing.AnyObject, id)
		if err != nil {
			return nil, rebaseerrors.NewObjectWriteError(id.String(), err)
		}
		written, err := o.repo.WriteObject(obj)
		if err != nil {
			return nil, rebaseerrors.NewObjectWriteError(id.String(), err)
		}
		if written {
			res.Written = append(res.Written, id)
		}
	}

	for _, ref := range o.references {
		if _, err := o.repo.UpdateReference(ref.Name, ref.Old, ref.New); err != nil {
			return nil, rebaseerrors.NewReferenceWriteError(ref.Name.String(), err)
		}
	}

	return res, nil
}

// checkReferences fails when a reference is neither where the rebase found it nor
// where it is going
func (o *Outcome) checkReferences() error {
	for _, ref := range o.references {
		current, err := o.repo.ReferenceTarget(ref.Name)
		if err != nil {
			return rebaseerrors.NewReferenceWriteError(ref.Name.String(), err)
		}
		if current != ref.Old && current != ref.New {
			return rebaseerrors.NewReferenceWriteError(ref.Name.String(),
				fmt.Errorf("reference moved to %s, expected %s", current, ref.Old))
		}
	}
	return nil
}
