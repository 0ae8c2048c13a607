package rebase

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	rebaseerrors "stackit.dev/rebaser/internal/errors"
	"stackit.dev/rebaser/internal/git"
)

// ReferenceUpdate moves a reference from Old to New
type ReferenceUpdate struct {
	Name plumbing.ReferenceName
	Old  plumbing.Hash
	New  plumbing.Hash
}

// Outcome is an executed plan whose objects are staged in memory but not yet written
type Outcome struct {
	repo          *git.Repository
	staging       *memory.Storage
	objects       []plumbing.Hash
	commitMapping map[plumbing.Hash]plumbing.Hash
	authored      map[plumbing.Hash]plumbing.Hash
	references    []ReferenceUpdate
}

// CommitMapping returns original id → rewritten id for every existing commit whose identity changed
func (o *Outcome) CommitMapping() map[plumbing.Hash]plumbing.Hash {
	return copyMapping(o.commitMapping)
}

// AuthoredCommit returns the final id of a commit written with Editor.WriteCommit
func (o *Outcome) AuthoredCommit(provisional plumbing.Hash) (plumbing.Hash, bool) {
	id, ok := o.authored[provisional]
	return id, ok
}

// References returns the reference moves Materialize will apply
func (o *Outcome) References() []ReferenceUpdate {
	return append([]ReferenceUpdate(nil), o.references...)
}

// Objects returns the staged object ids in write order
func (o *Outcome) Objects() []plumbing.Hash {
	return append([]plumbing.Hash(nil), o.objects...)
}

// Rebase replays the plan parents first. A step is re-encoded when its parents differ
// from the commit's recorded parents or when it was authored in this session; its
// signature is dropped and every other field is kept. All new objects go to a staging store, so a failure leaves the
// repository untouched and no partial outcome is returned.
func (e *Editor) Rebase() (*Outcome, error) {
	order, err := e.order()
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		repo:          e.repo,
		staging:       memory.NewStorage(),
		commitMapping: make(map[plumbing.Hash]plumbing.Hash),
		authored:      make(map[plumbing.Hash]plumbing.Hash),
	}
	staged := make(map[plumbing.Hash]bool)
	newIDs := make([]plumbing.Hash, len(e.slots))

	for _, i := range order {
		s := e.slots[i]
		parents := make([]plumbing.Hash, len(s.parents))
		for j, p := range s.parents {
			if p.slot >= 0 {
				parents[j] = newIDs[p.slot]
			} else {
				parents[j] = p.id
			}
		}

		switch step := s.step.(type) {
		case Pick:
			id, err := e.replayPick(step, parents, out, staged)
			if err != nil {
				return nil, err
			}
			newIDs[i] = id
		default:
			panic(fmt.Sprintf("rebase: unknown step type %T", step))
		}
	}

	for i, s := range e.slots {
		for _, name := range s.refs {
			if old := e.refTargets[name]; old != newIDs[i] {
				out.references = append(out.references, ReferenceUpdate{Name: name, Old: old, New: newIDs[i]})
			}
		}
	}
	sort.Slice(out.references, func(i, j int) bool {
		return out.references[i].Name < out.references[j].Name
	})

	return out, nil
}

// replayPick returns the id the picked commit has once placed on parents
func (e *Editor) replayPick(step Pick, parents []plumbing.Hash, out *Outcome, staged map[plumbing.Hash]bool) (plumbing.Hash, error) {
	original, emptyDiff, authored, err := e.loadCommit(step.ID)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if !authored && equalHashes(parents, original.ParentHashes) {
		return step.ID, nil
	}

	rewritten := *original
	rewritten.ParentHashes = parents
	// The signature covers the parent lines
	rewritten.PGPSignature = ""
	if emptyDiff {
		tree, err := e.firstParentTree(parents, out, staged)
		if err != nil {
			return plumbing.ZeroHash, rebaseerrors.NewEncodingError("rebase", step.ID.String(), err)
		}
		rewritten.TreeHash = tree
	}

	id, err := git.EncodeObject(out.staging, &rewritten)
	if err != nil {
		return plumbing.ZeroHash, rebaseerrors.NewEncodingError("rebase", step.ID.String(), err)
	}
	if !staged[id] {
		staged[id] = true
		out.objects = append(out.objects, id)
	}

	if authored {
		out.authored[step.ID] = id
	} else if id != step.ID {
		out.commitMapping[step.ID] = id
	}
	return id, nil
}

// loadCommit finds a commit in the session buffer or the repository
func (e *Editor) loadCommit(id plumbing.Hash) (commit *object.Commit, emptyDiff bool, authored bool, err error) {
	if emptyDiff, ok := e.authored[id]; ok {
		commit, err := object.GetCommit(e.buffer, id)
		if err != nil {
			return nil, false, false, rebaseerrors.NewEncodingError("rebase", id.String(), err)
		}
		return commit, emptyDiff, true, nil
	}

	commit, err = e.repo.ReadCommit(id)
	if err != nil {
		return nil, false, false, rebaseerrors.NewEncodingError("rebase", id.String(), err)
	}
	return commit, false, false, nil
}

// firstParentTree returns the tree an empty-diff commit must carry. Root commits get
// the empty tree, which is staged when the repository lacks it.
func (e *Editor) firstParentTree(parents []plumbing.Hash, out *Outcome, staged map[plumbing.Hash]bool) (plumbing.Hash, error) {
	if len(parents) == 0 {
		if !e.repo.HasObject(git.EmptyTreeHash) && !staged[git.EmptyTreeHash] {
			if _, err := git.EncodeObject(out.staging, &object.Tree{}); err != nil {
				return plumbing.ZeroHash, err
			}
			staged[git.EmptyTreeHash] = true
			out.objects = append(out.objects, git.EmptyTreeHash)
		}
		return git.EmptyTreeHash, nil
	}

	if staged[parents[0]] {
		parent, err := object.GetCommit(out.staging, parents[0])
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return parent.TreeHash, nil
	}

	parent, err := e.repo.ReadCommit(parents[0])
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("parent tree unavailable: %w", err)
	}
	return parent.TreeHash, nil
}

// order returns slot indexes parents first, ties broken by arena index
func (e *Editor) order() ([]int, error) {
	pending := make([]int, len(e.slots))
	children := make([][]int, len(e.slots))
	for i, s := range e.slots {
		for _, p := range s.parents {
			if p.slot >= 0 {
				pending[i]++
				children[p.slot] = append(children[p.slot], i)
			}
		}
	}

	var ready []int
	for i, n := range pending {
		if n == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, len(e.slots))
	for len(ready) > 0 {
		sort.Ints(ready)
		i := ready[0]
		ready = ready[1:]
		order = append(order, i)
		for _, c := range children[i] {
			pending[c]--
			if pending[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	if len(order) != len(e.slots) {
		return nil, rebaseerrors.NewEncodingError("rebase", "", errors.New("plan contains a cycle"))
	}
	return order, nil
}

func equalHashes(a, b []plumbing.Hash) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func copyMapping(m map[plumbing.Hash]plumbing.Hash) map[plumbing.Hash]plumbing.Hash {
	out := make(map[plumbing.Hash]plumbing.Hash, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
