package rebase

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	rebaseerrors "stackit.dev/rebaser/internal/errors"
	"stackit.dev/rebaser/internal/git"
	"stackit.dev/rebaser/internal/graph"
)

// sessions hands out editor session ids; selectors carry them as a generation tag
var sessions atomic.Uint64

// edge is a parent link. slot is -1 when the parent lies outside the plan, in which
// case id is the fixed parent commit.
type edge struct {
	slot int
	id   plumbing.Hash
}

// slot is one arena entry of the plan
type slot struct {
	step    Step
	parents []edge
	refs    []plumbing.ReferenceName
}

// Options configures an Editor
type Options struct {
	// Clock stamps authored commits. Defaults to time.Now.
	Clock func() time.Time
	// Signature overrides the identity authored commits are written with.
	// Defaults to the repository's configured user.
	Signature *object.Signature
	// Message is the message of commits created with EmptyCommit.
	Message string
}

// Editor is a single edit session over a graph
type Editor struct {
	session    uint64
	repo       *git.Repository
	slots      []slot
	refTargets map[plumbing.ReferenceName]plumbing.Hash
	buffer     *memory.Storage
	authored   map[plumbing.Hash]bool
	clock      func() time.Time
	signature  object.Signature
	message    string
}

// NewEditor opens an edit session over g, backed by repo.
// The graph is only read; the plan starts with one pick per node.
func NewEditor(g *graph.Graph, repo *git.Repository, opts Options) (*Editor, error) {
	if g == nil {
		return nil, errors.New("no graph given")
	}
	if repo == nil {
		return nil, errors.New("no repository given")
	}

	e := &Editor{
		session:    sessions.Add(1),
		repo:       repo,
		refTargets: g.References(),
		buffer:     memory.NewStorage(),
		authored:   make(map[plumbing.Hash]bool),
		clock:      opts.Clock,
		message:    opts.Message,
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if opts.Signature != nil {
		e.signature = *opts.Signature
	} else {
		e.signature = repo.Signature()
	}
	for name := range e.refTargets {
		if !Movable(name) {
			delete(e.refTargets, name)
		}
	}

	nodes := g.Nodes()
	index := make(map[plumbing.Hash]int, len(nodes))
	e.slots = make([]slot, 0, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
		s := slot{step: NewPick(n.ID)}
		for _, name := range n.Refs {
			if Movable(name) {
				s.refs = append(s.refs, name)
			}
		}
		for _, p := range n.Parents {
			if pi, ok := index[p]; ok {
				s.parents = append(s.parents, edge{slot: pi})
			} else {
				s.parents = append(s.parents, edge{slot: -1, id: p})
			}
		}
		e.slots = append(e.slots, s)
	}

	return e, nil
}

// Movable reports whether a rebase carries the reference along with its commit.
// Branches and a detached HEAD move; tags and other namespaces stay where they are.
func Movable(name plumbing.ReferenceName) bool {
	return name.IsBranch() || name == plumbing.HEAD
}

// SelectCommit returns a selector for the step that picks id in the current plan
func (e *Editor) SelectCommit(id plumbing.Hash) (Selector, error) {
	if i, ok := e.findPick(id); ok {
		return Selector{session: e.session, index: i}, nil
	}
	return Selector{}, rebaseerrors.NewCommitAnchorNotFoundError(id.String())
}

// SelectReference returns a selector for the step the named reference points at.
// A reference already moved by an earlier Insert resolves to its new step.
func (e *Editor) SelectReference(name string) (Selector, error) {
	ref, err := e.repo.ResolveReference(name)
	if err != nil {
		return Selector{}, rebaseerrors.NewReferenceAnchorNotFoundError(name, err)
	}

	if i, ok := e.findRef(ref.Name()); ok {
		return Selector{session: e.session, index: i, ref: ref.Name()}, nil
	}
	if i, ok := e.findPick(ref.Hash()); ok {
		return Selector{session: e.session, index: i, ref: ref.Name()}, nil
	}
	return Selector{}, rebaseerrors.NewReferenceAnchorNotFoundError(name, nil)
}

// Insert splices step into the plan next to target and returns a selector for it.
//
// After: the new step's only parent is target, and every step that had target as a
// parent is re-pointed at the new step. When target was resolved from a branch, that
// branch moves to the new step; otherwise every branch bound to target moves, so the
// new step is never left unreachable.
// Before: the new step takes target's parents and becomes target's only parent.
//
// Insert panics when target belongs to another session.
func (e *Editor) Insert(target Selector, step Step, side InsertSide) Selector {
	e.mustOwn(target)
	if step == nil {
		panic("rebase: Insert called with a nil step")
	}

	movable := target.ref != "" && Movable(target.ref)
	if movable {
		if _, ok := e.findRef(target.ref); !ok {
			e.bindRef(target.ref, target.index, e.repoRefTarget(target))
		}
	}

	idx := len(e.slots)
	switch side {
	case After:
		for i := range e.slots {
			for j, p := range e.slots[i].parents {
				if p.slot == target.index {
					e.slots[i].parents[j] = edge{slot: idx}
				}
			}
		}
		e.slots = append(e.slots, slot{step: step, parents: []edge{{slot: target.index}}})
		if movable {
			e.moveRef(target.ref, idx)
		} else {
			e.slots[idx].refs = e.slots[target.index].refs
			e.slots[target.index].refs = nil
		}
	case Before:
		parents := e.slots[target.index].parents
		e.slots = append(e.slots, slot{step: step, parents: parents})
		e.slots[target.index].parents = []edge{{slot: idx}}
	default:
		panic(fmt.Sprintf("rebase: unknown insert side %d", int(side)))
	}

	return Selector{session: e.session, index: idx}
}

// Steps returns the plan's steps, parents before children
func (e *Editor) Steps() ([]Step, error) {
	order, err := e.order()
	if err != nil {
		return nil, err
	}
	steps := make([]Step, 0, len(order))
	for _, i := range order {
		steps = append(steps, e.slots[i].step)
	}
	return steps, nil
}

// mustOwn panics unless sel was produced by this session and is in range
func (e *Editor) mustOwn(sel Selector) {
	if sel.session != e.session {
		panic(fmt.Sprintf("rebase: selector from session %d used with session %d", sel.session, e.session))
	}
	if sel.index < 0 || sel.index >= len(e.slots) {
		panic(fmt.Sprintf("rebase: selector index %d out of range", sel.index))
	}
}

func (e *Editor) findPick(id plumbing.Hash) (int, bool) {
	for i, s := range e.slots {
		if pick, ok := s.step.(Pick); ok && pick.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (e *Editor) findRef(name plumbing.ReferenceName) (int, bool) {
	for i, s := range e.slots {
		for _, r := range s.refs {
			if r == name {
				return i, true
			}
		}
	}
	return 0, false
}

// repoRefTarget returns the commit the selector's reference pointed at when it was resolved
func (e *Editor) repoRefTarget(sel Selector) plumbing.Hash {
	if pick, ok := e.slots[sel.index].step.(Pick); ok {
		return pick.ID
	}
	return plumbing.ZeroHash
}

func (e *Editor) bindRef(name plumbing.ReferenceName, idx int, target plumbing.Hash) {
	e.slots[idx].refs = append(e.slots[idx].refs, name)
	if _, ok := e.refTargets[name]; !ok {
		e.refTargets[name] = target
	}
}

func (e *Editor) moveRef(name plumbing.ReferenceName, idx int) {
	for i := range e.slots {
		refs := e.slots[i].refs[:0:0]
		for _, r := range e.slots[i].refs {
			if r != name {
				refs = append(refs, r)
			}
		}
		e.slots[i].refs = refs
	}
	e.slots[idx].refs = append(e.slots[idx].refs, name)
}
