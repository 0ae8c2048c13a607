// Package graph builds an immutable, in-memory slice of a repository's commit history.
//
// A Graph holds commits as nodes, child→parent edges, and the references bound to each
// node. Parents that fall outside the walked slice are kept on the node as boundary
// parents: they are valid commits in the store but are not nodes of the graph.
package graph

import (
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
)

// Node is a commit in the graph
type Node struct {
	ID      plumbing.Hash
	Parents []plumbing.Hash
	Tree    plumbing.Hash
	Message string
	Refs    []plumbing.ReferenceName
}

// Graph is a read-only commit history slice.
// Safe for concurrent use; nothing mutates a Graph after construction.
type Graph struct {
	nodes    map[plumbing.Hash]*Node
	order    []plumbing.Hash
	children map[plumbing.Hash][]plumbing.Hash
	refs     map[plumbing.ReferenceName]plumbing.Hash
}

// New assembles a graph from nodes and the references bound to them.
// It fails on self loops, duplicate nodes, references to unknown nodes, and cycles.
func New(nodes []Node, refs map[plumbing.ReferenceName]plumbing.Hash) (*Graph, error) {
	g := &Graph{
		nodes:    make(map[plumbing.Hash]*Node, len(nodes)),
		children: make(map[plumbing.Hash][]plumbing.Hash),
		refs:     make(map[plumbing.ReferenceName]plumbing.Hash, len(refs)),
	}

	for i := range nodes {
		n := nodes[i]
		if _, ok := g.nodes[n.ID]; ok {
			return nil, fmt.Errorf("duplicate node %s", n.ID)
		}
		n.Parents = append([]plumbing.Hash(nil), n.Parents...)
		n.Refs = nil
		g.nodes[n.ID] = &n
	}

	for _, n := range g.nodes {
		for _, p := range n.Parents {
			if p == n.ID {
				return nil, fmt.Errorf("node %s lists itself as a parent", n.ID)
			}
			if _, ok := g.nodes[p]; ok && !containsHash(g.children[p], n.ID) {
				g.children[p] = append(g.children[p], n.ID)
			}
		}
	}
	for id := range g.children {
		sortHashes(g.children[id])
	}

	names := make([]plumbing.ReferenceName, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	for _, name := range names {
		target := refs[name]
		n, ok := g.nodes[target]
		if !ok {
			return nil, fmt.Errorf("reference %s points at %s which is not part of the graph", name, target)
		}
		n.Refs = append(n.Refs, name)
		g.refs[name] = target
	}

	order, err := g.topoOrder()
	if err != nil {
		return nil, err
	}
	g.order = order
	return g, nil
}

// topoOrder returns node ids parent-first. Ties are broken by id so the order is stable.
func (g *Graph) topoOrder() ([]plumbing.Hash, error) {
	pending := make(map[plumbing.Hash]int, len(g.nodes))
	var ready []plumbing.Hash
	for id, n := range g.nodes {
		for _, p := range n.Parents {
			if _, ok := g.nodes[p]; ok {
				pending[id]++
			}
		}
		if pending[id] == 0 {
			ready = append(ready, id)
		}
	}
	sortHashes(ready)

	order := make([]plumbing.Hash, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var next []plumbing.Hash
		for _, child := range g.children[id] {
			// A merge may list the same parent twice
			for _, p := range g.nodes[child].Parents {
				if p == id {
					pending[child]--
				}
			}
			if pending[child] == 0 {
				next = append(next, child)
			}
		}
		ready = append(ready, next...)
		sortHashes(ready)
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("commit graph contains a cycle")
	}
	return order, nil
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns the node for id
func (g *Graph) Node(id plumbing.Hash) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return copyNode(n), true
}

// Contains reports whether id is a node of the graph
func (g *Graph) Contains(id plumbing.Hash) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns every node, parents before children
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, copyNode(g.nodes[id]))
	}
	return nodes
}

// Children returns the ids of the nodes that list id as a parent
func (g *Graph) Children(id plumbing.Hash) []plumbing.Hash {
	return append([]plumbing.Hash(nil), g.children[id]...)
}

// Reference returns the node a reference bound in the graph points at
func (g *Graph) Reference(name plumbing.ReferenceName) (plumbing.Hash, bool) {
	id, ok := g.refs[name]
	return id, ok
}

// References returns every reference bound in the graph
func (g *Graph) References() map[plumbing.ReferenceName]plumbing.Hash {
	refs := make(map[plumbing.ReferenceName]plumbing.Hash, len(g.refs))
	for name, id := range g.refs {
		refs[name] = id
	}
	return refs
}

// Descendants returns every node reachable from id by following child edges, excluding id
func (g *Graph) Descendants(id plumbing.Hash) []plumbing.Hash {
	seen := map[plumbing.Hash]bool{}
	queue := append([]plumbing.Hash(nil), g.children[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		queue = append(queue, g.children[cur]...)
	}

	out := make([]plumbing.Hash, 0, len(seen))
	for _, n := range g.order {
		if seen[n] {
			out = append(out, n)
		}
	}
	return out
}

func copyNode(n *Node) Node {
	c := *n
	c.Parents = append([]plumbing.Hash(nil), n.Parents...)
	c.Refs = append([]plumbing.ReferenceName(nil), n.Refs...)
	return c
}

func sortHashes(hashes []plumbing.Hash) {
	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i].String() < hashes[j].String()
	})
}

func containsHash(hashes []plumbing.Hash, h plumbing.Hash) bool {
	for _, x := range hashes {
		if x == h {
			return true
		}
	}
	return false
}
