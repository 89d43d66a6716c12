// Package dag orders pipeline steps by their dependencies.
// It supports cycle detection, topological sorting and selection of a step
// together with everything downstream of it.
package dag

import (
	"fmt"
	"slices"
)

// Node is a vertex carrying a value.
type Node[T any] struct {
	ID   string
	Data T
}

// Graph is a directed graph where an edge parent -> child means the child
// depends on the parent. Node order is insertion order, which breaks ties in
// every traversal.
type Graph[T any] struct {
	order    []string
	nodes    map[string]*Node[T]
	children map[string][]string
	parents  map[string][]string
}

// NewGraph creates a new empty graph.
func NewGraph[T any]() *Graph[T] {
	return &Graph[T]{
		nodes:    make(map[string]*Node[T]),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode adds a node, or replaces the data of an existing one.
func (g *Graph[T]) AddNode(id string, data T) {
	if n, ok := g.nodes[id]; ok {
		n.Data = data
		return
	}
	g.nodes[id] = &Node[T]{ID: id, Data: data}
	g.order = append(g.order, id)
}

// AddEdge adds a directed edge from parent to child (child depends on parent).
func (g *Graph[T]) AddEdge(parentID, childID string) error {
	if _, ok := g.nodes[parentID]; !ok {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, ok := g.nodes[childID]; !ok {
		return fmt.Errorf("child node %q does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}

	if !slices.Contains(g.children[parentID], childID) {
		g.children[parentID] = append(g.children[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// Node returns a node by ID.
func (g *Graph[T]) Node(id string) (*Node[T], bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Parents returns the direct dependencies of a node.
func (g *Graph[T]) Parents(id string) []string {
	return g.parents[id]
}

// Children returns the direct dependents of a node.
func (g *Graph[T]) Children(id string) []string {
	return g.children[id]
}

// IDs returns every node ID in insertion order.
func (g *Graph[T]) IDs() []string {
	return slices.Clone(g.order)
}

// Len returns the number of nodes.
func (g *Graph[T]) Len() int {
	return len(g.order)
}

// HasCycle reports whether the graph contains a cycle, along with its path.
func (g *Graph[T]) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	from := make(map[string]string)
	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, child := range g.children[id] {
			if !visited[child] {
				from[child] = id
				if dfs(child) {
					return true
				}
			} else if onStack[child] {
				cycle = []string{child}
				for curr := id; curr != child; curr = from[curr] {
					cycle = append([]string{curr}, cycle...)
				}
				cycle = append([]string{child}, cycle...)
				return true
			}
		}

		onStack[id] = false
		return false
	}

	for _, id := range g.order {
		if !visited[id] && dfs(id) {
			return true, cycle
		}
	}
	return false, nil
}

// TopologicalSort returns nodes with dependencies before dependents. Among
// independent nodes, insertion order is kept.
func (g *Graph[T]) TopologicalSort() ([]*Node[T], error) {
	if hasCycle, path := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", path)
	}

	visited := make(map[string]bool)
	result := make([]*Node[T], 0, len(g.order))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, p := range g.parents[id] {
			visit(p)
		}
		result = append(result, g.nodes[id])
	}

	for _, id := range g.order {
		visit(id)
	}
	return result, nil
}

// Downstream returns the given nodes and all of their transitive dependents,
// in insertion order. Unknown IDs are ignored.
func (g *Graph[T]) Downstream(ids []string) []string {
	marked := make(map[string]bool)

	var mark func(id string)
	mark = func(id string) {
		if marked[id] {
			return
		}
		marked[id] = true
		for _, c := range g.children[id] {
			mark(c)
		}
	}
	for _, id := range ids {
		if _, ok := g.nodes[id]; ok {
			mark(id)
		}
	}
	return g.filter(marked)
}

// Upstream returns every transitive dependency of id, in insertion order.
func (g *Graph[T]) Upstream(id string) []string {
	marked := make(map[string]bool)

	var mark func(nodeID string)
	mark = func(nodeID string) {
		for _, p := range g.parents[nodeID] {
			if !marked[p] {
				marked[p] = true
				mark(p)
			}
		}
	}
	mark(id)
	return g.filter(marked)
}

// Roots returns nodes without dependencies.
func (g *Graph[T]) Roots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Subgraph returns a graph holding only the given nodes and the edges between them.
func (g *Graph[T]) Subgraph(ids []string) *Graph[T] {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	sub := NewGraph[T]()
	for _, id := range g.order {
		if keep[id] {
			sub.AddNode(id, g.nodes[id].Data)
		}
	}
	for _, id := range sub.order {
		for _, c := range g.children[id] {
			if keep[c] {
				_ = sub.AddEdge(id, c)
			}
		}
	}
	return sub
}

func (g *Graph[T]) filter(marked map[string]bool) []string {
	var out []string
	for _, id := range g.order {
		if marked[id] {
			out = append(out, id)
		}
	}
	return out
}
