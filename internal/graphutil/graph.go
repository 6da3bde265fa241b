// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package graphutil

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
)

// LGraph is a labeled directed graph. It assigns a dense int64 identifier to every
// label so that it can be consumed both by Gonum's graph algorithms (it implements
// graph.Directed) and by algorithms expecting an adjacency-style iterator.
type LGraph[T comparable] struct {
	// The order of the graph
	order int

	// Labels maps from node IDs to the label of the node
	Labels map[int64]T

	// Ids maps from labels to node IDs. Inverse of Labels.
	Ids map[T]int64

	// Keys are all the node IDs
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge between Labels[x] and Labels[y]
	Edges map[int64]map[int64]bool
}

// FromEdges builds a graph from a list of directed (from, to) label pairs. Node ids are
// assigned contiguously in first-seen order.
func FromEdges[T comparable](edges [][2]T) LGraph[T] {
	labels := make(map[int64]T)
	ids := make(map[T]int64)
	adjacency := make(map[int64]map[int64]bool)

	intern := func(label T) int64 {
		if id, ok := ids[label]; ok {
			return id
		}
		id := int64(len(ids))
		ids[label] = id
		labels[id] = label
		adjacency[id] = map[int64]bool{}
		return id
	}

	for _, e := range edges {
		from := intern(e[0])
		to := intern(e[1])
		adjacency[from][to] = true
	}

	keys := make([]int64, 0, len(ids))
	for id := range labels {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return LGraph[T]{
		order:  len(keys),
		Labels: labels,
		Ids:    ids,
		Keys:   keys,
		Edges:  adjacency,
	}
}

// Subgraph returns a new graph that is the original graph with only the nodes in include. Only the edges that have
// both the origin and destination nodes in the include nodes are kept in the resulting graph.
// The subgraph's order, Labels and Ids are the same as in the original, meaning that node indices stay consistent
// across subgraphs.
func Subgraph[T comparable](original LGraph[T], include []int64) LGraph[T] {
	in := make(map[int64]bool, len(include))
	edges := make(map[int64]map[int64]bool, len(include))
	keys := make([]int64, len(include))

	for j, i := range include {
		keys[j] = i
		in[i] = true
	}

	for _, i := range include {
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if in[e] {
				edges[i][e] = true
			}
		}
	}

	return LGraph[T]{
		order:  original.Order(),
		Labels: original.Labels,
		Ids:    original.Ids,
		Keys:   keys,
		Edges:  edges,
	}
}

// Order implements the order of the graph.Iterator interface for the LGraph
func (g LGraph[T]) Order() int {
	return g.order
}

// Visit implements the graph.Iterator interface (yourbasic/graph) for the LGraph
func (g LGraph[T]) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if _, ok := g.Labels[int64(v)]; !ok {
		return false
	}
	for w := range g.Edges[int64(v)] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Gonum graph.Directed implementation **********************

// Node implements the Graph interface
func (g LGraph[T]) Node(id int64) graph.Node {
	if label, ok := g.Labels[id]; ok {
		return LNode[T]{id: id, Label: label}
	}
	return nil
}

// Nodes returns the set of nodes in the graph
func (g LGraph[T]) Nodes() graph.Nodes {
	keys := make([]int64, 0, len(g.Labels))
	for k := range g.Labels {
		keys = append(keys, k)
	}
	return &nodeSet[T]{graph: g, ids: keys, cur: -1}
}

// From returns the set of nodes reachable from the id
func (g LGraph[T]) From(id int64) graph.Nodes {
	var keys []int64
	for out := range g.Edges[id] {
		keys = append(keys, out)
	}
	return &nodeSet[T]{graph: g, ids: keys, cur: -1}
}

// To returns the set of nodes with an edge into the id
func (g LGraph[T]) To(id int64) graph.Nodes {
	var keys []int64
	for from, outs := range g.Edges {
		if outs[id] {
			keys = append(keys, from)
		}
	}
	return &nodeSet[T]{graph: g, ids: keys, cur: -1}
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (g LGraph[T]) HasEdgeBetween(xid, yid int64) bool {
	return g.Edges[xid][yid] || g.Edges[yid][xid]
}

// HasEdgeFromTo returns a boolean indicating whether a directed edge exists from xid to yid
func (g LGraph[T]) HasEdgeFromTo(xid, yid int64) bool {
	return g.Edges[xid][yid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (g LGraph[T]) Edge(uid, vid int64) graph.Edge {
	if g.Edges[uid][vid] {
		return lEdge[T]{
			from: LNode[T]{id: uid, Label: g.Labels[uid]},
			to:   LNode[T]{id: vid, Label: g.Labels[vid]},
		}
	}
	return nil
}

// *************** Nodes implementation **********************

// LNode wraps a label with its graph id, implementing the graph.Node interface
type LNode[T comparable] struct {
	id    int64
	Label T
}

// ID returns the id of the node
func (n LNode[T]) ID() int64 {
	return n.id
}

func (n LNode[T]) String() string {
	return fmt.Sprintf("%v", n.Label)
}

// nodeSet implements the graph.Nodes interface, an iterator over a set of nodes
type nodeSet[T comparable] struct {
	graph LGraph[T]
	ids   []int64
	// cur is the index of the current node, -1 before the first call to Next
	cur int
}

// Next moves the iterator to the next node and returns true if one exists.
func (ns *nodeSet[T]) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	return false
}

// Len returns the number of remaining nodes in the set
func (ns *nodeSet[T]) Len() int {
	return len(ns.ids) - ns.cur - 1
}

// Reset rewinds the iterator
func (ns *nodeSet[T]) Reset() {
	ns.cur = -1
}

// Node returns the current node in the set
func (ns *nodeSet[T]) Node() graph.Node {
	id := ns.ids[ns.cur]
	return LNode[T]{id: id, Label: ns.graph.Labels[id]}
}

// *************** Edge implementation **********************

// lEdge implements the graph.Edge interface
type lEdge[T comparable] struct {
	from LNode[T]
	to   LNode[T]
}

// From returns the origin of the edge
func (e lEdge[T]) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e lEdge[T]) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e lEdge[T]) ReversedEdge() graph.Edge {
	return lEdge[T]{from: e.to, to: e.from}
}
