// Package graph holds a directed graph of key references: an edge a -> b
// means some text stored under key a selects key b.
package graph

import (
	"sort"
	"strings"
)

// Node kinds.
const (
	KindValue      = "VALUE"
	KindDefinition = "DEFINITION"
)

// KeyNode is one value or definition key.
type KeyNode struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// RefEdge counts how often the source text refers to the target.
type RefEdge struct {
	Relation string `json:"relation"`
	Weight   int    `json:"weight"`
}

// RefGraph is a directed reference graph.
type RefGraph struct {
	Nodes map[string]*KeyNode `json:"nodes"`

	// SourceID -> TargetID -> Edge
	Outbound map[string]map[string]*RefEdge `json:"outbound"`
	Inbound  map[string]map[string]*RefEdge `json:"inbound"`
}

// NewGraph creates an empty graph
func NewGraph() *RefGraph {
	return &RefGraph{
		Nodes:    make(map[string]*KeyNode),
		Outbound: make(map[string]map[string]*RefEdge),
		Inbound:  make(map[string]map[string]*RefEdge),
	}
}

// EnsureNode adds a node if it doesn't exist, returns existing node otherwise
func (g *RefGraph) EnsureNode(id, kind string) *KeyNode {
	if existing, ok := g.Nodes[id]; ok {
		return existing
	}
	node := &KeyNode{ID: id, Kind: kind}
	g.Nodes[id] = node
	return node
}

// AddRef records one reference from source to target. Repeated references
// raise the edge weight. Both nodes must exist.
func (g *RefGraph) AddRef(sourceID, targetID, relation string) {
	if g.Nodes[sourceID] == nil || g.Nodes[targetID] == nil {
		return
	}
	if edge := g.Outbound[sourceID][targetID]; edge != nil {
		edge.Weight++
		return
	}

	edge := &RefEdge{Relation: strings.ToUpper(relation), Weight: 1}
	if g.Outbound[sourceID] == nil {
		g.Outbound[sourceID] = make(map[string]*RefEdge)
	}
	g.Outbound[sourceID][targetID] = edge

	// Maintain reverse index
	if g.Inbound[targetID] == nil {
		g.Inbound[targetID] = make(map[string]*RefEdge)
	}
	g.Inbound[targetID][sourceID] = edge
}

// GetNode retrieves a node by ID
func (g *RefGraph) GetNode(id string) *KeyNode {
	return g.Nodes[id]
}

// Targets returns, sorted, the keys id refers to.
func (g *RefGraph) Targets(id string) []string {
	return sortedIDs(g.Outbound[id])
}

// Sources returns, sorted, the keys that refer to id.
func (g *RefGraph) Sources(id string) []string {
	return sortedIDs(g.Inbound[id])
}

// NodeCount returns the number of nodes
func (g *RefGraph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of edges
func (g *RefGraph) EdgeCount() int {
	count := 0
	for _, targets := range g.Outbound {
		count += len(targets)
	}
	return count
}

// Orphans returns, sorted, the keys with no edges in either direction.
func (g *RefGraph) Orphans() []string {
	var out []string
	for id := range g.Nodes {
		if len(g.Outbound[id]) == 0 && len(g.Inbound[id]) == 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Cycles returns every group of keys that can reach itself: strongly
// connected components with more than one key, and keys that refer to
// themselves. Each cycle is sorted; the list is sorted by first key.
func (g *RefGraph) Cycles() [][]string {
	t := &tarjan{
		g:     g,
		index: make(map[string]int),
		low:   make(map[string]int),
		on:    make(map[string]bool),
	}
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, seen := t.index[id]; !seen {
			t.visit(id)
		}
	}

	var out [][]string
	for _, comp := range t.comps {
		if len(comp) == 1 && g.Outbound[comp[0]][comp[0]] == nil {
			continue
		}
		sort.Strings(comp)
		out = append(out, comp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

type tarjan struct {
	g     *RefGraph
	next  int
	index map[string]int
	low   map[string]int
	on    map[string]bool
	stack []string
	comps [][]string
}

func (t *tarjan) visit(id string) {
	t.index[id] = t.next
	t.low[id] = t.next
	t.next++
	t.stack = append(t.stack, id)
	t.on[id] = true

	for _, w := range t.g.Targets(id) {
		if _, seen := t.index[w]; !seen {
			t.visit(w)
			t.low[id] = min(t.low[id], t.low[w])
		} else if t.on[w] {
			t.low[id] = min(t.low[id], t.index[w])
		}
	}

	if t.low[id] != t.index[id] {
		return
	}
	var comp []string
	for {
		n := len(t.stack) - 1
		w := t.stack[n]
		t.stack = t.stack[:n]
		t.on[w] = false
		comp = append(comp, w)
		if w == id {
			break
		}
	}
	t.comps = append(t.comps, comp)
}

func sortedIDs(m map[string]*RefEdge) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
