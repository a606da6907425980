package model

import (
	"encoding/json"
	"iter"
	"sort"
)

// Graph maps each crawled Address to its Node. An address appears at most
// once. A Graph is filled by the crawler and must be treated as read-only
// once the crawl returns it.
type Graph struct {
	nodes map[Address]*Node
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[Address]*Node)}
}

// Add inserts n keyed by its address. It returns false and leaves the graph
// untouched when the address is already present.
func (g *Graph) Add(n *Node) bool {
	if _, ok := g.nodes[n.address]; ok {
		return false
	}
	g.nodes[n.address] = n
	return true
}

// Contains reports whether address is a key of the graph.
func (g *Graph) Contains(address Address) bool {
	_, ok := g.nodes[address]
	return ok
}

// Get returns the node stored for address.
func (g *Graph) Get(address Address) (*Node, bool) {
	n, ok := g.nodes[address]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Addresses returns every key in ascending address order.
func (g *Graph) Addresses() []Address {
	out := make([]Address, 0, len(g.nodes))
	for a := range g.nodes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// All yields (Address, Node) pairs in ascending address order. The sequence
// is finite and may be ranged over any number of times.
func (g *Graph) All() iter.Seq2[Address, *Node] {
	return func(yield func(Address, *Node) bool) {
		for _, a := range g.Addresses() {
			if !yield(a, g.nodes[a]) {
				return
			}
		}
	}
}

// MatchCount returns the total number of distinct matches per node, summed.
func (g *Graph) MatchCount() int {
	total := 0
	for _, n := range g.nodes {
		total += n.MatchCount()
	}
	return total
}

// SerializedNode is the structured form of a Node used for JSON output
// and storage.
type SerializedNode struct {
	Address  string   `json:"address"`
	Matches  []string `json:"matches"`
	Children []string `json:"children"`
}

// Serialize maps each address string to its structured node. The result
// depends only on the graph's contents.
func (g *Graph) Serialize() map[string]SerializedNode {
	out := make(map[string]SerializedNode, len(g.nodes))
	for a, n := range g.nodes {
		children := make([]string, len(n.children))
		for i, c := range n.children {
			children[i] = c.String()
		}
		out[a.String()] = SerializedNode{
			Address:  a.String(),
			Matches:  n.Matches(),
			Children: children,
		}
	}
	return out
}

// MarshalJSON encodes the serialized graph. encoding/json writes map keys in
// sorted order, so the output is byte-stable.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Serialize())
}

// GraphFromSerialized rebuilds a Graph from its structured form, for example
// after loading it from storage.
func GraphFromSerialized(nodes map[string]SerializedNode) (*Graph, error) {
	g := NewGraph()
	for key, sn := range nodes {
		addr, err := ParseAddress(key)
		if err != nil {
			return nil, err
		}
		children := make([]Address, 0, len(sn.Children))
		for _, c := range sn.Children {
			child, err := ParseAddress(c)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		g.Add(NewNode(addr, sn.Matches, children))
	}
	return g, nil
}
