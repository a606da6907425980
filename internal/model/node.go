package model

import "sort"

// Node is the crawl state of one fetched page: its address, the pattern
// matches found in its body, and the in-scope hyperlink targets it contains.
//
// Identity is the address alone. Two nodes with the same address are equal no
// matter what they matched, which keeps deduplication and lookup cheap.
type Node struct {
	// address is immutable after construction.
	address Address

	// matches is a set; insertion order does not matter.
	matches map[string]struct{}

	// children are kept in document order and may repeat.
	children []Address
}

// NewNode creates a Node. Duplicate matches are collapsed.
func NewNode(address Address, matches []string, children []Address) *Node {
	n := &Node{
		address:  address,
		matches:  make(map[string]struct{}, len(matches)),
		children: make([]Address, len(children)),
	}
	for _, m := range matches {
		n.matches[m] = struct{}{}
	}
	copy(n.children, children)
	return n
}

// Address returns the address the node was fetched for.
func (n *Node) Address() Address {
	return n.address
}

// Matches returns the distinct matches in ascending order.
func (n *Node) Matches() []string {
	out := make([]string, 0, len(n.matches))
	for m := range n.matches {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// MatchCount returns the number of distinct matches.
func (n *Node) MatchCount() int {
	return len(n.matches)
}

// HasMatch reports whether s was matched on the page.
func (n *Node) HasMatch(s string) bool {
	_, ok := n.matches[s]
	return ok
}

// Children returns a copy of the child addresses in document order.
func (n *Node) Children() []Address {
	out := make([]Address, len(n.children))
	copy(out, n.children)
	return out
}

// Equal reports whether both nodes share the same address.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.address == other.address
}
