// Package hierarchy builds and flattens the nested rollup trees behind
// financial statements. The builder is agnostic to what the levels mean:
// any caller that can produce (amount, ancestor-chain) entries gets
// rollup and row emission from it.
package hierarchy

import "github.com/shopspring/decimal"

// Level tags the depth of a node so that levels cannot be mixed.
type Level int

// Chart-of-accounts depths. Generic trees simply use the raw depth.
const (
	LevelSection    Level = 0
	LevelElement    Level = 1
	LevelSubElement Level = 2
	LevelDetailed   Level = 3
)

// Node is one rollup node. Amount equals the sum of every leaf amount
// beneath it once the tree is complete. Children keep first-insertion
// order; iteration order is the render order.
type Node struct {
	Label  string
	Level  Level
	Amount decimal.Decimal

	leaf     bool
	children []*Node
	index    map[string]int
}

func newNode(label string, level Level) *Node {
	return &Node{Label: label, Level: level, index: make(map[string]int)}
}

// Children returns child nodes in first-insertion order.
func (n *Node) Children() []*Node {
	return n.children
}

// Child looks up a child by label.
func (n *Node) Child(label string) (*Node, bool) {
	i, ok := n.index[label]
	if !ok {
		return nil, false
	}
	return n.children[i], true
}

// Leaf reports whether account amounts were folded directly into this
// node. Leaf nodes render as a single amount row instead of a header
// and subtotal pair.
func (n *Node) Leaf() bool {
	return n.leaf
}

// child returns the existing child with the given label or appends a
// new one, preserving encounter order.
func (n *Node) child(label string) *Node {
	if existing, ok := n.Child(label); ok {
		return existing
	}
	c := newNode(label, n.Level+1)
	n.index[label] = len(n.children)
	n.children = append(n.children, c)
	return c
}
