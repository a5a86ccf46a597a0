// Package tagtree reads and writes the OFX tag tree.
//
// Both the SGML tag soup of OFX 1.x (leaf elements without closing tags) and
// the well-formed XML of OFX 2.x normalize to the same Node shape.
package tagtree

import (
	"strings"
)

// Node is one element of the tag tree. A leaf carries Text and no Children;
// an aggregate carries Children and no Text. Text is kept in its escaped
// wire form.
type Node struct {
	Tag      string
	Text     string
	Children []*Node
}

// Leaf returns a text-bearing node.
func Leaf(tag, text string) *Node {
	return &Node{Tag: tag, Text: text}
}

// Elem returns an aggregate node with the given children.
func Elem(tag string, children ...*Node) *Node {
	return &Node{Tag: tag, Children: children}
}

// IsLeaf reports whether the node carries text.
func (n *Node) IsLeaf() bool {
	return n.Text != ""
}

// Find returns the first direct child with the given tag, or nil.
func (n *Node) Find(tag string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// FindPath follows a slash-separated path of tags from n.
func (n *Node) FindPath(path string) *Node {
	cur := n
	for _, tag := range strings.Split(path, "/") {
		if cur = cur.Find(tag); cur == nil {
			return nil
		}
	}
	return cur
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Tag: n.Tag, Text: n.Text}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Equal reports whether two trees have the same tags, text and shape.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Tag != o.Tag || n.Text != o.Text || len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// Depth returns the number of levels in the tree, counting n.
func (n *Node) Depth() int {
	deepest := 0
	for _, c := range n.Children {
		if d := c.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}
