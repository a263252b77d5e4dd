// Package store is a hierarchical, named-field serialization tree with a
// human-readable text encoding.
//
// Every node has an optional name, an optional text payload and an ordered
// list of children. Named children are found by scanning siblings; unnamed
// children form lists that are read back with a cursor. Callers must not mix
// named and unnamed loads on the same parent.
package store

// Node is one element of a store tree. The root returned by Open is unnamed.
type Node struct {
	name       string
	payload    string
	hasPayload bool
	children   []*Node
	cursor     int
}

// Open returns an empty root node.
func Open() *Node {
	return &Node{}
}

// Close drops the subtree. The node is empty afterwards.
func (n *Node) Close() {
	for _, c := range n.children {
		c.Close()
	}
	*n = Node{}
}

// Name returns the node's name, or "" for unnamed nodes.
func (n *Node) Name() string { return n.name }

// Payload returns the node's own text and whether it has any.
func (n *Node) Payload() (string, bool) { return n.payload, n.hasPayload }

// SetPayload replaces the node's own text.
func (n *Node) SetPayload(s string) {
	n.payload = s
	n.hasPayload = true
}

// Children returns the child list. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

func (n *Node) ChildCount() int { return len(n.children) }

// ChildSave appends a new child. An empty name creates an unnamed child, used
// for repeated list elements.
func (n *Node) ChildSave(name string) *Node {
	c := &Node{name: name}
	n.children = append(n.children, c)
	return c
}

// ChildLoad finds a child. A non-empty name returns the first child with that
// name. An empty name returns the child under the cursor and advances it, so
// successive calls walk the whole child list.
func (n *Node) ChildLoad(name string) (*Node, bool) {
	if name == "" {
		if n.cursor >= len(n.children) {
			return nil, false
		}
		c := n.children[n.cursor]
		n.cursor++
		return c, true
	}
	for _, c := range n.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Reset rewinds the unnamed-load cursor.
func (n *Node) Reset() { n.cursor = 0 }
