// Package memory holds the sequence trie that maps typed codes to output
// text, and the bounded cursor that walks it one keystroke at a time.
//
// A trie is built once from configuration and never mutated afterwards, so
// any number of cursors may traverse the same root concurrently without
// locking.
package memory

// Root is the key carried by the root node and by boundary markers.
const Root rune = 0

// Node is one character position in one or more codes.
type Node struct {
	children map[rune]*Node
	value    string
	hasValue bool

	// Depth is the distance from the root. Boundary and unknown nodes have depth 0.
	Depth int
	// Key is the character this node represents.
	Key rune
}

// Pair is a code and the text it resolves to.
type Pair struct {
	Code string
	Text string
}

// NewRoot returns an empty trie root.
func NewRoot() *Node {
	return newNode(Root, 0)
}

func newNode(key rune, depth int) *Node {
	return &Node{Key: key, Depth: depth}
}

// Build constructs a trie from pairs. A code inserted twice keeps the last text.
func Build(pairs []Pair) *Node {
	root := NewRoot()
	for _, p := range pairs {
		root.insert(p.Code, p.Text)
	}
	return root
}

func (n *Node) insert(code, text string) {
	cur := n
	for _, r := range code {
		next, ok := cur.children[r]
		if !ok {
			if cur.children == nil {
				cur.children = make(map[rune]*Node)
			}
			next = newNode(r, cur.Depth+1)
			cur.children[r] = next
		}
		cur = next
	}
	cur.value = text
	cur.hasValue = true
}

// Goto returns the child reached through r, or nil.
func (n *Node) Goto(r rune) *Node {
	if n == nil {
		return nil
	}
	return n.children[r]
}

// Take returns the text stored on n, if n terminates a code.
func (n *Node) Take() (string, bool) {
	if n == nil {
		return "", false
	}
	return n.value, n.hasValue
}

// IsRoot reports whether n sits at the initial depth.
func (n *Node) IsRoot() bool {
	return n.Depth == 0
}

// Lookup walks code from n and returns the node it ends on, or nil.
func (n *Node) Lookup(code string) *Node {
	cur := n
	for _, r := range code {
		cur = cur.Goto(r)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Len returns the number of codes stored below n, n included.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	count := 0
	if n.hasValue {
		count++
	}
	for _, child := range n.children {
		count += child.Len()
	}
	return count
}
