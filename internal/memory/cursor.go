package memory

import (
	"fmt"
	"strings"
)

// State is a snapshot of the most recent cursor entry.
type State struct {
	Value string
	Ok    bool
	Depth int
	Key   rune
}

// Pending reports whether the cursor sits inside a code that has not
// resolved to a value yet.
func (s State) Pending() bool {
	return !s.Ok && s.Depth > 0
}

// Cursor tracks the last keystrokes walked through a trie in a fixed-size
// ring. When the ring is full the oldest entry is dropped.
//
// A Cursor is not safe for concurrent use. Use Clone to explore an undo path
// without touching the live cursor.
type Cursor struct {
	root *Node
	ring []*Node
	head int
	size int
}

// NewCursor returns a cursor over root able to track capacity keystrokes.
// A capacity below 1 is treated as 1.
func NewCursor(root *Node, capacity int) *Cursor {
	if capacity < 1 {
		capacity = 1
	}
	if root == nil {
		root = NewRoot()
	}
	return &Cursor{root: root, ring: make([]*Node, capacity)}
}

// Hit enters r and returns the text of the code it completes, if any.
//
// When r does not continue the current code, a boundary is recorded and the
// walk restarts from the root. A character unknown to the trie is recorded as
// a depth-0 node of its own.
func (c *Cursor) Hit(r rune) (string, bool) {
	last := c.last()
	if last == nil {
		last = NewRoot()
	}

	node := last.Goto(r)
	if node == nil {
		c.push(newNode(Root, 0))
		node = c.root.Goto(r)
	}
	if node == nil {
		node = newNode(r, 0)
	}

	c.push(node)
	return node.Take()
}

// Undo drops the last keystroke, skipping over boundaries, and returns the
// text it had produced.
func (c *Cursor) Undo() (string, bool) {
	for {
		node := c.pop()
		if node == nil {
			return "", false
		}
		if node.Key != Root {
			return node.Take()
		}
	}
}

// State returns the most recent entry, or the zero state with the root key
// when nothing has been typed.
func (c *Cursor) State() State {
	node := c.last()
	if node == nil {
		return State{Key: Root}
	}
	value, ok := node.Take()
	return State{Value: value, Ok: ok, Depth: node.Depth, Key: node.Key}
}

// ToSequence returns the key of every entry, oldest first. Boundaries appear
// as Root.
func (c *Cursor) ToSequence() []rune {
	seq := make([]rune, 0, c.size)
	for i := 0; i < c.size; i++ {
		seq = append(seq, c.at(i).Key)
	}
	return seq
}

// Clear forgets every entry. The trie is untouched.
func (c *Cursor) Clear() {
	for i := range c.ring {
		c.ring[i] = nil
	}
	c.head, c.size = 0, 0
}

// IsEmpty reports whether no entry other than boundaries remains.
func (c *Cursor) IsEmpty() bool {
	for i := 0; i < c.size; i++ {
		if c.at(i).Key != Root {
			return false
		}
	}
	return true
}

// Clone returns an independent cursor sharing the same trie.
func (c *Cursor) Clone() *Cursor {
	ring := make([]*Node, len(c.ring))
	copy(ring, c.ring)
	return &Cursor{root: c.root, ring: ring, head: c.head, size: c.size}
}

// Len returns the number of entries currently held.
func (c *Cursor) Len() int { return c.size }

// Cap returns the ring capacity.
func (c *Cursor) Cap() int { return len(c.ring) }

// Root returns the trie the cursor walks.
func (c *Cursor) Root() *Node { return c.root }

func (c *Cursor) String() string {
	parts := make([]string, 0, c.size)
	for _, r := range c.ToSequence() {
		parts = append(parts, fmt.Sprintf("%q", r))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (c *Cursor) at(i int) *Node {
	return c.ring[(c.head+i)%len(c.ring)]
}

func (c *Cursor) last() *Node {
	if c.size == 0 {
		return nil
	}
	return c.at(c.size - 1)
}

func (c *Cursor) push(node *Node) {
	if c.size == len(c.ring) {
		c.ring[c.head] = nil
		c.head = (c.head + 1) % len(c.ring)
		c.size--
	}
	c.ring[(c.head+c.size)%len(c.ring)] = node
	c.size++
}

func (c *Cursor) pop() *Node {
	if c.size == 0 {
		return nil
	}
	idx := (c.head + c.size - 1) % len(c.ring)
	node := c.ring[idx]
	c.ring[idx] = nil
	c.size--
	return node
}
