// Package frontend displays the candidates of an input engine.
package frontend

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"glyphkey/internal/translator"
)

// Console prints the input and a page of candidates to a writer.
// Each text of a predicate is listed as its own candidate.
type Console struct {
	mu         sync.Mutex
	w          io.Writer
	pageSize   int
	predicates []translator.Predicate
	current    int
	input      string
	idle       bool
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, pageSize: 10}
}

// SetPageSize sets how many candidates a page shows.
func (c *Console) SetPageSize(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageSize = size
}

// SetIdle reports the engine state.
func (c *Console) SetIdle(idle bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idle = idle
	state := "resumed"
	if idle {
		state = "paused"
	}
	fmt.Fprintf(c.w, "state: %s\n", state)
}

// Idle reports the last state set with SetIdle.
func (c *Console) Idle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idle
}

// SetInput sets the typed sequence shown above the candidates.
func (c *Console) SetInput(input string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = input
}

// AddPredicate appends one candidate per non-empty text of p.
func (c *Console) AddPredicate(p translator.Predicate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, text := range p.Texts {
		if text == "" {
			continue
		}
		single := p
		single.Texts = []string{text}
		c.predicates = append(c.predicates, single)
	}
}

// Update prints the current state.
func (c *Console) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.display()
}

// Clear drops the candidates and the input.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.predicates = c.predicates[:0]
	c.current = 0
	c.input = ""
}

// SelectNext moves the selection forward, wrapping around.
func (c *Console) SelectNext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.predicates) == 0 {
		return
	}
	c.current = (c.current + 1) % len(c.predicates)
	c.display()
}

// SelectPrevious moves the selection backward, wrapping around.
func (c *Console) SelectPrevious() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.predicates) == 0 {
		return
	}
	c.current = (c.current + len(c.predicates) - 1) % len(c.predicates)
	c.display()
}

// Selected returns the selected candidate.
func (c *Console) Selected() (translator.Predicate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current >= len(c.predicates) {
		return translator.Predicate{}, false
	}
	return c.predicates[c.current], true
}

// Len returns the number of candidates.
func (c *Console) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.predicates)
}

// Input returns the typed sequence last set.
func (c *Console) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Page returns the rendered entries of the current page.
func (c *Console) Page() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page()
}

func (c *Console) display() {
	fmt.Fprintf(c.w, "input: %s\n", c.input)
	fmt.Fprintf(c.w, "Predicates: %s\n", strings.Join(c.page(), "\t"))
}

// page renders the candidates from the selection onwards, wrapping to
// the start of the list once.
func (c *Console) page() []string {
	n := len(c.predicates)
	size := min(c.pageSize, n)
	out := make([]string, 0, size)
	for i := 0; i < size; i++ {
		id := (c.current + i) % n
		p := c.predicates[id]
		mark := ""
		if id == c.current {
			mark = "*"
		}
		out = append(out, fmt.Sprintf("%s%d. %s ~%s\t ", mark, id+1, p.Texts[0], p.RemainingCode))
	}
	return out
}
