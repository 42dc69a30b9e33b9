// Package preprocessor turns key events into the edit commands that replace
// typed codes with their text in the focused field.
//
// The preprocessor never talks to the OS. It drives a memory.Cursor and
// queues commands; the host drains the queue with PopQueue and replays each
// command in order.
package preprocessor

import (
	"unicode"
	"unicode/utf8"

	"glyphkey/internal/keyboard"
	"glyphkey/internal/memory"
)

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithInhibit selects the inhibit variant. In that mode every printable key
// is removed from the field as soon as it is typed, so partial codes never
// show up, and backspace only resets the cursor.
func WithInhibit(inhibit bool) Option {
	return func(p *Preprocessor) { p.inhibit = inhibit }
}

// Preprocessor converts key events into a command queue.
type Preprocessor struct {
	cursor  *memory.Cursor
	queue   []Command
	inhibit bool
}

// New returns a preprocessor walking root with a cursor of the given
// capacity. The capacity should cover the longest code times the number of
// codes that must stay undoable.
func New(root *memory.Node, capacity int, opts ...Option) *Preprocessor {
	p := &Preprocessor{
		cursor: memory.NewCursor(root, capacity),
		queue:  make([]Command, 0, 16),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Inhibit reports whether the inhibit variant is active.
func (p *Preprocessor) Inhibit() bool { return p.inhibit }

// Process handles one key event. changed reports that the cursor moved and
// committed that a value was produced or rolled back.
func (p *Preprocessor) Process(ev keyboard.Event) (changed, committed bool) {
	if ev.State != keyboard.Down {
		return false, false
	}

	switch {
	case ev.Key.Is(keyboard.Backspace):
		if p.inhibit {
			p.cursor.Clear()
		} else {
			p.push(Command{Kind: Pause})
			committed = p.softRollback()
			p.push(Command{Kind: Resume})
		}
		return true, committed

	case ev.Key.IsCharacter() && printable(ev.Key.Char):
		r, _ := utf8.DecodeRuneInString(ev.Key.Char)
		return true, p.hit(r)

	case ev.Key.Is(keyboard.Shift), ev.Key.Is(keyboard.CapsLock):
		return false, false

	default:
		p.cursor.Clear()
		return true, false
	}
}

func (p *Preprocessor) hit(r rune) bool {
	if p.inhibit {
		p.push(Command{Kind: Pause})
		p.push(Command{Kind: Delete})
		defer p.push(Command{Kind: Resume})
	}

	text, ok := p.cursor.Hit(r)
	if !ok {
		return false
	}

	if !p.inhibit {
		p.push(Command{Kind: Pause})
	}

	// Replay the undo on a fork to find what is on screen before this key.
	prev := p.cursor.Clone()
	prev.Undo()
	p.deleteTyped()
	for prev.State().Pending() {
		prev.Undo()
		p.deleteTyped()
	}
	if st := prev.State(); st.Ok {
		p.pushN(Delete, utf8.RuneCountInString(st.Value))
	}

	p.push(Commit(text))
	if !p.inhibit {
		p.push(Command{Kind: Resume})
	}
	return true
}

// deleteTyped erases a typed key, unless inhibit already removed it.
func (p *Preprocessor) deleteTyped() {
	if !p.inhibit {
		p.push(Command{Kind: Delete})
	}
}

// rollback undoes the last keystroke and erases the value it had produced.
// A partial code left dangling is dropped, and the value it interrupted is
// committed again.
func (p *Preprocessor) rollback() bool {
	text, ok := p.cursor.Undo()
	if !ok {
		return false
	}

	consumed := 1
	if p.inhibit {
		consumed = 0
	}
	p.pushN(Delete, utf8.RuneCountInString(text)-consumed)

	for p.cursor.State().Pending() {
		p.cursor.Undo()
	}
	if st := p.cursor.State(); st.Ok {
		p.push(Commit(st.Value))
	}
	return true
}

// hardRollback deletes the last character itself before rolling back.
func (p *Preprocessor) hardRollback() bool {
	p.push(Command{Kind: Delete})
	return p.rollback()
}

// softRollback rolls back after a backspace the field already received.
func (p *Preprocessor) softRollback() bool {
	p.push(Command{Kind: CleanDelete})
	return p.rollback()
}

// Commit replaces whatever the cursor tracks on screen with text and starts
// afresh. It is used when a candidate is accepted explicitly.
func (p *Preprocessor) Commit(text string) {
	p.push(Command{Kind: Pause})
	for !p.cursor.IsEmpty() {
		if p.inhibit {
			p.softRollback()
		} else {
			p.hardRollback()
		}
	}
	p.push(Commit(text))
	p.push(Command{Kind: Resume})
	p.cursor.Clear()
}

// Input returns the keys held by the cursor with boundaries removed. Keys
// evicted from the cursor are missing from it.
func (p *Preprocessor) Input() string {
	seq := p.cursor.ToSequence()
	out := make([]rune, 0, len(seq))
	for _, r := range seq {
		if r != memory.Root {
			out = append(out, r)
		}
	}
	return string(out)
}

// PopQueue removes and returns the oldest queued command.
func (p *Preprocessor) PopQueue() (Command, bool) {
	if len(p.queue) == 0 {
		return Command{}, false
	}
	cmd := p.queue[0]
	p.queue = p.queue[1:]
	return cmd, true
}

// ClearQueue drops every queued command.
func (p *Preprocessor) ClearQueue() {
	p.queue = p.queue[:0]
}

// Queue returns a copy of the pending commands.
func (p *Preprocessor) Queue() []Command {
	out := make([]Command, len(p.queue))
	copy(out, p.queue)
	return out
}

// Cursor exposes the underlying cursor for inspection.
func (p *Preprocessor) Cursor() *memory.Cursor { return p.cursor }

func (p *Preprocessor) push(cmd Command) {
	p.queue = append(p.queue, cmd)
}

func (p *Preprocessor) pushN(kind CommandKind, n int) {
	for i := 0; i < n; i++ {
		p.push(Command{Kind: kind})
	}
}

// printable reports whether s starts with a letter, a digit or ASCII
// punctuation. ASCII punctuation includes characters such as '$' and '^'
// that unicode classifies as symbols.
func printable(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	switch {
	case r == utf8.RuneError:
		return false
	case unicode.IsLetter(r), unicode.IsNumber(r):
		return true
	case r < utf8.RuneSelf:
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}
	return false
}
