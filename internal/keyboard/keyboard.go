// Package keyboard describes the key events consumed by the preprocessor.
package keyboard

import "fmt"

// KeyState tells whether a key went down or up.
type KeyState int

const (
	Down KeyState = iota
	Up
)

func (s KeyState) String() string {
	if s == Up {
		return "up"
	}
	return "down"
}

// NamedKey identifies a key that does not produce a character.
type NamedKey int

const (
	Unidentified NamedKey = iota
	Alt
	AltGraph
	Backspace
	CapsLock
	Control
	Enter
	Escape
	Tab
	Shift
	Pause
	NumLock
	ScrollLock
	Insert
	Delete
	ArrowLeft
	ArrowRight
	ArrowUp
	ArrowDown
	Home
	End
	PageUp
	PageDown
	Super
)

var namedKeyNames = [...]string{
	Unidentified: "Unidentified",
	Alt:          "Alt",
	AltGraph:     "AltGraph",
	Backspace:    "Backspace",
	CapsLock:     "CapsLock",
	Control:      "Control",
	Enter:        "Enter",
	Escape:       "Escape",
	Tab:          "Tab",
	Shift:        "Shift",
	Pause:        "Pause",
	NumLock:      "NumLock",
	ScrollLock:   "ScrollLock",
	Insert:       "Insert",
	Delete:       "Delete",
	ArrowLeft:    "ArrowLeft",
	ArrowRight:   "ArrowRight",
	ArrowUp:      "ArrowUp",
	ArrowDown:    "ArrowDown",
	Home:         "Home",
	End:          "End",
	PageUp:       "PageUp",
	PageDown:     "PageDown",
	Super:        "Super",
}

func (k NamedKey) String() string {
	if k >= 0 && int(k) < len(namedKeyNames) {
		return namedKeyNames[k]
	}
	return fmt.Sprintf("NamedKey(%d)", int(k))
}

// Key is either a character or a named key. A non-empty Char takes
// precedence over Named.
type Key struct {
	Named NamedKey
	Char  string
}

// Character returns the key producing s.
func Character(s string) Key { return Key{Char: s} }

// Named returns the named key k.
func Named(k NamedKey) Key { return Key{Named: k} }

// IsCharacter reports whether the key produces text.
func (k Key) IsCharacter() bool { return k.Char != "" }

// Is reports whether the key is the named key n.
func (k Key) Is(n NamedKey) bool { return !k.IsCharacter() && k.Named == n }

func (k Key) String() string {
	if k.IsCharacter() {
		return fmt.Sprintf("Character(%q)", k.Char)
	}
	return k.Named.String()
}

// Event is a single key transition.
type Event struct {
	State KeyState
	Key   Key
}

// KeyDown returns a key-down event for k.
func KeyDown(k Key) Event { return Event{State: Down, Key: k} }

// KeyUp returns a key-up event for k.
func KeyUp(k Key) Event { return Event{State: Up, Key: k} }

func (e Event) String() string {
	return e.Key.String() + " " + e.State.String()
}
