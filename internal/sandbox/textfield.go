package sandbox

import (
	"sync"

	"glyphkey/internal/preprocessor"
)

// TextField is an in-memory text field. Typed keys are applied by the
// field itself, like a real host would, before the engine sees them.
type TextField struct {
	mu   sync.Mutex
	text []rune
}

// Inject applies an engine command. Pause, Resume and CleanDelete have no
// effect on the text.
func (f *TextField) Inject(cmd preprocessor.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch cmd.Kind {
	case preprocessor.Delete:
		f.deleteLast()
	case preprocessor.CommitText:
		f.text = append(f.text, []rune(cmd.Text)...)
	}
	return nil
}

// Type appends the runes of s.
func (f *TextField) Type(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = append(f.text, []rune(s)...)
}

// Backspace removes the last rune.
func (f *TextField) Backspace() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteLast()
}

func (f *TextField) deleteLast() {
	if len(f.text) > 0 {
		f.text = f.text[:len(f.text)-1]
	}
}

// Reset empties the field.
func (f *TextField) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = f.text[:0]
}

func (f *TextField) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.text)
}
