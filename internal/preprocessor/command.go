package preprocessor

import "fmt"

// CommandKind is the type of an edit command.
type CommandKind int

const (
	// Pause asks the key listener to ignore the events about to be injected.
	Pause CommandKind = iota
	// Resume re-enables the key listener once a batch has been replayed.
	Resume
	// Delete sends one backspace keystroke.
	Delete
	// CleanDelete accounts for a backspace already delivered to the text field.
	CleanDelete
	// CommitText injects Command.Text.
	CommitText
)

func (k CommandKind) String() string {
	switch k {
	case Pause:
		return "Pause"
	case Resume:
		return "Resume"
	case Delete:
		return "Delete"
	case CleanDelete:
		return "CleanDelete"
	case CommitText:
		return "CommitText"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// Command is one step the host must replay against the focused text field.
type Command struct {
	Kind CommandKind
	Text string
}

// Commit returns a CommitText command for text.
func Commit(text string) Command {
	return Command{Kind: CommitText, Text: text}
}

func (c Command) String() string {
	if c.Kind == CommitText {
		return fmt.Sprintf("CommitText(%q)", c.Text)
	}
	return c.Kind.String()
}
