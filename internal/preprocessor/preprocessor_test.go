package preprocessor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glyphkey/internal/keyboard"
	"glyphkey/internal/memory"
)

var (
	pause  = Command{Kind: Pause}
	resume = Command{Kind: Resume}
	del    = Command{Kind: Delete}
	clean  = Command{Kind: CleanDelete}
)

func newPreprocessor(data string, capacity int, inhibit bool) *Preprocessor {
	return New(memory.Build(memory.LoadData(data)), capacity, WithInhibit(inhibit))
}

func typeKeys(p *Preprocessor, s string) {
	for _, ev := range keyboard.SendKeys(s) {
		p.Process(ev)
	}
}

func drain(p *Preprocessor) []Command {
	var out []Command
	for {
		cmd, ok := p.PopQueue()
		if !ok {
			return out
		}
		out = append(out, cmd)
	}
}

func assertCommands(t *testing.T, want []Command, p *Preprocessor) {
	t.Helper()
	if diff := cmp.Diff(want, drain(p)); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name    string
		inhibit bool
		want    []Command
	}{
		{
			name: "default",
			want: []Command{
				// c c
				pause, del, del, Commit("ç"), resume,
				// c e d
				pause, del, del, del, del, Commit("ç"), resume,
			},
		},
		{
			name:    "inhibit",
			inhibit: true,
			want: []Command{
				// c c
				pause, del, resume,
				pause, del, Commit("ç"), resume,
				// c e d
				pause, del, resume,
				pause, del, resume,
				pause, del, del, Commit("ç"), resume,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPreprocessor("ccced ç\ncc ç", 8, tt.inhibit)
			typeKeys(p, "ccced")
			assertCommands(t, tt.want, p)
			assert.Equal(t, "ccced", p.Input())
		})
	}
}

func TestProcessResults(t *testing.T) {
	for _, inhibit := range []bool{false, true} {
		p := newPreprocessor("i3  ī", 8, inhibit)

		changed, committed := p.Process(keyboard.KeyDown(keyboard.Character("s")))
		assert.True(t, changed)
		assert.False(t, committed)

		changed, committed = p.Process(keyboard.KeyDown(keyboard.Character("i")))
		assert.True(t, changed)
		assert.False(t, committed)

		changed, committed = p.Process(keyboard.KeyDown(keyboard.Character("3")))
		assert.True(t, changed)
		assert.True(t, committed)

		assert.Equal(t, "si3", p.Input())

		want := []Command{pause, del, del, Commit("ī"), resume}
		if inhibit {
			want = []Command{
				pause, del, resume,
				pause, del, resume,
				pause, del, Commit("ī"), resume,
			}
		}
		assertCommands(t, want, p)
	}
}

func TestRollback(t *testing.T) {
	backspace := keyboard.KeyDown(keyboard.Named(keyboard.Backspace))

	t.Run("default", func(t *testing.T) {
		p := newPreprocessor("ccced ç\ncc ç", 8, false)
		typeKeys(p, "ccced")
		p.ClearQueue()

		changed, committed := p.Process(backspace)
		assert.True(t, changed)
		assert.True(t, committed)
		assert.Equal(t, "cc", p.Input())

		changed, committed = p.Process(backspace)
		assert.True(t, changed)
		assert.True(t, committed)
		assert.Equal(t, "", p.Input())

		assertCommands(t, []Command{
			pause, clean, Commit("ç"), resume,
			pause, clean, resume,
		}, p)

		// Nothing left to roll back.
		_, committed = p.Process(backspace)
		assert.False(t, committed)
		assertCommands(t, []Command{pause, clean, resume}, p)
	})

	t.Run("inhibit", func(t *testing.T) {
		p := newPreprocessor("ccced ç\ncc ç", 8, true)
		typeKeys(p, "ccced")
		p.ClearQueue()

		changed, committed := p.Process(backspace)
		assert.True(t, changed)
		assert.False(t, committed)
		assert.Equal(t, "", p.Input())
		assert.Empty(t, drain(p))
	})
}

func TestRollbackMultiRuneValue(t *testing.T) {
	p := newPreprocessor("af ɑ\naf1 ɑ̀", 8, false)
	typeKeys(p, "af1")
	p.ClearQueue()

	p.Process(keyboard.KeyDown(keyboard.Named(keyboard.Backspace)))

	// ɑ̀ is two runes: the user's backspace removed one.
	assertCommands(t, []Command{pause, clean, del, Commit("ɑ"), resume}, p)
	assert.Equal(t, "af", p.Input())
}

func TestScenarioSupersede(t *testing.T) {
	p := newPreprocessor("af ɑ\naf1 ɑ̀", 8, false)

	typeKeys(p, "af")
	assertCommands(t, []Command{pause, del, del, Commit("ɑ"), resume}, p)

	changed, committed := p.Process(keyboard.KeyDown(keyboard.Character("1")))
	assert.True(t, changed)
	assert.True(t, committed)
	assertCommands(t, []Command{pause, del, del, Commit("ɑ̀"), resume}, p)
}

func TestCommit(t *testing.T) {
	tests := []struct {
		name    string
		inhibit bool
		want    []Command
	}{
		{"default", false, []Command{pause, del, Commit("word"), resume}},
		{"inhibit", true, []Command{pause, del, resume, pause, clean, Commit("word"), resume}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(memory.NewRoot(), 8, WithInhibit(tt.inhibit))
			p.Process(keyboard.KeyDown(keyboard.Character("a")))
			p.Commit("word")

			assertCommands(t, tt.want, p)
			assert.Equal(t, "", p.Input())
		})
	}
}

func TestCommitErasesRenderedCodes(t *testing.T) {
	p := newPreprocessor("af ɑ\naf1 ɑ̀", 8, false)
	typeKeys(p, "af1")
	p.ClearQueue()

	p.Commit("x")
	got := drain(p)

	assert.Equal(t, []Command{pause, del, del, Commit("ɑ"), del, Commit("x"), resume}, got)
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, []Command{Commit("x"), resume}, got[len(got)-2:])
	assert.Equal(t, "", p.Input())
	assert.True(t, p.Cursor().IsEmpty())
}

func TestCommitOnEmptyCursor(t *testing.T) {
	p := New(memory.NewRoot(), 8)
	p.Commit("hello")
	assertCommands(t, []Command{pause, Commit("hello"), resume}, p)
}

func TestOtherKeys(t *testing.T) {
	p := newPreprocessor("cc ç", 8, false)
	typeKeys(p, "c")

	changed, committed := p.Process(keyboard.KeyDown(keyboard.Named(keyboard.Shift)))
	assert.False(t, changed)
	assert.False(t, committed)
	changed, _ = p.Process(keyboard.KeyDown(keyboard.Named(keyboard.CapsLock)))
	assert.False(t, changed)
	assert.Equal(t, "c", p.Input())

	changed, _ = p.Process(keyboard.KeyUp(keyboard.Character("x")))
	assert.False(t, changed)
	assert.Equal(t, "c", p.Input())

	changed, committed = p.Process(keyboard.KeyDown(keyboard.Named(keyboard.Enter)))
	assert.True(t, changed)
	assert.False(t, committed)
	assert.Equal(t, "", p.Input())

	typeKeys(p, "c")
	changed, _ = p.Process(keyboard.KeyDown(keyboard.Character(" ")))
	assert.True(t, changed)
	assert.Equal(t, "", p.Input())

	// Nothing was produced, so nothing had to be replayed.
	assert.Empty(t, drain(p))
}

func TestPrintable(t *testing.T) {
	for _, s := range []string{"a", "Z", "7", "é", "ŋ", "$", "^", "_", "?", "~"} {
		assert.True(t, printable(s), s)
	}
	for _, s := range []string{"", " ", "\t", "«", "€"} {
		assert.False(t, printable(s), s)
	}
}

func TestInputBoundedByCapacity(t *testing.T) {
	p := newPreprocessor("i3  ī", 4, false)
	typeKeys(p, "si3")
	assert.Equal(t, "si3", p.Input())

	typeKeys(p, "xyz")
	assert.Equal(t, "yz", p.Input())
}

func TestQueue(t *testing.T) {
	p := newPreprocessor("n* ŋ", 8, false)
	p.Commit("hi")
	assert.Len(t, p.Queue(), 3)

	cmd, ok := p.PopQueue()
	require.True(t, ok)
	assert.Equal(t, pause, cmd)
	assert.Len(t, p.Queue(), 2)

	p.ClearQueue()
	_, ok = p.PopQueue()
	assert.False(t, ok)
	assert.Equal(t, `CommitText("hi")`, Commit("hi").String())
	assert.Equal(t, "CleanDelete", clean.String())
}
