package frontend

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glyphkey/internal/translator"
)

func TestConsole(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out)

	c.SetPageSize(10)
	c.SetInput("he")
	c.AddPredicate(translator.Predicate{Code: "hell", RemainingCode: "llo", Texts: []string{"hello"}})
	c.AddPredicate(translator.Predicate{Code: "helip", RemainingCode: "lip"})
	c.AddPredicate(translator.Predicate{Code: "helio", RemainingCode: "s", Texts: []string{""}})
	c.AddPredicate(translator.Predicate{Code: "heal", RemainingCode: "al", Texts: []string{"health"}})
	c.Update()

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "input: he\nPredicates: *1. hello ~llo\t \t2. health ~al\t \n", out.String())

	c.SelectPrevious()
	p, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, translator.Predicate{Code: "heal", RemainingCode: "al", Texts: []string{"health"}}, p)

	c.SelectNext()
	p, ok = c.Selected()
	require.True(t, ok)
	assert.Equal(t, translator.Predicate{Code: "hell", RemainingCode: "llo", Texts: []string{"hello"}}, p)

	c.Clear()
	c.SelectPrevious()
	c.SelectNext()
	_, ok = c.Selected()
	assert.False(t, ok)
	assert.Empty(t, c.Input())
}

func TestConsoleSplitsTexts(t *testing.T) {
	c := NewConsole(&bytes.Buffer{})
	c.AddPredicate(translator.Predicate{Code: "halo", Texts: []string{"hello", "", "hi"}})

	require.Equal(t, 2, c.Len())
	c.SelectNext()
	p, _ := c.Selected()
	assert.Equal(t, []string{"hi"}, p.Texts)
	assert.Equal(t, "halo", p.Code)
}

func TestConsolePageWraps(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out)
	c.SetPageSize(2)
	for _, text := range []string{"a", "b", "c"} {
		c.AddPredicate(translator.Predicate{Texts: []string{text}})
	}

	c.SelectPrevious()
	assert.Equal(t, "input: \nPredicates: *3. c ~\t \t1. a ~\t \n", out.String())
	assert.Equal(t, []string{"*3. c ~\t ", "1. a ~\t "}, c.Page())
}

func TestConsoleState(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out)

	c.SetIdle(true)
	assert.True(t, c.Idle())
	c.SetIdle(false)
	assert.False(t, c.Idle())
	assert.Equal(t, "state: paused\nstate: resumed\n", out.String())
}
