package bt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type counter struct{ calls []string }

func leaf(name string, st Status) Node[*counter] {
	return &Action[*counter]{Do: func(c *counter) Status {
		c.calls = append(c.calls, name)
		return st
	}}
}

func TestSelectorStopsAtFirstNonFailure(t *testing.T) {
	c := &counter{}
	sel := &Selector[*counter]{Children: []Node[*counter]{
		leaf("a", StatusFailure),
		leaf("b", StatusRunning),
		leaf("c", StatusSuccess),
	}}
	assert.Equal(t, StatusRunning, sel.Tick(c))
	assert.Equal(t, []string{"a", "b"}, c.calls)
}

func TestSequenceStopsAtFirstNonSuccess(t *testing.T) {
	c := &counter{}
	seq := &Sequence[*counter]{Children: []Node[*counter]{
		leaf("a", StatusSuccess),
		&Condition[*counter]{Check: func(*counter) bool { return false }},
		leaf("c", StatusSuccess),
	}}
	assert.Equal(t, StatusFailure, seq.Tick(c))
	assert.Equal(t, []string{"a"}, c.calls)
}

func TestEmptyNodesFail(t *testing.T) {
	assert.Equal(t, StatusFailure, (&Condition[int]{}).Tick(0))
	assert.Equal(t, StatusFailure, (&Action[int]{}).Tick(0))
	assert.Equal(t, StatusSuccess, (&Sequence[int]{}).Tick(0))
	assert.Equal(t, StatusFailure, (&Selector[int]{}).Tick(0))
}
