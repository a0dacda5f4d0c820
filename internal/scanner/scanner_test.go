package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickandperla.net/calc/internal/token"
)

func TestNext(t *testing.T) {
	testCases := []struct {
		input string
		items []Item
	}{
		{
			input: "12+3",
			items: []Item{
				{token.NUMBER, "12", 0},
				{token.PLUS, "+", 2},
				{token.NUMBER, "3", 3},
				{token.EOF, "", 4},
			},
		},
		{
			input: "2*(30-4)^2",
			items: []Item{
				{token.NUMBER, "2", 0},
				{token.STAR, "*", 1},
				{token.LPAREN, "(", 2},
				{token.NUMBER, "30", 3},
				{token.MINUS, "-", 5},
				{token.NUMBER, "4", 6},
				{token.RPAREN, ")", 7},
				{token.CARET, "^", 8},
				{token.NUMBER, "2", 9},
				{token.EOF, "", 10},
			},
		},
		{
			input: " 7 / 8 ",
			items: []Item{
				{token.NUMBER, "7", 1},
				{token.SLASH, "/", 3},
				{token.NUMBER, "8", 5},
				{token.EOF, "", 7},
			},
		},
	}
	for _, tc := range testCases {
		s := NewFromString(tc.input)
		for _, want := range tc.items {
			got, err := s.Next()
			require.NoError(t, err, tc.input)
			assert.Equal(t, want, *got, tc.input)
		}
	}
}

func TestPeek(t *testing.T) {
	s := NewFromString("4*5")

	peeked, err := s.Peek()
	require.NoError(t, err)
	assert.Equal(t, token.NUMBER, peeked.Token)

	again, err := s.Peek()
	require.NoError(t, err)
	assert.Same(t, peeked, again)

	next, err := s.Next()
	require.NoError(t, err)
	assert.Same(t, peeked, next)

	next, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, token.STAR, next.Token)
}

func TestAll(t *testing.T) {
	items, err := NewFromString("(1)").All()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, token.LPAREN, items[0].Token)
	assert.Equal(t, "1", items[1].Value)
	assert.Equal(t, token.RPAREN, items[2].Token)
}

func TestUnexpectedCharacter(t *testing.T) {
	s := NewFromString("1a")
	_, err := s.Next()
	require.NoError(t, err)
	_, err = s.Next()
	assert.EqualError(t, err, `unexpected character 'a' at position 1`)
}
