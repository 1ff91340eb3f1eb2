package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mi-wada/kanic/diagnostic"
	"github.com/mi-wada/kanic/token"
)

func TestTokenizeNumbersAndOperators(t *testing.T) {
	input := `(+1 + -2) * 3 - 4 / 5`

	tokens, err := New(input).Tokenize()
	require.NoError(t, err)

	expected := []token.Token{
		{Kind: token.LPAREN, Offset: 0},
		{Kind: token.PLUS, Offset: 1},
		{Kind: token.NUM, Literal: "1", Offset: 2},
		{Kind: token.PLUS, Offset: 4},
		{Kind: token.MINUS, Offset: 6},
		{Kind: token.NUM, Literal: "2", Offset: 7},
		{Kind: token.RPAREN, Offset: 8},
		{Kind: token.ASTERISK, Offset: 10},
		{Kind: token.NUM, Literal: "3", Offset: 12},
		{Kind: token.MINUS, Offset: 14},
		{Kind: token.NUM, Literal: "4", Offset: 16},
		{Kind: token.SLASH, Offset: 18},
		{Kind: token.NUM, Literal: "5", Offset: 20},
	}

	assert.Equal(t, expected, tokens)
}

func TestTokenizeComparisons(t *testing.T) {
	input := `< <= > >= == !=`

	tokens, err := New(input).Tokenize()
	require.NoError(t, err)

	var kinds []token.Kind
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}

	assert.Equal(t, []token.Kind{token.LT, token.LTE, token.GT, token.GTE, token.EQ, token.NEQ}, kinds)
}

func TestTokenizeKeywordsAndIdents(t *testing.T) {
	input := `return if else while for foo bar123`

	tokens, err := New(input).Tokenize()
	require.NoError(t, err)

	expected := []token.Kind{token.RETURN, token.IF, token.ELSE, token.WHILE, token.FOR, token.IDENT, token.IDENT}

	var kinds []token.Kind
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, expected, kinds)
	assert.Equal(t, "foo", tokens[5].Literal)
	assert.Equal(t, "bar123", tokens[6].Literal)
}

func TestTokenizeAssignVsEquality(t *testing.T) {
	input := `a = 1; b == 2`

	tokens, err := New(input).Tokenize()
	require.NoError(t, err)

	assert.Equal(t, token.ASSIGN, tokens[1].Kind)
	assert.Equal(t, token.EQ, tokens[5].Kind)
}

func TestTokenizeBareBangIsLexError(t *testing.T) {
	_, err := New(`3 ! 4`).Tokenize()
	require.Error(t, err)

	var perr *diagnostic.PositionedError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Offset)
}

func TestTokenizeUnknownByteIsLexError(t *testing.T) {
	_, err := New(`1 + @`).Tokenize()
	require.Error(t, err)

	var perr *diagnostic.PositionedError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 4, perr.Offset)
}

// "10 + 2 == == 2" lexes fine on its own (it is a parse error, not a
// lex error); the lexer itself must not reject it.
func TestTokenizeDoubleEqualsLexesCleanly(t *testing.T) {
	tokens, err := New(`10 + 2 == == 2`).Tokenize()
	require.NoError(t, err)
	assert.Len(t, tokens, 6)
}
