package lexer

import (
	"strings"
	"testing"

	"github.com/pontaoski/plc/errors"
	"github.com/pontaoski/plc/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ztrue/tracerr"
)

func tok(kind types.TokenKind, lit string, index int) types.Token {
	return types.Token{Kind: kind, Literal: lit, Index: index}
}

func TestLexer(t *testing.T) {
	tokens, err := Tokenize(strings.NewReader("LET x = 1;"))
	require.NoError(t, err)
	assert.Equal(t, []types.Token{
		tok(types.IDENTIFIER, "LET", 0),
		tok(types.IDENTIFIER, "x", 4),
		tok(types.OPERATOR, "=", 6),
		tok(types.INTEGER, "1", 8),
		tok(types.OPERATOR, ";", 9),
	}, tokens)
}

func TestLexerKinds(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		tokens []types.Token
	}{
		{"identifier with dash", "get-name_2", []types.Token{tok(types.IDENTIFIER, "get-name_2", 0)}},
		{"zero", "0", []types.Token{tok(types.INTEGER, "0", 0)}},
		{"leading zero splits", "01", []types.Token{tok(types.INTEGER, "0", 0), tok(types.INTEGER, "1", 1)}},
		{"decimal", "12.50", []types.Token{tok(types.DECIMAL, "12.50", 0)}},
		{"trailing dot", "1.", []types.Token{tok(types.INTEGER, "1", 0), tok(types.OPERATOR, ".", 1)}},
		{"signed start", "-5", []types.Token{tok(types.INTEGER, "-5", 0)}},
		{"signed after operator", "(+1.5", []types.Token{tok(types.OPERATOR, "(", 0), tok(types.DECIMAL, "+1.5", 1)}},
		{"minus after identifier", "x-1", []types.Token{
			tok(types.IDENTIFIER, "x", 0), tok(types.OPERATOR, "-", 1), tok(types.INTEGER, "1", 2),
		}},
		{"signed after keyword", "RETURN -1", []types.Token{tok(types.IDENTIFIER, "RETURN", 0), tok(types.INTEGER, "-1", 7)}},
		{"minus after paren", ")-1", []types.Token{
			tok(types.OPERATOR, ")", 0), tok(types.OPERATOR, "-", 1), tok(types.INTEGER, "1", 2),
		}},
		{"character", "'c'", []types.Token{tok(types.CHARACTER, "'c'", 0)}},
		{"escaped character", `'\n'`, []types.Token{tok(types.CHARACTER, `'\n'`, 0)}},
		{"string", `"a\"b"`, []types.Token{tok(types.STRING, `"a\"b"`, 0)}},
		{"two char operators", "<=>=!===&&||", []types.Token{
			tok(types.OPERATOR, "<=", 0), tok(types.OPERATOR, ">=", 2), tok(types.OPERATOR, "!=", 4),
			tok(types.OPERATOR, "==", 6), tok(types.OPERATOR, "&&", 8), tok(types.OPERATOR, "||", 10),
		}},
		{"single operators", "<&", []types.Token{tok(types.OPERATOR, "<", 0), tok(types.OPERATOR, "&", 1)}},
		{"whitespace", " \t\r\n\bx", []types.Token{tok(types.IDENTIFIER, "x", 5)}},
		{"non ascii letter", "aé", []types.Token{tok(types.IDENTIFIER, "a", 0), tok(types.OPERATOR, "é", 1)}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tokens, err := Tokenize(strings.NewReader(c.input))
			require.NoError(t, err)
			assert.Equal(t, c.tokens, tokens)
		})
	}
}

func TestLexerErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		index int
	}{
		{"empty character", "''", 0},
		{"unterminated string", `"abc`, 4},
		{"newline in string", "\"ab\ncd\"", 3},
		{"two characters", "'ab'", 2},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Tokenize(strings.NewReader(c.input))
			require.Error(t, err)
			perr, ok := tracerr.Unwrap(err).(errors.ParseError)
			require.True(t, ok, "expected a ParseError, got %T", tracerr.Unwrap(err))
			assert.Equal(t, c.index, perr.Index)
		})
	}
}

func TestLexerEOF(t *testing.T) {
	l := NewLexer(strings.NewReader("a "))
	assert.Equal(t, types.IDENTIFIER, l.Lex().Kind)
	end := l.Lex()
	assert.Equal(t, types.EOF, end.Kind)
	assert.Equal(t, 2, end.Index)
}
