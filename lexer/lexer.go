package lexer

import (
	"bufio"
	"io"

	"github.com/pontaoski/plc/errors"
	"github.com/pontaoski/plc/types"
	"github.com/ztrue/tracerr"
)

type Lexer struct {
	index  int
	reader *bufio.Reader
	last   *types.Token
}

func NewLexer(reader io.Reader) *Lexer {
	return &Lexer{
		reader: bufio.NewReader(reader),
	}
}

func (l *Lexer) read() (rune, bool) {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		if err == io.EOF {
			return 0, false
		}
		panic(err)
	}
	l.index++
	return r, true
}

func (l *Lexer) backup() {
	if err := l.reader.UnreadRune(); err != nil {
		panic(err)
	}

	l.index--
}

func (l *Lexer) peekByte(n int) (byte, bool) {
	byt, err := l.reader.Peek(n + 1)
	if err != nil && err != io.EOF {
		panic(err)
	}
	if len(byt) <= n {
		return 0, false
	}
	return byt[n], true
}

func firstChar(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func otherChar(r rune) bool {
	return r == '-' || firstChar(r) || (r >= '0' && r <= '9')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\b', '\n', '\r', '\t':
		return true
	}
	return false
}

// keywords after which an expression starts
var keywords = map[string]bool{
	"AND":    true,
	"OR":     true,
	"IF":     true,
	"WHILE":  true,
	"RETURN": true,
}

// signAllowed reports whether a leading + or - may start a numeric literal.
// After a value-like token the sign is an operator instead.
func (l *Lexer) signAllowed() bool {
	if l.last == nil {
		return true
	}
	switch l.last.Kind {
	case types.IDENTIFIER:
		return keywords[l.last.Literal]
	case types.INTEGER, types.DECIMAL, types.CHARACTER, types.STRING:
		return false
	case types.OPERATOR:
		return l.last.Literal != ")"
	}
	return true
}

func (l *Lexer) lexIdent(first rune) string {
	lit := string(first)
	for {
		r, ok := l.read()
		if !ok {
			return lit
		}
		if !otherChar(r) {
			l.backup()
			return lit
		}
		lit += string(r)
	}
}

func (l *Lexer) lexDigits() string {
	var lit string
	for {
		b, ok := l.peekByte(0)
		if !ok || !isDigit(b) {
			return lit
		}
		r, _ := l.read()
		lit += string(r)
	}
}

func (l *Lexer) lexNumber(first rune) (types.TokenKind, string) {
	lit := string(first)
	if first == '+' || first == '-' {
		r, _ := l.read()
		lit += string(r)
		first = r
	}
	if first != '0' {
		lit += l.lexDigits()
	}

	dot, ok := l.peekByte(0)
	if ok && dot == '.' {
		if next, ok := l.peekByte(1); ok && isDigit(next) {
			r, _ := l.read()
			lit += string(r)
			lit += l.lexDigits()
			return types.DECIMAL, lit
		}
	}
	return types.INTEGER, lit
}

func (l *Lexer) lexQuoted(quote rune, start int) string {
	lit := string(quote)
	for {
		r, ok := l.read()
		if !ok {
			panic(errors.ParseError{Message: "Unterminated literal.", Index: l.index})
		}
		switch r {
		case quote:
			lit += string(r)
			if quote == '\'' && len([]rune(lit)) == 2 {
				panic(errors.ParseError{Message: "Empty character literal.", Index: start})
			}
			return lit
		case '\n', '\r':
			panic(errors.ParseError{Message: "Unterminated literal.", Index: l.index - 1})
		case '\\':
			esc, ok := l.read()
			if !ok || esc == '\n' || esc == '\r' {
				panic(errors.ParseError{Message: "Invalid escape.", Index: l.index - 1})
			}
			lit += string(r) + string(esc)
		default:
			lit += string(r)
		}
		if quote == '\'' {
			closing, ok := l.read()
			if !ok || closing != '\'' {
				panic(errors.ParseError{Message: "Unterminated character literal.", Index: l.index - 1})
			}
			return lit + string(closing)
		}
	}
}

func (l *Lexer) lexOperator(r rune) string {
	b, ok := l.peekByte(0)
	if ok {
		pair := string(r) + string(b)
		switch pair {
		case "<=", ">=", "!=", "==", "&&", "||":
			l.read()
			return pair
		}
	}
	return string(r)
}

// Lex returns the next token, or a token of kind EOF at the end of input.
func (l *Lexer) Lex() (tok types.Token) {
	defer func() {
		if tok.Kind != types.EOF {
			t := tok
			l.last = &t
		}
	}()

	for {
		r, ok := l.read()
		if !ok {
			return types.Token{Kind: types.EOF, Index: l.index}
		}
		start := l.index - 1

		switch {
		case isWhitespace(r):
			continue
		case firstChar(r):
			return types.Token{Kind: types.IDENTIFIER, Literal: l.lexIdent(r), Index: start}
		case r >= '0' && r <= '9':
			kind, lit := l.lexNumber(r)
			return types.Token{Kind: kind, Literal: lit, Index: start}
		case r == '+' || r == '-':
			if next, ok := l.peekByte(0); ok && isDigit(next) && l.signAllowed() {
				kind, lit := l.lexNumber(r)
				return types.Token{Kind: kind, Literal: lit, Index: start}
			}
			return types.Token{Kind: types.OPERATOR, Literal: string(r), Index: start}
		case r == '\'':
			return types.Token{Kind: types.CHARACTER, Literal: l.lexQuoted(r, start), Index: start}
		case r == '"':
			return types.Token{Kind: types.STRING, Literal: l.lexQuoted(r, start), Index: start}
		}

		return types.Token{Kind: types.OPERATOR, Literal: l.lexOperator(r), Index: start}
	}
}

// LexAll tokenizes the whole input.
func (l *Lexer) LexAll() (tokens []types.Token, err error) {
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(error)
			if ok {
				tokens = nil
				err = tracerr.Wrap(rerr)
			} else {
				panic(r)
			}
		}
	}()

	for {
		tok := l.Lex()
		if tok.Kind == types.EOF {
			return
		}
		tokens = append(tokens, tok)
	}
}

// Tokenize is a convenience wrapper around NewLexer and LexAll.
func Tokenize(reader io.Reader) ([]types.Token, error) {
	return NewLexer(reader).LexAll()
}
