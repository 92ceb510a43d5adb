package types

import (
	"fmt"
)

type Position struct {
	Line     int
	Column   int
	Filename string
}

type Span struct {
	From Position
	To   Position
}

type TokenKind int

const (
	EOF TokenKind = iota
	ILLEGAL

	IDENTIFIER
	INTEGER
	DECIMAL
	CHARACTER
	STRING
	OPERATOR
)

func (t TokenKind) String() string {
	data := map[TokenKind]string{
		EOF:        "EOF",
		ILLEGAL:    "ILLEGAL",
		IDENTIFIER: "IDENTIFIER",
		INTEGER:    "INTEGER",
		DECIMAL:    "DECIMAL",
		CHARACTER:  "CHARACTER",
		STRING:     "STRING",
		OPERATOR:   "OPERATOR",
	}
	return data[t]
}

func (p Position) String() string {
	if p.Filename == "" {
		p.Filename = "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%d:%d", s.From, s.To.Line, s.To.Column)
}

// Token is a single lexeme. Index is the rune offset of its first character
// in the source.
type Token struct {
	Kind    TokenKind
	Literal string
	Index   int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Literal, t.Index)
}

// PositionOf converts a rune offset into a line/column position.
func PositionOf(source []rune, index int, filename string) Position {
	pos := Position{Line: 1, Column: 1, Filename: filename}
	for i := 0; i < index && i < len(source); i++ {
		if source[i] == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}
	return pos
}

// SpanOf returns the span covered by a token.
func SpanOf(source []rune, tok Token, filename string) Span {
	end := tok.Index + len([]rune(tok.Literal))
	if end > tok.Index {
		end--
	}
	return Span{PositionOf(source, tok.Index, filename), PositionOf(source, end, filename)}
}
