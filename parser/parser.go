package parser

import (
	"math/big"
	"strings"

	"github.com/pontaoski/plc/ast"
	"github.com/pontaoski/plc/errors"
	"github.com/pontaoski/plc/types"
	"github.com/shopspring/decimal"
	"github.com/ztrue/tracerr"
)

// Parser is a recursive descent parser over a fully lexed token stream.
// Every rule either consumes what it expects or panics with a ParseError;
// the exported entry points recover that panic into an error.
type Parser struct {
	tokens []types.Token
	index  int
}

func NewParser(tokens []types.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses a whole program.
func Parse(tokens []types.Token) (*ast.Source, error) {
	return NewParser(tokens).ParseSource()
}

func catch(err *error) {
	if r := recover(); r != nil {
		rerr, ok := r.(errors.ParseError)
		if ok {
			*err = tracerr.Wrap(rerr)
		} else {
			panic(r)
		}
	}
}

func (p *Parser) ParseSource() (src *ast.Source, err error) {
	defer catch(&err)
	return p.parseSource(), nil
}

// ParseStatements parses statements until the end of input.
func (p *Parser) ParseStatements() (stmts []ast.Statement, err error) {
	defer catch(&err)
	for p.has(0) {
		stmts = append(stmts, p.parseStatement())
	}
	return stmts, nil
}

// ParseExpression parses a single expression that must span the whole input.
func (p *Parser) ParseExpression() (expr ast.Expression, err error) {
	defer catch(&err)
	expr = p.parseExpression()
	if p.has(0) {
		panic(errors.ParseError{Message: "Unexpected token.", Index: p.get(0).Index})
	}
	return expr, nil
}

func (p *Parser) has(offset int) bool {
	return p.index+offset < len(p.tokens)
}

func (p *Parser) get(offset int) types.Token {
	return p.tokens[p.index+offset]
}

func (p *Parser) advance() types.Token {
	tok := p.tokens[p.index]
	p.index++
	return tok
}

// peek reports whether the upcoming tokens match patterns in sequence. A
// pattern is either a types.TokenKind, matched against the token's kind, or
// a string, matched against its literal.
func (p *Parser) peek(patterns ...interface{}) bool {
	for i, pattern := range patterns {
		if !p.has(i) {
			return false
		}
		tok := p.get(i)
		switch pat := pattern.(type) {
		case types.TokenKind:
			if tok.Kind != pat {
				return false
			}
		case string:
			if tok.Literal != pat {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (p *Parser) match(patterns ...interface{}) bool {
	if p.peek(patterns...) {
		p.index += len(patterns)
		return true
	}
	return false
}

// matchWord consumes an identifier token spelled word.
func (p *Parser) matchWord(word string) bool {
	if p.peek(types.IDENTIFIER) && p.peek(word) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) eofIndex() int {
	if p.index == 0 || len(p.tokens) == 0 {
		return 0
	}
	last := p.tokens[p.index-1]
	return last.Index + len([]rune(last.Literal))
}

// errorIndex is the offset of the next token, or the end of input.
func (p *Parser) errorIndex() int {
	if p.has(0) {
		return p.get(0).Index
	}
	return p.eofIndex()
}

func (p *Parser) fail(what string) {
	panic(errors.Expected(what, p.errorIndex()))
}

func (p *Parser) expect(literal, what string) {
	if !p.match(literal) {
		p.fail(what)
	}
}

func (p *Parser) expectIdentifier() string {
	if !p.peek(types.IDENTIFIER) {
		p.fail("identifier")
	}
	return p.advance().Literal
}

// parseTypeAnnotation parses an optional ': Type'.
func (p *Parser) parseTypeAnnotation() *string {
	if !p.match(":") {
		return nil
	}
	name := p.expectIdentifier()
	return &name
}

func (p *Parser) parseSource() *ast.Source {
	src := &ast.Source{}
	for p.peek("LET") {
		src.Fields = append(src.Fields, p.parseField())
	}
	for p.peek("DEF") {
		src.Methods = append(src.Methods, p.parseMethod())
	}
	if p.has(0) {
		panic(errors.ParseError{Message: "Unexpected token.", Index: p.get(0).Index})
	}
	return src
}

func (p *Parser) parseField() *ast.Field {
	p.expect("LET", "LET")
	field := &ast.Field{}
	field.Constant = p.match("CONST")
	field.Name = p.expectIdentifier()
	field.TypeName = p.parseTypeAnnotation()
	if p.match("=") {
		field.Value = p.parseExpression()
	}
	p.expect(";", "';'")
	return field
}

func (p *Parser) parseMethod() *ast.Method {
	p.expect("DEF", "DEF")
	method := &ast.Method{}
	method.Name = p.expectIdentifier()
	p.expect("(", "'('")

	if !p.peek(")") {
		for {
			method.Parameters = append(method.Parameters, p.expectIdentifier())
			method.ParameterTypeNames = append(method.ParameterTypeNames, p.parseTypeAnnotation())
			if !p.match(",") {
				break
			}
		}
	}
	p.expect(")", "')'")
	method.ReturnTypeName = p.parseTypeAnnotation()
	p.expect("DO", "DO")
	method.Statements = p.parseBlock("END")
	p.expect("END", "END")
	return method
}

// parseBlock parses statements up to, but not including, one of the
// terminating keywords.
func (p *Parser) parseBlock(terminators ...string) []ast.Statement {
	var statements []ast.Statement
	for {
		for _, t := range terminators {
			if p.peek(t) {
				return statements
			}
		}
		if !p.has(0) {
			p.fail(terminators[len(terminators)-1])
		}
		statements = append(statements, p.parseStatement())
	}
}

func (p *Parser) parseStatement() ast.Statement {
	switch {
	case p.peek("LET"):
		return p.parseDeclarationStatement()
	case p.peek("IF"):
		return p.parseIfStatement()
	case p.peek("FOR"):
		return p.parseForStatement()
	case p.peek("WHILE"):
		return p.parseWhileStatement()
	case p.peek("RETURN"):
		return p.parseReturnStatement()
	}

	receiver := p.parseExpression()
	if p.match("=") {
		value := p.parseExpression()
		p.expect(";", "';'")
		return &ast.Assignment{Receiver: receiver, Value: value}
	}
	p.expect(";", "';'")
	return &ast.ExpressionStmt{Expression: receiver}
}

func (p *Parser) parseDeclarationStatement() *ast.Declaration {
	p.expect("LET", "LET")
	decl := &ast.Declaration{}
	decl.Name = p.expectIdentifier()
	decl.TypeName = p.parseTypeAnnotation()
	if p.match("=") {
		decl.Value = p.parseExpression()
	}
	p.expect(";", "';'")
	return decl
}

func (p *Parser) parseIfStatement() *ast.If {
	p.expect("IF", "IF")
	stmt := &ast.If{Condition: p.parseExpression()}
	p.expect("DO", "DO")
	stmt.Then = p.parseBlock("ELSE", "END")
	if p.match("ELSE") {
		stmt.Else = p.parseBlock("END")
	}
	p.expect("END", "END")
	return stmt
}

// parseForClause parses the optional 'identifier = expression' of a FOR header.
func (p *Parser) parseForClause() ast.Statement {
	if !p.peek(types.IDENTIFIER) {
		return nil
	}
	name := p.advance().Literal
	p.expect("=", "'='")
	return &ast.Assignment{
		Receiver: &ast.Access{Name: name},
		Value:    p.parseExpression(),
	}
}

func (p *Parser) parseForStatement() *ast.For {
	p.expect("FOR", "FOR")
	p.expect("(", "'('")
	stmt := &ast.For{}
	stmt.Initialization = p.parseForClause()
	p.expect(";", "';'")
	stmt.Condition = p.parseExpression()
	p.expect(";", "';'")
	stmt.Increment = p.parseForClause()
	p.expect(")", "')'")
	stmt.Statements = p.parseBlock("END")
	p.expect("END", "END")
	return stmt
}

func (p *Parser) parseWhileStatement() *ast.While {
	p.expect("WHILE", "WHILE")
	stmt := &ast.While{Condition: p.parseExpression()}
	p.expect("DO", "DO")
	stmt.Statements = p.parseBlock("END")
	p.expect("END", "END")
	return stmt
}

func (p *Parser) parseReturnStatement() *ast.Return {
	p.expect("RETURN", "RETURN")
	stmt := &ast.Return{Value: p.parseExpression()}
	p.expect(";", "';'")
	return stmt
}

func (p *Parser) parseExpression() ast.Expression {
	return p.parseLogicalExpression()
}

// parseBinary parses one left-associative precedence level.
func (p *Parser) parseBinary(next func() ast.Expression, operators ...string) ast.Expression {
	expr := next()
	for {
		var op string
		for _, candidate := range operators {
			if p.peek(candidate) {
				op = candidate
				break
			}
		}
		if op == "" {
			return expr
		}
		p.advance()
		expr = &ast.Binary{Operator: op, Left: expr, Right: next()}
	}
}

func (p *Parser) parseLogicalExpression() ast.Expression {
	return p.parseBinary(p.parseEqualityExpression, "AND", "OR", "&&", "||")
}

func (p *Parser) parseEqualityExpression() ast.Expression {
	return p.parseBinary(p.parseAdditiveExpression, "<=", ">=", "==", "!=", "<", ">")
}

func (p *Parser) parseAdditiveExpression() ast.Expression {
	return p.parseBinary(p.parseMultiplicativeExpression, "+", "-")
}

func (p *Parser) parseMultiplicativeExpression() ast.Expression {
	return p.parseBinary(p.parseSecondaryExpression, "*", "/")
}

func (p *Parser) parseSecondaryExpression() ast.Expression {
	expr := p.parsePrimaryExpression()
	for p.match(".") {
		name := p.expectIdentifier()
		if p.match("(") {
			expr = &ast.Function{Receiver: expr, Name: name, Arguments: p.parseArguments()}
		} else {
			expr = &ast.Access{Receiver: expr, Name: name}
		}
	}
	return expr
}

// parseArguments should be called with the parser past the opening paren.
func (p *Parser) parseArguments() []ast.Expression {
	args := []ast.Expression{}
	if p.match(")") {
		return args
	}
	for {
		args = append(args, p.parseExpression())
		if !p.match(",") {
			break
		}
		if p.peek(")") {
			p.fail("expression")
		}
	}
	p.expect(")", "')'")
	return args
}

func (p *Parser) parsePrimaryExpression() ast.Expression {
	if !p.has(0) {
		p.fail("expression")
	}

	switch {
	case p.matchWord("NIL"):
		return &ast.Literal{Value: nil}
	case p.matchWord("TRUE"):
		return &ast.Literal{Value: true}
	case p.matchWord("FALSE"):
		return &ast.Literal{Value: false}
	case p.peek(types.INTEGER):
		tok := p.advance()
		i, ok := new(big.Int).SetString(strings.TrimPrefix(tok.Literal, "+"), 10)
		if !ok {
			panic(errors.ParseError{Message: "Invalid integer.", Index: tok.Index})
		}
		return &ast.Literal{Value: i}
	case p.peek(types.DECIMAL):
		tok := p.advance()
		d, err := decimal.NewFromString(strings.TrimPrefix(tok.Literal, "+"))
		if err != nil {
			panic(errors.ParseError{Message: "Invalid decimal.", Index: tok.Index})
		}
		return &ast.Literal{Value: d}
	case p.peek(types.CHARACTER):
		tok := p.advance()
		runes := []rune(unescape(unquote(tok.Literal)))
		var ch rune
		if len(runes) > 0 {
			ch = runes[0]
		}
		return &ast.Literal{Value: ch}
	case p.peek(types.STRING):
		tok := p.advance()
		return &ast.Literal{Value: unescape(unquote(tok.Literal))}
	case p.match("("):
		inner := p.parseExpression()
		p.expect(")", "')'")
		return &ast.Group{Expression: inner}
	case p.peek(types.IDENTIFIER):
		name := p.advance().Literal
		if p.match("(") {
			return &ast.Function{Name: name, Arguments: p.parseArguments()}
		}
		return &ast.Access{Name: name}
	}

	p.fail("expression")
	return nil
}

func unquote(lit string) string {
	runes := []rune(lit)
	if len(runes) < 2 {
		return ""
	}
	return string(runes[1 : len(runes)-1])
}

// unescape decodes \b \n \r \t \' \" and \\. Any other escaped character
// stands for itself.
func unescape(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '\\' || i+1 >= len(runes) {
			b.WriteRune(c)
			continue
		}
		i++
		switch n := runes[i]; n {
		case 'b':
			b.WriteRune('\b')
		case 'n':
			b.WriteRune('\n')
		case 'r':
			b.WriteRune('\r')
		case 't':
			b.WriteRune('\t')
		default:
			b.WriteRune(n)
		}
	}
	return b.String()
}
