package main

import (
	goerrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pontaoski/plc/analyzer"
	"github.com/pontaoski/plc/ast"
	"github.com/pontaoski/plc/environment"
	"github.com/pontaoski/plc/errors"
	"github.com/pontaoski/plc/interpreter"
	"github.com/pontaoski/plc/lexer"
	"github.com/pontaoski/plc/parser"
	"github.com/pontaoski/plc/types"
	"github.com/ztrue/tracerr"
)

const (
	historyFile = ".plc_history"
	promptMain  = "plc> "
	promptCont  = "...> "
)

// session keeps the analyzer and interpreter scopes alive between inputs.
type session struct {
	analyzer    *analyzer.Analyzer
	interpreter *interpreter.Interpreter
}

func newSession(out io.Writer) *session {
	return &session{
		analyzer:    analyzer.New(nil),
		interpreter: interpreter.New(nil, out),
	}
}

// input is one parsed REPL entry: declarations, a lone expression, or
// statements.
type input struct {
	source     *ast.Source
	expression ast.Expression
	statements []ast.Statement
}

// declares reports whether tokens open with a field or method declaration.
func declares(tokens []types.Token) bool {
	if len(tokens) == 0 || tokens[0].Kind != types.IDENTIFIER {
		return false
	}
	return tokens[0].Literal == "LET" || tokens[0].Literal == "DEF"
}

func read(code string) (*input, error) {
	tokens, err := lexer.Tokenize(strings.NewReader(code))
	if err != nil {
		return nil, err
	}

	// LET followed by statements is not a valid source and falls through
	if declares(tokens) {
		src, err := parser.Parse(tokens)
		if err == nil {
			return &input{source: src}, nil
		}
		if tokens[0].Literal == "DEF" {
			return nil, err
		}
	}

	if expr, err := parser.NewParser(tokens).ParseExpression(); err == nil {
		return &input{expression: expr}, nil
	}
	stmts, err := parser.NewParser(tokens).ParseStatements()
	if err != nil {
		return nil, err
	}
	return &input{statements: stmts}, nil
}

// incomplete reports whether err was raised at the very end of code, which
// means more lines could still complete it.
func incomplete(err error, code string) bool {
	perr, ok := tracerr.Unwrap(err).(errors.ParseError)
	if !ok {
		return false
	}
	return perr.Index >= len([]rune(strings.TrimRight(code, " \t\r\n")))
}

// eval runs one complete entry. The returned text is the value of a lone
// expression, empty otherwise.
func (s *session) eval(code string) (string, error) {
	in, err := read(code)
	if err != nil {
		return "", err
	}

	switch {
	case in.source != nil:
		for _, f := range in.source.Fields {
			if err := s.analyzer.AnalyzeField(f); err != nil {
				return "", err
			}
			if err := s.interpreter.Declare(f); err != nil {
				return "", err
			}
		}
		if err := s.analyzer.AnalyzeMethods(in.source.Methods...); err != nil {
			return "", err
		}
		for _, m := range in.source.Methods {
			if err := s.interpreter.Define(m); err != nil {
				return "", err
			}
		}
		return "", nil
	case in.expression != nil:
		if err := s.analyzer.AnalyzeExpression(in.expression); err != nil {
			return "", err
		}
		result, err := s.interpreter.Evaluate(in.expression)
		if err != nil {
			return "", err
		}
		if result == environment.NIL {
			return "", nil
		}
		return result.String(), nil
	}

	for _, stmt := range in.statements {
		if err := s.analyzer.AnalyzeStatement(stmt); err != nil {
			return "", err
		}
		if err := s.interpreter.Execute(stmt); err != nil {
			return "", err
		}
	}
	return "", nil
}

func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if goerrors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.TrimSpace(src) == "" {
			return src, true
		}
		_, perr := read(src)
		if perr != nil && incomplete(perr, src) {
			continue
		}
		return src, true
	}
}

func repl(out io.Writer) error {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := newSession(out)
	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Fprintln(out)
			return nil
		}

		switch strings.TrimSpace(code) {
		case "":
			continue
		case ":quit":
			return nil
		}

		value, err := s.eval(code)
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		if err != nil {
			fmt.Fprintln(os.Stderr, describe(err, []rune(code), "<repl>"))
			continue
		}
		if value != "" {
			fmt.Fprintln(out, green(value))
		}
	}
}
