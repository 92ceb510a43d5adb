package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pontaoski/plc/analyzer"
	"github.com/pontaoski/plc/ast"
	"github.com/pontaoski/plc/errors"
	"github.com/pontaoski/plc/lexer"
	"github.com/pontaoski/plc/parser"
	"github.com/pontaoski/plc/types"
	"github.com/ztrue/tracerr"
)

var (
	verbose bool

	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
)

func trace(format string, v ...interface{}) {
	if verbose {
		log.Printf(format, v...)
	}
}

// unit is one source file on its way through the pipeline.
type unit struct {
	filename string
	source   []rune
	tokens   []types.Token
	tree     *ast.Source
}

func load(filename string) (*unit, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	trace("read %s (%d bytes)", filename, len(data))
	return &unit{filename: filename, source: []rune(string(data))}, nil
}

func (u *unit) lex() error {
	tokens, err := lexer.Tokenize(strings.NewReader(string(u.source)))
	if err != nil {
		return err
	}
	u.tokens = tokens
	trace("lexed %d tokens", len(tokens))
	return nil
}

func (u *unit) parse() error {
	if err := u.lex(); err != nil {
		return err
	}
	tree, err := parser.Parse(u.tokens)
	if err != nil {
		return err
	}
	u.tree = tree
	trace("parsed %d fields and %d methods", len(tree.Fields), len(tree.Methods))
	return nil
}

func (u *unit) analyze() error {
	if err := u.parse(); err != nil {
		return err
	}
	if err := analyzer.New(nil).Analyze(u.tree); err != nil {
		return err
	}
	trace("analyzed %s", u.filename)
	return nil
}

// describe renders a pipeline error for the terminal, with a source
// position for lexing and parsing errors.
func describe(err error, source []rune, filename string) string {
	switch e := tracerr.Unwrap(err).(type) {
	case errors.ParseError:
		return red("parse error: ") + e.Located(source, filename)
	case errors.AnalysisError:
		return red("analysis error: ") + e.Message
	case errors.RuntimeError:
		return red("runtime error: ") + e.Message
	}
	return red("error: ") + tracerr.Unwrap(err).Error()
}

func report(err error, u *unit) {
	if u == nil {
		fmt.Fprintln(os.Stderr, describe(err, nil, ""))
	} else {
		fmt.Fprintln(os.Stderr, describe(err, u.source, u.filename))
	}
	if verbose {
		tracerr.PrintSourceColor(err)
	}
}
