package generator

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/pontaoski/plc/ast"
	"github.com/pontaoski/plc/environment"
	"github.com/shopspring/decimal"
)

// Generator renders an analyzed tree as Java source. It reads the bindings
// the analyzer attached to the tree and performs no checking of its own.
type Generator struct {
	w      *bufio.Writer
	indent int
}

func New(w io.Writer) *Generator {
	return &Generator{w: bufio.NewWriter(w)}
}

// Generate writes src as a Java class named Main.
func Generate(w io.Writer, src *ast.Source) error {
	g := New(w)
	g.source(src)
	return g.w.Flush()
}

func (g *Generator) print(objects ...interface{}) {
	for _, object := range objects {
		switch o := object.(type) {
		case ast.Expression:
			g.expression(o)
		case ast.Statement:
			g.statement(o)
		default:
			fmt.Fprint(g.w, o)
		}
	}
}

func (g *Generator) newline(indent int) {
	g.w.WriteString("\n")
	g.w.WriteString(strings.Repeat("    ", indent))
}

func (g *Generator) source(src *ast.Source) {
	g.print("public class Main {")
	g.newline(0)
	g.indent = 1

	if len(src.Fields) > 0 {
		for _, f := range src.Fields {
			g.newline(g.indent)
			g.field(f)
		}
		g.newline(0)
	}

	g.newline(g.indent)
	g.print("public static void main(String[] args) {")
	g.newline(g.indent + 1)
	g.print("System.exit(new Main().main());")
	g.newline(g.indent)
	g.print("}")
	g.newline(0)

	for _, m := range src.Methods {
		g.newline(g.indent)
		g.method(m)
		g.newline(0)
	}

	g.indent = 0
	g.print("}")
}

func (g *Generator) field(f *ast.Field) {
	if f.Variable.Constant {
		g.print("final ")
	}
	g.print(f.Variable.Type.JvmName, " ", f.Variable.JvmName)
	if f.Value != nil {
		g.print(" = ", f.Value)
	}
	g.print(";")
}

func (g *Generator) method(m *ast.Method) {
	fn := m.Function
	g.print(fn.ReturnType.JvmName, " ", fn.JvmName, "(")
	for i, param := range m.Parameters {
		if i > 0 {
			g.print(", ")
		}
		g.print(fn.ParameterTypes[i].JvmName, " ", param)
	}
	g.print(")")
	g.block(m.Statements)
}

// block writes " {", the statements one level deeper, and the closing
// brace; an empty block is written as " {}".
func (g *Generator) block(stmts []ast.Statement) {
	if len(stmts) == 0 {
		g.print(" {}")
		return
	}
	g.print(" {")
	g.indent++
	for _, stmt := range stmts {
		g.newline(g.indent)
		g.statement(stmt)
	}
	g.indent--
	g.newline(g.indent)
	g.print("}")
}

// clause writes a FOR header assignment without its terminator.
func (g *Generator) clause(stmt ast.Statement) {
	if assign, ok := stmt.(*ast.Assignment); ok {
		g.print(assign.Receiver, " = ", assign.Value)
	}
}

func (g *Generator) statement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		g.print(s.Expression, ";")
	case *ast.Declaration:
		g.print(s.Variable.Type.JvmName, " ", s.Variable.JvmName)
		if s.Value != nil {
			g.print(" = ", s.Value)
		}
		g.print(";")
	case *ast.Assignment:
		g.print(s.Receiver, " = ", s.Value, ";")
	case *ast.If:
		g.print("if (", s.Condition, ")")
		g.block(s.Then)
		if len(s.Else) > 0 {
			g.print(" else")
			g.block(s.Else)
		}
	case *ast.For:
		g.print("for (")
		if s.Initialization != nil {
			g.clause(s.Initialization)
		}
		g.print("; ", s.Condition, ";")
		if s.Increment != nil {
			g.print(" ")
			g.clause(s.Increment)
		}
		g.print(")")
		g.block(s.Statements)
	case *ast.While:
		g.print("while (", s.Condition, ")")
		g.block(s.Statements)
	case *ast.Return:
		g.print("return ", s.Value, ";")
	default:
		panic("unhandled statement")
	}
}

var operators = map[string]string{
	"AND": "&&",
	"OR":  "||",
}

func (g *Generator) expression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.Literal:
		g.print(literal(e.Value))
	case *ast.Group:
		g.print("(", e.Expression, ")")
	case *ast.Binary:
		op := e.Operator
		if jop, ok := operators[op]; ok {
			op = jop
		}
		g.print(e.Left, " ", op, " ", e.Right)
	case *ast.Access:
		if e.Receiver != nil {
			g.print(e.Receiver, ".")
		}
		g.print(e.Variable.JvmName)
	case *ast.Function:
		if e.Receiver != nil {
			g.print(e.Receiver, ".")
		}
		g.print(e.Function.JvmName, "(")
		for i, arg := range e.Arguments {
			if i > 0 {
				g.print(", ")
			}
			g.print(arg)
		}
		g.print(")")
	default:
		panic("unhandled expression")
	}
}

var escapes = strings.NewReplacer(
	"\\", "\\\\",
	"\b", "\\b",
	"\n", "\\n",
	"\r", "\\r",
	"\t", "\\t",
	"'", "\\'",
	"\"", "\\\"",
)

func literal(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case bool:
		return fmt.Sprint(v)
	case rune:
		return "'" + escapes.Replace(string(v)) + "'"
	case string:
		return "\"" + escapes.Replace(v) + "\""
	case *big.Int:
		return v.String()
	case decimal.Decimal:
		return v.StringFixed(environment.Scale(v))
	}
	panic(fmt.Sprintf("unhandled literal %T", value))
}
