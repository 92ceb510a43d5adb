package analyzer

import (
	"strings"
	"testing"

	"github.com/pontaoski/plc/ast"
	"github.com/pontaoski/plc/environment"
	"github.com/pontaoski/plc/errors"
	"github.com/pontaoski/plc/lexer"
	"github.com/pontaoski/plc/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ztrue/tracerr"
)

func parse(t *testing.T, source string) *ast.Source {
	t.Helper()
	tokens, err := lexer.Tokenize(strings.NewReader(source))
	require.NoError(t, err)
	src, err := parser.Parse(tokens)
	require.NoError(t, err)
	return src
}

func parseStatements(t *testing.T, source string) []ast.Statement {
	t.Helper()
	tokens, err := lexer.Tokenize(strings.NewReader(source))
	require.NoError(t, err)
	stmts, err := parser.NewParser(tokens).ParseStatements()
	require.NoError(t, err)
	return stmts
}

func parseExpression(t *testing.T, source string) ast.Expression {
	t.Helper()
	tokens, err := lexer.Tokenize(strings.NewReader(source))
	require.NoError(t, err)
	expr, err := parser.NewParser(tokens).ParseExpression()
	require.NoError(t, err)
	return expr
}

func analysisError(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	aerr, ok := tracerr.Unwrap(err).(errors.AnalysisError)
	require.True(t, ok, "expected an AnalysisError, got %T", tracerr.Unwrap(err))
	return aerr.Message
}

func TestProgram(t *testing.T) {
	src := parse(t, `
LET CONST limit: Integer = 3;
LET total = 0;
DEF add(a: Integer, b: Integer): Integer DO
    RETURN a + b;
END
DEF main(): Integer DO
    FOR (total = 0; total < limit; total = add(total, 1))
        print(total);
    END
    RETURN total;
END
`)
	require.NoError(t, New(nil).Analyze(src))

	assert.Equal(t, environment.Integer, src.Fields[0].Variable.Type)
	assert.True(t, src.Fields[0].Variable.Constant)
	assert.Equal(t, environment.Integer, src.Fields[1].Variable.Type)
	assert.Equal(t, []*environment.Type{environment.Integer, environment.Integer}, src.Methods[0].Function.ParameterTypes)
	assert.Equal(t, environment.Integer, src.Methods[1].Function.ReturnType)

	ret := src.Methods[0].Statements[0].(*ast.Return)
	assert.Equal(t, environment.Integer, ret.Value.Type())
	binary := ret.Value.(*ast.Binary)
	assert.Equal(t, "a", binary.Left.(*ast.Access).Variable.Name)
}

func TestReturnInference(t *testing.T) {
	src := parse(t, `
DEF greet() DO
    print("hi");
END
DEF main() DO
    LET x = 5;
    RETURN x;
END
`)
	require.NoError(t, New(nil).Analyze(src))
	assert.Equal(t, environment.Nil, src.Methods[0].Function.ReturnType)
	assert.Equal(t, environment.Integer, src.Methods[1].Function.ReturnType)
}

func TestMutualRecursion(t *testing.T) {
	src := parse(t, `
DEF isEven(n: Integer): Boolean DO
    IF n == 0 DO RETURN TRUE; END
    RETURN isOdd(n - 1);
END
DEF isOdd(n: Integer): Boolean DO
    IF n == 0 DO RETURN FALSE; END
    RETURN isEven(n - 1);
END
DEF main(): Integer DO
    IF isEven(4) DO RETURN 1; END
    RETURN 0;
END
`)
	require.NoError(t, New(nil).Analyze(src))

	ret := src.Methods[0].Statements[1].(*ast.Return)
	call := ret.Value.(*ast.Function)
	assert.Same(t, src.Methods[1].Function, call.Function)
	assert.Equal(t, environment.Boolean, call.Type())
}

func TestForwardCallToInferredMethod(t *testing.T) {
	src := parse(t, `
DEF main(): Integer DO
    RETURN answer();
END
DEF answer() DO
    RETURN 42;
END
`)
	assert.Equal(t, "type mismatch: expected Integer, got Any", analysisError(t, New(nil).Analyze(src)))
}

func TestUntypedParameters(t *testing.T) {
	src := parse(t, `
DEF show(x) DO print(x); END
DEF main(): Integer DO show(1); show("a"); RETURN 0; END
`)
	require.NoError(t, New(nil).Analyze(src))
	assert.Equal(t, []*environment.Type{environment.Any}, src.Methods[0].Function.ParameterTypes)
}

func TestSourceErrors(t *testing.T) {
	cases := []struct {
		name    string
		source  string
		message string
	}{
		{"missing main", "DEF helper() DO END", "the main/0 function is not defined"},
		{"main with parameters", "DEF main(x): Integer DO RETURN 0; END", "the main/0 function is not defined"},
		{"main returns decimal", "DEF main() DO RETURN 1.0; END", "main/0 must return Integer, not Decimal"},
		{"main returns nothing", "DEF main() DO END", "main/0 must return Integer, not Nil"},
		{"untyped field", "LET x; DEF main(): Integer DO RETURN 0; END", "x needs a type or an initial value"},
		{"uninitialized constant", "LET CONST x: Integer; DEF main(): Integer DO RETURN 0; END", "constant field x must be initialized"},
		{"duplicate field", "LET x = 1; LET x = 2; DEF main(): Integer DO RETURN 0; END", "field x is already defined"},
		{"duplicate method", "DEF main(): Integer DO RETURN 0; END DEF main(): Integer DO RETURN 1; END", "method main/0 is already defined"},
		{"unknown type", "LET x: Widget = 1; DEF main(): Integer DO RETURN 0; END", "unknown type Widget"},
		{"integer out of range", "DEF main(): Integer DO RETURN 2147483648; END", "integer literal 2147483648 is out of range"},
		{"wrong return", "DEF main(): Integer DO RETURN TRUE; END", "type mismatch: expected Integer, got Boolean"},
		{"second return must agree", "DEF main() DO IF TRUE DO RETURN 1; END RETURN 'c'; END", "type mismatch: expected Integer, got Character"},
		{"duplicate parameter", "DEF f(a, a) DO END DEF main(): Integer DO RETURN 0; END", "parameter a of f is declared twice"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.message, analysisError(t, New(nil).Analyze(parse(t, c.source))))
		})
	}
}

func TestIntegerBounds(t *testing.T) {
	a := New(nil)
	require.NoError(t, a.AnalyzeExpression(parseExpression(t, "2147483647")))
	require.NoError(t, a.AnalyzeExpression(parseExpression(t, "-2147483648")))
	assert.Equal(t, "integer literal -2147483649 is out of range", analysisError(t, a.AnalyzeExpression(parseExpression(t, "-2147483649"))))
}

func TestStatements(t *testing.T) {
	cases := []struct {
		name    string
		source  string
		message string
	}{
		{"comparable from integer", "LET x: Comparable = 1;", ""},
		{"comparable from nil", "LET x: Comparable = NIL;", ""},
		{"any from string", "LET x: Any = \"s\";", ""},
		{"declared type mismatch", "LET x: Integer = 1.0;", "type mismatch: expected Integer, got Decimal"},
		{"comparable rejects boolean", "LET x: Comparable = TRUE;", "type mismatch: expected Comparable, got Boolean"},
		{"non call expression", "LET x = 1; x;", "an expression statement must be a function call"},
		{"assignment to expression", "LET x = 1; (x) = 2;", "the receiver of an assignment must be a variable or field"},
		{"assignment mismatch", "LET x = 1; x = \"s\";", "type mismatch: expected Integer, got String"},
		{"undefined variable", "y = 1;", "the variable y is not defined"},
		{"undefined function", "f(1);", "the function f/1 is not defined"},
		{"wrong arity", "print(1, 2);", "the function print/2 is not defined"},
		{"same frame redeclaration", "LET x = 1; LET x = 2;", "variable x is already defined in this scope"},
		{"shadowing in block", "LET x = 1; IF TRUE DO LET x = \"s\"; print(x); END", ""},
		{"block scope ends", "IF TRUE DO LET inner = 1; print(inner); END print(inner);", "the variable inner is not defined"},
		{"if condition", "IF 1 DO print(1); END", "if condition must be Boolean, not Integer"},
		{"empty then", "IF TRUE DO ELSE print(1); END", "if statement has an empty then branch"},
		{"while condition", "WHILE NIL DO END", "while condition must be Boolean, not Nil"},
		{"empty for body", "LET i = 0; FOR (i = 0; i < 1; i = i + 1) END", "for statement has an empty body"},
		{"for increment type", "LET i = 0; LET d = 0.0; FOR (i = 0; i < 1; d = 1.0) print(i); END", "for increment assigns Decimal but initialization assigns Integer"},
		{"for condition", "LET i = 0; FOR (i = 0; i; i = i + 1) print(i); END", "for condition must be Boolean, not Integer"},
		{"return outside method", "RETURN 1;", "return outside of method"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := New(nil)
			var err error
			for _, stmt := range parseStatements(t, c.source) {
				if err = a.AnalyzeStatement(stmt); err != nil {
					break
				}
			}
			if c.message == "" {
				require.NoError(t, err)
				return
			}
			assert.Equal(t, c.message, analysisError(t, err))
		})
	}
}

func TestConstantAssignment(t *testing.T) {
	a := New(nil)
	require.NoError(t, a.AnalyzeField(parse(t, "LET CONST x = 1;").Fields[0]))
	stmts := parseStatements(t, "x = 2;")
	assert.Equal(t, "cannot assign to constant x", analysisError(t, a.AnalyzeStatement(stmts[0])))
}

func TestBinaryTypes(t *testing.T) {
	cases := []struct {
		source   string
		expected *environment.Type
		message  string
	}{
		{"1 + 2 * 3", environment.Integer, ""},
		{"1.5 / 0.5", environment.Decimal, ""},
		{"\"a\" + 1", environment.String, ""},
		{"1 + \"a\"", environment.String, ""},
		{"'a' < 'b'", environment.Boolean, ""},
		{"1 == \"a\"", environment.Boolean, ""},
		{"TRUE AND FALSE || TRUE", environment.Boolean, ""},
		{"(1 - 2)", environment.Integer, ""},
		{"1 + 1.0", nil, "operator + operands differ: Integer and Decimal"},
		{"TRUE * 2", nil, "operator * needs Integer or Decimal operands, not Boolean"},
		{"1 AND TRUE", nil, "type mismatch: expected Boolean, got Integer"},
		{"TRUE < FALSE", nil, "Boolean is not comparable"},
		{"1 < 1.0", nil, "type mismatch: expected Integer, got Decimal"},
	}

	for _, c := range cases {
		t.Run(c.source, func(t *testing.T) {
			expr := parseExpression(t, c.source)
			err := New(nil).AnalyzeExpression(expr)
			if c.message != "" {
				assert.Equal(t, c.message, analysisError(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.expected, expr.Type())
		})
	}
}

func TestArguments(t *testing.T) {
	a := New(nil)
	require.NoError(t, a.AnalyzeMethods(parse(t, "DEF twice(x: Integer): Integer DO RETURN x * 2; END").Methods[0]))

	call := parseExpression(t, "twice(4)")
	require.NoError(t, a.AnalyzeExpression(call))
	assert.Equal(t, environment.Integer, call.Type())
	assert.Equal(t, "twice", call.(*ast.Function).Function.Name)

	assert.Equal(t, "type mismatch: expected Integer, got Boolean",
		analysisError(t, a.AnalyzeExpression(parseExpression(t, "twice(TRUE)"))))
}

func TestMembers(t *testing.T) {
	point := environment.NewType("Point", "Point")
	point.Members().DefineVariable("x", &environment.Variable{Name: "x", JvmName: "x", Type: environment.Integer})
	point.Members().DefineFunction("scale", 1, &environment.Function{
		Name:           "scale",
		JvmName:        "scale",
		ParameterTypes: []*environment.Type{environment.Integer},
		ReturnType:     point,
	})

	parent := environment.NewScope[*environment.Variable, *environment.Function](nil)
	parent.DefineVariable("p", &environment.Variable{Name: "p", JvmName: "p", Type: point})
	a := New(parent)

	expr := parseExpression(t, "p.scale(2).x + 1")
	require.NoError(t, a.AnalyzeExpression(expr))
	assert.Equal(t, environment.Integer, expr.Type())

	assert.Equal(t, "the variable y is not defined", analysisError(t, a.AnalyzeExpression(parseExpression(t, "p.y"))))
	assert.Equal(t, "values of type Integer have no members", analysisError(t, a.AnalyzeExpression(parseExpression(t, "p.x.y"))))
}

func TestReanalysis(t *testing.T) {
	src := parse(t, `
LET scale = 2.5;
DEF area(w: Decimal, h: Decimal): Decimal DO RETURN w * h * scale; END
DEF main() DO
    IF area(1.0, 2.0) > 4.0 DO RETURN 1; END
    RETURN 0;
END
`)
	require.NoError(t, New(nil).Analyze(src))

	var collect func(expr ast.Expression, into *[]*environment.Type)
	collect = func(expr ast.Expression, into *[]*environment.Type) {
		*into = append(*into, expr.Type())
		switch e := expr.(type) {
		case *ast.Binary:
			collect(e.Left, into)
			collect(e.Right, into)
		case *ast.Function:
			for _, arg := range e.Arguments {
				collect(arg, into)
			}
		}
	}
	snapshot := func() []*environment.Type {
		var types []*environment.Type
		collect(src.Fields[0].Value, &types)
		collect(src.Methods[0].Statements[0].(*ast.Return).Value, &types)
		cond := src.Methods[1].Statements[0].(*ast.If).Condition
		collect(cond, &types)
		return types
	}

	first := snapshot()
	require.NoError(t, New(nil).Analyze(src))
	assert.Equal(t, first, snapshot())
	assert.Equal(t, environment.Decimal, first[1])
}
