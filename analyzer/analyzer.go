package analyzer

import (
	"math"
	"math/big"

	"github.com/pontaoski/plc/ast"
	"github.com/pontaoski/plc/environment"
	"github.com/pontaoski/plc/errors"
	"github.com/shopspring/decimal"
	"github.com/ztrue/tracerr"
)

type methodContext struct {
	function *environment.Function
	// infer is set when the method has no declared return type; the first
	// RETURN then fixes it.
	infer    bool
	returned bool
}

// ctx is threaded through every visit. Entering a block creates a child
// ctx; leaving the block simply drops it.
type ctx struct {
	scope  *environment.TypeScope
	method *methodContext
}

func (c ctx) child() ctx {
	return ctx{scope: environment.NewScope(c.scope), method: c.method}
}

// Analyzer resolves names and types in a syntax tree, filling the binding
// and type slots of the nodes it visits.
type Analyzer struct {
	scope *environment.TypeScope
}

// New creates an analyzer whose root scope is a child of parent, with the
// built-in functions declared.
func New(parent *environment.TypeScope) *Analyzer {
	return &Analyzer{scope: environment.NewTypeScope(parent)}
}

func (a *Analyzer) Scope() *environment.TypeScope {
	return a.scope
}

func (a *Analyzer) root() ctx {
	return ctx{scope: a.scope}
}

func catch(err *error) {
	if r := recover(); r != nil {
		rerr, ok := r.(errors.AnalysisError)
		if ok {
			*err = tracerr.Wrap(rerr)
		} else {
			panic(r)
		}
	}
}

func fail(msg string, fmts ...interface{}) {
	panic(errors.NewAnalysisError(msg, fmts...))
}

// Analyze checks a whole program. On error the tree may be partially
// annotated and must not be executed.
func (a *Analyzer) Analyze(src *ast.Source) (err error) {
	defer catch(&err)
	a.visitSource(a.root(), src)
	return nil
}

// AnalyzeField declares a single field in the root scope.
func (a *Analyzer) AnalyzeField(f *ast.Field) (err error) {
	defer catch(&err)
	a.visitField(a.root(), f)
	return nil
}

// AnalyzeMethods declares methods in the root scope. They may call each
// other regardless of order.
func (a *Analyzer) AnalyzeMethods(methods ...*ast.Method) (err error) {
	defer catch(&err)
	a.visitMethods(a.root(), methods)
	return nil
}

// AnalyzeStatement checks a statement against the root scope. Declarations
// it makes stay in the root scope.
func (a *Analyzer) AnalyzeStatement(stmt ast.Statement) (err error) {
	defer catch(&err)
	a.visitStatement(a.root(), stmt)
	return nil
}

func (a *Analyzer) AnalyzeExpression(expr ast.Expression) (err error) {
	defer catch(&err)
	a.visitExpression(a.root(), expr)
	return nil
}

func (a *Analyzer) visitSource(c ctx, src *ast.Source) {
	for _, f := range src.Fields {
		a.visitField(c, f)
	}
	a.visitMethods(c, src.Methods)

	main, ok := c.scope.LookupFunction("main", 0)
	if !ok {
		fail("the main/0 function is not defined")
	}
	if main.ReturnType != environment.Integer {
		fail("main/0 must return Integer, not %s", main.ReturnType)
	}
}

// declaredType resolves an optional type annotation against an optional
// initial value and returns the variable's type.
func (a *Analyzer) declaredType(c ctx, name string, typeName *string, value ast.Expression) *environment.Type {
	var t *environment.Type
	if typeName != nil {
		t = environment.GetType(*typeName)
	}
	if value != nil {
		a.visitExpression(c, value)
		if t == nil {
			t = value.Type()
		} else {
			environment.RequireAssignable(t, value.Type())
		}
	}
	if t == nil {
		fail("%s needs a type or an initial value", name)
	}
	return t
}

func (a *Analyzer) visitField(c ctx, f *ast.Field) {
	if f.Constant && f.Value == nil {
		fail("constant field %s must be initialized", f.Name)
	}
	v := &environment.Variable{
		Name:     f.Name,
		JvmName:  f.Name,
		Type:     a.declaredType(c, f.Name, f.TypeName, f.Value),
		Constant: f.Constant,
	}
	if !c.scope.DefineVariable(f.Name, v) {
		fail("field %s is already defined", f.Name)
	}
	f.Variable = v
}

// visitMethods declares every signature before visiting any body, so
// methods may call methods declared after them.
func (a *Analyzer) visitMethods(c ctx, methods []*ast.Method) {
	contexts := make([]*methodContext, len(methods))
	for i, m := range methods {
		contexts[i] = a.declareMethod(c, m)
	}
	for i, m := range methods {
		a.visitBody(c, m, contexts[i])
	}
}

// declareMethod defines the signature of m in c. A method without a return
// type is provisionally Any until its body is visited.
func (a *Analyzer) declareMethod(c ctx, m *ast.Method) *methodContext {
	fn := &environment.Function{
		Name:    m.Name,
		JvmName: m.Name,
	}
	for i := range m.Parameters {
		t := environment.Any
		if i < len(m.ParameterTypeNames) && m.ParameterTypeNames[i] != nil {
			t = environment.GetType(*m.ParameterTypeNames[i])
		}
		fn.ParameterTypes = append(fn.ParameterTypes, t)
	}

	mc := &methodContext{function: fn}
	if m.ReturnTypeName != nil {
		fn.ReturnType = environment.GetType(*m.ReturnTypeName)
	} else {
		// provisional until the first RETURN is analyzed
		fn.ReturnType = environment.Any
		mc.infer = true
	}

	if !c.scope.DefineFunction(m.Name, len(m.Parameters), fn) {
		fail("method %s/%d is already defined", m.Name, len(m.Parameters))
	}
	m.Function = fn
	return mc
}

func (a *Analyzer) visitBody(c ctx, m *ast.Method, mc *methodContext) {
	fn := mc.function
	body := ctx{scope: environment.NewScope(c.scope), method: mc}
	for i, param := range m.Parameters {
		v := &environment.Variable{Name: param, JvmName: param, Type: fn.ParameterTypes[i]}
		if !body.scope.DefineVariable(param, v) {
			fail("parameter %s of %s is declared twice", param, m.Name)
		}
	}
	a.visitStatements(body, m.Statements)

	if mc.infer && !mc.returned {
		fn.ReturnType = environment.Nil
	}
}

func (a *Analyzer) visitStatements(c ctx, stmts []ast.Statement) {
	for _, stmt := range stmts {
		a.visitStatement(c, stmt)
	}
}

func (a *Analyzer) visitStatement(c ctx, stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		if _, ok := s.Expression.(*ast.Function); !ok {
			fail("an expression statement must be a function call")
		}
		a.visitExpression(c, s.Expression)
	case *ast.Declaration:
		v := &environment.Variable{
			Name:    s.Name,
			JvmName: s.Name,
			Type:    a.declaredType(c, s.Name, s.TypeName, s.Value),
		}
		if !c.scope.DefineVariable(s.Name, v) {
			fail("variable %s is already defined in this scope", s.Name)
		}
		s.Variable = v
	case *ast.Assignment:
		a.visitAssignment(c, s)
	case *ast.If:
		a.requireCondition(c, s.Condition, "if")
		if len(s.Then) == 0 {
			fail("if statement has an empty then branch")
		}
		a.visitStatements(c.child(), s.Then)
		if len(s.Else) > 0 {
			a.visitStatements(c.child(), s.Else)
		}
	case *ast.For:
		a.visitFor(c, s)
	case *ast.While:
		a.requireCondition(c, s.Condition, "while")
		a.visitStatements(c.child(), s.Statements)
	case *ast.Return:
		a.visitReturn(c, s)
	default:
		panic("unhandled statement")
	}
}

func (a *Analyzer) requireCondition(c ctx, cond ast.Expression, construct string) {
	a.visitExpression(c, cond)
	if cond.Type() != environment.Boolean {
		fail("%s condition must be Boolean, not %s", construct, cond.Type())
	}
}

func (a *Analyzer) visitAssignment(c ctx, s *ast.Assignment) {
	access, ok := s.Receiver.(*ast.Access)
	if !ok {
		fail("the receiver of an assignment must be a variable or field")
	}
	a.visitExpression(c, access)
	a.visitExpression(c, s.Value)
	if access.Variable.Constant {
		fail("cannot assign to constant %s", access.Name)
	}
	environment.RequireAssignable(access.Variable.Type, s.Value.Type())
}

// assignedType returns the type of the variable a FOR clause assigns to.
func assignedType(stmt ast.Statement) *environment.Type {
	if assign, ok := stmt.(*ast.Assignment); ok {
		if access, ok := assign.Receiver.(*ast.Access); ok && access.Variable != nil {
			return access.Variable.Type
		}
	}
	return nil
}

func (a *Analyzer) visitFor(c ctx, s *ast.For) {
	loop := c.child()
	if s.Initialization != nil {
		a.visitStatement(loop, s.Initialization)
	}
	a.requireCondition(loop, s.Condition, "for")
	if s.Increment != nil {
		a.visitStatement(loop, s.Increment)
		if s.Initialization != nil {
			init, incr := assignedType(s.Initialization), assignedType(s.Increment)
			if init != nil && incr != nil && init != incr {
				fail("for increment assigns %s but initialization assigns %s", incr, init)
			}
		}
	}
	if len(s.Statements) == 0 {
		fail("for statement has an empty body")
	}
	a.visitStatements(loop.child(), s.Statements)
}

func (a *Analyzer) visitReturn(c ctx, s *ast.Return) {
	a.visitExpression(c, s.Value)
	if c.method == nil {
		fail("return outside of method")
	}
	mc := c.method
	if mc.infer && !mc.returned {
		mc.function.ReturnType = s.Value.Type()
		mc.returned = true
		return
	}
	environment.RequireAssignable(mc.function.ReturnType, s.Value.Type())
}

var (
	minInt = big.NewInt(math.MinInt32)
	maxInt = big.NewInt(math.MaxInt32)
)

func (a *Analyzer) visitExpression(c ctx, expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.Literal:
		e.SetType(literalType(e.Value))
	case *ast.Group:
		a.visitExpression(c, e.Expression)
		e.SetType(e.Expression.Type())
	case *ast.Binary:
		a.visitBinary(c, e)
	case *ast.Access:
		a.visitAccess(c, e)
	case *ast.Function:
		a.visitFunction(c, e)
	default:
		panic("unhandled expression")
	}
}

func literalType(value interface{}) *environment.Type {
	switch v := value.(type) {
	case nil:
		return environment.Nil
	case bool:
		return environment.Boolean
	case rune:
		return environment.Character
	case string:
		return environment.String
	case *big.Int:
		if v.Cmp(minInt) < 0 || v.Cmp(maxInt) > 0 {
			fail("integer literal %s is out of range", v)
		}
		return environment.Integer
	case decimal.Decimal:
		f, _ := v.Float64()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			fail("decimal literal %s is out of range", v)
		}
		return environment.Decimal
	}
	panic("unhandled literal")
}

func isNumeric(t *environment.Type) bool {
	return t == environment.Integer || t == environment.Decimal
}

func (a *Analyzer) visitBinary(c ctx, e *ast.Binary) {
	a.visitExpression(c, e.Left)
	a.visitExpression(c, e.Right)
	left, right := e.Left.Type(), e.Right.Type()

	switch e.Operator {
	case "AND", "OR", "&&", "||":
		environment.RequireAssignable(environment.Boolean, left)
		environment.RequireAssignable(environment.Boolean, right)
		e.SetType(environment.Boolean)
	case "<", "<=", ">", ">=":
		if !environment.IsComparable(left) {
			fail("%s is not comparable", left)
		}
		environment.RequireAssignable(left, right)
		e.SetType(environment.Boolean)
	case "==", "!=":
		e.SetType(environment.Boolean)
	case "+":
		if left == environment.String || right == environment.String {
			e.SetType(environment.String)
			return
		}
		fallthrough
	case "-", "*", "/":
		if !isNumeric(left) {
			fail("operator %s needs Integer or Decimal operands, not %s", e.Operator, left)
		}
		if left != right {
			fail("operator %s operands differ: %s and %s", e.Operator, left, right)
		}
		e.SetType(left)
	default:
		fail("unknown operator %s", e.Operator)
	}
}

// members returns the member scope of a receiver expression's type.
func (a *Analyzer) members(c ctx, receiver ast.Expression) *environment.TypeScope {
	a.visitExpression(c, receiver)
	scope := receiver.Type().Members()
	if scope == nil {
		fail("values of type %s have no members", receiver.Type())
	}
	return scope
}

func (a *Analyzer) visitAccess(c ctx, e *ast.Access) {
	scope := c.scope
	if e.Receiver != nil {
		scope = a.members(c, e.Receiver)
	}
	v, ok := scope.LookupVariable(e.Name)
	if !ok {
		fail("the variable %s is not defined", e.Name)
	}
	e.Variable = v
	e.SetType(v.Type)
}

func (a *Analyzer) visitFunction(c ctx, e *ast.Function) {
	scope := c.scope
	if e.Receiver != nil {
		scope = a.members(c, e.Receiver)
	}
	fn, ok := scope.LookupFunction(e.Name, len(e.Arguments))
	if !ok {
		fail("the function %s/%d is not defined", e.Name, len(e.Arguments))
	}
	for i, arg := range e.Arguments {
		a.visitExpression(c, arg)
		environment.RequireAssignable(fn.ParameterTypes[i], arg.Type())
	}
	e.Function = fn
	e.SetType(fn.ReturnType)
}
