package interpreter

import (
	"fmt"
	"io"
	"os"

	"github.com/pontaoski/plc/ast"
	"github.com/pontaoski/plc/environment"
	"github.com/pontaoski/plc/errors"
	"github.com/ztrue/tracerr"
)

// completion is the outcome of executing a statement. A RETURN produces a
// completion with returned set; blocks and loops hand it upwards untouched
// until a method invocation turns it into the call's result.
type completion struct {
	returned bool
	value    *environment.Object
}

var normal = completion{}

// Interpreter evaluates syntax trees directly. It does not need the tree to
// be analyzed.
type Interpreter struct {
	scope *environment.RuntimeScope
	out   io.Writer
}

// New creates an interpreter whose root scope is a child of parent. print
// writes to out, or to standard output when out is nil.
func New(parent *environment.RuntimeScope, out io.Writer) *Interpreter {
	if out == nil {
		out = os.Stdout
	}
	i := &Interpreter{
		scope: environment.NewScope(parent),
		out:   out,
	}
	i.scope.DefineFunction("print", 1, &environment.Callable{
		Name:  "print",
		Arity: 1,
		Invoke: func(args []*environment.Object) (*environment.Object, error) {
			_, err := fmt.Fprintln(i.out, args[0].String())
			return environment.NIL, err
		},
	})
	return i
}

func (i *Interpreter) Scope() *environment.RuntimeScope {
	return i.scope
}

// invokeError carries an error returned by a callable up to catch.
type invokeError struct {
	err error
}

func catch(err *error) {
	if r := recover(); r != nil {
		switch rerr := r.(type) {
		case errors.RuntimeError:
			*err = tracerr.Wrap(rerr)
		case invokeError:
			*err = tracerr.Wrap(rerr.err)
		default:
			panic(r)
		}
	}
}

func fail(msg string, fmts ...interface{}) {
	panic(errors.NewRuntimeError(msg, fmts...))
}

// Run binds every field and method of src and invokes main/0. The value
// main returns is the program's result.
func (i *Interpreter) Run(src *ast.Source) (result *environment.Object, err error) {
	defer catch(&err)
	for _, f := range src.Fields {
		i.visitField(i.scope, f)
	}
	for _, m := range src.Methods {
		i.visitMethod(i.scope, m)
	}
	main, ok := i.scope.LookupFunction("main", 0)
	if !ok {
		fail("the main/0 function is not defined")
	}
	return i.call(main, nil), nil
}

// Declare binds a field in the root scope.
func (i *Interpreter) Declare(f *ast.Field) (err error) {
	defer catch(&err)
	i.visitField(i.scope, f)
	return nil
}

// Define binds a method in the root scope.
func (i *Interpreter) Define(m *ast.Method) (err error) {
	defer catch(&err)
	i.visitMethod(i.scope, m)
	return nil
}

// Execute runs a statement in the root scope.
func (i *Interpreter) Execute(stmt ast.Statement) (err error) {
	defer catch(&err)
	if i.exec(i.scope, stmt).returned {
		fail("return outside of method")
	}
	return nil
}

func (i *Interpreter) Evaluate(expr ast.Expression) (result *environment.Object, err error) {
	defer catch(&err)
	return i.eval(i.scope, expr), nil
}

func (i *Interpreter) visitField(scope *environment.RuntimeScope, f *ast.Field) {
	value := environment.NIL
	if f.Value != nil {
		value = i.eval(scope, f.Value)
	}
	if !scope.DefineVariable(f.Name, &environment.Binding{Name: f.Name, Constant: f.Constant, Value: value}) {
		fail("the field %s is already defined", f.Name)
	}
}

// visitMethod binds m as a closure over the scope it is defined in.
func (i *Interpreter) visitMethod(scope *environment.RuntimeScope, m *ast.Method) {
	callable := &environment.Callable{
		Name:  m.Name,
		Arity: len(m.Parameters),
		Invoke: func(args []*environment.Object) (*environment.Object, error) {
			frame := environment.NewScope(scope)
			for idx, param := range m.Parameters {
				frame.DefineVariable(param, &environment.Binding{Name: param, Value: args[idx]})
			}
			if c := i.execBlock(frame, m.Statements); c.returned {
				return c.value, nil
			}
			return environment.NIL, nil
		},
	}
	if !scope.DefineFunction(m.Name, len(m.Parameters), callable) {
		fail("the method %s/%d is already defined", m.Name, len(m.Parameters))
	}
}

func (i *Interpreter) call(fn *environment.Callable, args []*environment.Object) *environment.Object {
	if len(args) != fn.Arity {
		fail("%s expects %d arguments, received %d", fn.Name, fn.Arity, len(args))
	}
	result, err := fn.Invoke(args)
	if err != nil {
		panic(invokeError{err})
	}
	return result
}

// execBlock runs stmts in scope, stopping at the first RETURN.
func (i *Interpreter) execBlock(scope *environment.RuntimeScope, stmts []ast.Statement) completion {
	for _, stmt := range stmts {
		if c := i.exec(scope, stmt); c.returned {
			return c
		}
	}
	return normal
}

func (i *Interpreter) exec(scope *environment.RuntimeScope, stmt ast.Statement) completion {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		i.eval(scope, s.Expression)
	case *ast.Declaration:
		value := environment.NIL
		if s.Value != nil {
			value = i.eval(scope, s.Value)
		}
		if !scope.DefineVariable(s.Name, &environment.Binding{Name: s.Name, Value: value}) {
			fail("the variable %s is already defined in this scope", s.Name)
		}
	case *ast.Assignment:
		i.assign(scope, s)
	case *ast.If:
		if requireBoolean(i.eval(scope, s.Condition)) {
			return i.execBlock(environment.NewScope(scope), s.Then)
		}
		return i.execBlock(environment.NewScope(scope), s.Else)
	case *ast.For:
		loop := environment.NewScope(scope)
		if s.Initialization != nil {
			i.exec(loop, s.Initialization)
		}
		for requireBoolean(i.eval(loop, s.Condition)) {
			if c := i.execBlock(environment.NewScope(loop), s.Statements); c.returned {
				return c
			}
			if s.Increment != nil {
				i.exec(loop, s.Increment)
			}
		}
	case *ast.While:
		for requireBoolean(i.eval(scope, s.Condition)) {
			if c := i.execBlock(environment.NewScope(scope), s.Statements); c.returned {
				return c
			}
		}
	case *ast.Return:
		return completion{returned: true, value: i.eval(scope, s.Value)}
	default:
		panic("unhandled statement")
	}
	return normal
}

func (i *Interpreter) assign(scope *environment.RuntimeScope, s *ast.Assignment) {
	access, ok := s.Receiver.(*ast.Access)
	if !ok {
		fail("the receiver of an assignment must be a variable or field")
	}
	value := i.eval(scope, s.Value)
	if access.Receiver != nil {
		i.eval(scope, access.Receiver).SetField(access.Name, value)
		return
	}
	b := lookupVariable(scope, access.Name)
	if b.Constant {
		fail("cannot assign to constant %s", access.Name)
	}
	b.Value = value
}

func lookupVariable(scope *environment.RuntimeScope, name string) *environment.Binding {
	b, ok := scope.LookupVariable(name)
	if !ok {
		fail("the variable %s is not defined", name)
	}
	return b
}

func requireBoolean(o *environment.Object) bool {
	b, ok := o.Truthy()
	if !ok {
		fail("expected Boolean, received %s", o.Kind)
	}
	return b
}

func (i *Interpreter) eval(scope *environment.RuntimeScope, expr ast.Expression) *environment.Object {
	switch e := expr.(type) {
	case *ast.Literal:
		return environment.Create(e.Value)
	case *ast.Group:
		return i.eval(scope, e.Expression)
	case *ast.Binary:
		return i.evalBinary(scope, e)
	case *ast.Access:
		if e.Receiver != nil {
			return i.eval(scope, e.Receiver).GetField(e.Name).Value
		}
		return lookupVariable(scope, e.Name).Value
	case *ast.Function:
		args := make([]*environment.Object, len(e.Arguments))
		for idx, arg := range e.Arguments {
			args[idx] = i.eval(scope, arg)
		}
		if e.Receiver != nil {
			result, err := i.eval(scope, e.Receiver).CallMethod(e.Name, args)
			if err != nil {
				panic(invokeError{err})
			}
			return result
		}
		fn, ok := scope.LookupFunction(e.Name, len(args))
		if !ok {
			fail("the function %s/%d is not defined", e.Name, len(args))
		}
		return i.call(fn, args)
	}
	panic("unhandled expression")
}
