package llvmgen

import (
	"fmt"
	"math/big"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pontaoski/plc/ast"
	"github.com/pontaoski/plc/environment"
	"github.com/ztrue/tracerr"
)

// Unsupported is returned for programs that use values the LLVM backend
// cannot represent. Only Integer, Boolean and Nil are lowered, plus string
// literals passed straight to print.
type Unsupported struct {
	Message string
}

func (u Unsupported) Error() string {
	return u.Message
}

func unsupported(msg string, fmts ...interface{}) {
	panic(Unsupported{Message: fmt.Sprintf(msg, fmts...)})
}

type signature struct {
	name  string
	arity int
}

type ctx struct {
	module  *ir.Module
	names   []map[string]value.Value
	funcs   map[signature]*ir.Func
	fn      *ir.Func
	entry   *ir.Block
	block   *ir.Block
	printf  *ir.Func
	exit    *ir.Func
	strings map[string]value.Value
	counter int
}

func (c *ctx) pushScope() {
	c.names = append(c.names, make(map[string]value.Value))
}

func (c *ctx) popScope() {
	c.names = c.names[:len(c.names)-1]
}

func (c *ctx) top() map[string]value.Value {
	return c.names[len(c.names)-1]
}

func (c *ctx) lookup(name string) value.Value {
	for i := len(c.names) - 1; i >= 0; i-- {
		if val, ok := c.names[i][name]; ok {
			return val
		}
	}
	panic("could not lookup " + name)
}

func (c *ctx) newBlock(name string) *ir.Block {
	c.counter++
	return c.fn.NewBlock(fmt.Sprintf("%s.%d", name, c.counter))
}

// alloca reserves a stack slot in the entry block so loops do not grow the
// stack.
func (c *ctx) alloca(t types.Type) *ir.InstAlloca {
	slot := ir.NewAlloca(t)
	c.entry.Insts = append([]ir.Instruction{slot}, c.entry.Insts...)
	return slot
}

func (c *ctx) stringConstant(s string) value.Value {
	if v, ok := c.strings[s]; ok {
		return v
	}
	data := constant.NewCharArrayFromString(s + "\x00")
	def := c.module.NewGlobalDef(fmt.Sprintf(".str.%d", len(c.strings)), data)
	def.Immutable = true
	ptr := constant.NewGetElementPtr(data.Typ, def, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	c.strings[s] = ptr
	return ptr
}

func mangle(name string, arity int) string {
	return fmt.Sprintf("plc.%s.%d", name, arity)
}

// Generate lowers an analyzed program to an LLVM module whose C entry point
// initializes the fields and returns the result of main/0.
func Generate(src *ast.Source) (m *ir.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(Unsupported)
			if ok {
				m = nil
				err = tracerr.Wrap(rerr)
			} else {
				panic(r)
			}
		}
	}()

	c := &ctx{
		module:  ir.NewModule(),
		funcs:   make(map[signature]*ir.Func),
		strings: make(map[string]value.Value),
	}
	c.pushScope()

	builtins := addBuiltins(c.module)
	c.printf = builtins["printf"]
	c.exit = builtins["exit"]

	for _, f := range src.Fields {
		t := lowerType(f.Variable.Type)
		var init constant.Constant = constant.NewInt(types.I32, 0)
		if t == types.I1 {
			init = constant.False
		}
		c.top()[f.Name] = c.module.NewGlobalDef(f.Name, init)
	}

	for _, method := range src.Methods {
		fn := method.Function
		var params []*ir.Param
		for i, param := range method.Parameters {
			params = append(params, ir.NewParam(param, lowerType(fn.ParameterTypes[i])))
		}
		c.funcs[signature{method.Name, len(method.Parameters)}] = c.module.NewFunc(mangle(method.Name, len(method.Parameters)), lowerType(fn.ReturnType), params...)
	}

	// field initializers run before main
	c.fn = c.module.NewFunc("main", types.I32)
	c.entry = c.fn.NewBlock("entry")
	c.block = c.entry
	for _, f := range src.Fields {
		if f.Value != nil {
			c.block.NewStore(c.expression(f.Value), c.lookup(f.Name))
		}
	}
	result := c.block.NewCall(c.funcs[signature{"main", 0}])
	c.block.NewRet(result)

	for _, method := range src.Methods {
		c.method(method)
	}

	return c.module, nil
}

func (c *ctx) method(m *ast.Method) {
	c.fn = c.funcs[signature{m.Name, len(m.Parameters)}]
	c.entry = c.fn.NewBlock("entry")
	c.block = c.entry

	c.pushScope()
	for i, param := range c.fn.Params {
		slot := c.alloca(param.Typ)
		c.block.NewStore(param, slot)
		c.top()[m.Parameters[i]] = slot
	}
	c.statements(m.Statements)
	c.popScope()

	// blocks that fall off the end return the zero value
	for _, b := range c.fn.Blocks {
		if b.Term != nil {
			continue
		}
		switch t := c.fn.Sig.RetType.(type) {
		case *types.IntType:
			b.NewRet(constant.NewInt(t, 0))
		default:
			b.NewRet(nil)
		}
	}
}

func (c *ctx) statements(stmts []ast.Statement) {
	c.pushScope()
	for _, stmt := range stmts {
		c.statement(stmt)
	}
	c.popScope()
}

// branch ends the current block with a jump unless it already returned.
func (c *ctx) branch(target *ir.Block) {
	if c.block.Term == nil {
		c.block.NewBr(target)
	}
}

func (c *ctx) statement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		c.expression(s.Expression)
	case *ast.Declaration:
		slot := c.alloca(lowerType(s.Variable.Type))
		if s.Value != nil {
			c.block.NewStore(c.expression(s.Value), slot)
		}
		c.top()[s.Name] = slot
	case *ast.Assignment:
		access, ok := s.Receiver.(*ast.Access)
		if !ok || access.Receiver != nil {
			unsupported("the LLVM backend only assigns to variables")
		}
		c.block.NewStore(c.expression(s.Value), c.lookup(access.Name))
	case *ast.If:
		cond := c.expression(s.Condition)
		then, otherwise, merge := c.newBlock("then"), c.newBlock("else"), c.newBlock("ifcont")
		c.block.NewCondBr(cond, then, otherwise)

		c.block = then
		c.statements(s.Then)
		c.branch(merge)

		c.block = otherwise
		c.statements(s.Else)
		c.branch(merge)

		c.block = merge
	case *ast.For:
		c.pushScope()
		if s.Initialization != nil {
			c.statement(s.Initialization)
		}
		c.loop(s.Condition, func() {
			c.statements(s.Statements)
			if s.Increment != nil && c.block.Term == nil {
				c.statement(s.Increment)
			}
		})
		c.popScope()
	case *ast.While:
		c.loop(s.Condition, func() {
			c.statements(s.Statements)
		})
	case *ast.Return:
		if s.Value.Type() == environment.Nil {
			c.block.NewRet(nil)
		} else {
			c.block.NewRet(c.expression(s.Value))
		}
		// anything after a return lands in an unreachable block
		c.block = c.newBlock("dead")
	default:
		panic("unhandled statement")
	}
}

func (c *ctx) loop(condition ast.Expression, body func()) {
	head, inner, exit := c.newBlock("cond"), c.newBlock("body"), c.newBlock("exit")
	c.block.NewBr(head)

	c.block = head
	c.block.NewCondBr(c.expression(condition), inner, exit)

	c.block = inner
	body()
	c.branch(head)

	c.block = exit
}

var predicates = map[string]enum.IPred{
	"==": enum.IPredEQ,
	"!=": enum.IPredNE,
	"<":  enum.IPredSLT,
	"<=": enum.IPredSLE,
	">":  enum.IPredSGT,
	">=": enum.IPredSGE,
}

func (c *ctx) expression(expr ast.Expression) value.Value {
	switch e := expr.(type) {
	case *ast.Literal:
		switch lit := e.Value.(type) {
		case bool:
			if lit {
				return constant.True
			}
			return constant.False
		case *big.Int:
			return constant.NewInt(types.I32, lit.Int64())
		}
		unsupported("the LLVM backend does not support %s literals", e.Type())
	case *ast.Group:
		return c.expression(e.Expression)
	case *ast.Binary:
		return c.binary(e)
	case *ast.Access:
		if e.Receiver != nil {
			unsupported("the LLVM backend does not support field access")
		}
		return c.block.NewLoad(lowerType(e.Type()), c.lookup(e.Name))
	case *ast.Function:
		if e.Receiver != nil {
			unsupported("the LLVM backend does not support method calls")
		}
		if e.Name == "print" && len(e.Arguments) == 1 {
			return c.print(e.Arguments[0])
		}
		var args []value.Value
		for _, arg := range e.Arguments {
			args = append(args, c.expression(arg))
		}
		return c.block.NewCall(c.funcs[signature{e.Name, len(e.Arguments)}], args...)
	}
	panic("unhandled expression")
}

func (c *ctx) print(arg ast.Expression) value.Value {
	if lit, ok := arg.(*ast.Literal); ok {
		if s, ok := lit.Value.(string); ok {
			return c.block.NewCall(c.printf, c.stringConstant("%s\n"), c.stringConstant(s))
		}
	}
	val := c.expression(arg)
	switch arg.Type() {
	case environment.Integer:
		return c.block.NewCall(c.printf, c.stringConstant("%d\n"), val)
	case environment.Boolean:
		text := c.block.NewSelect(val, c.stringConstant("true"), c.stringConstant("false"))
		return c.block.NewCall(c.printf, c.stringConstant("%s\n"), text)
	}
	unsupported("the LLVM backend cannot print %s values", arg.Type())
	return nil
}

func (c *ctx) binary(e *ast.Binary) value.Value {
	switch e.Operator {
	case "AND", "&&", "OR", "||":
		return c.shortCircuit(e)
	}

	left := c.expression(e.Left)
	right := c.expression(e.Right)

	if pred, ok := predicates[e.Operator]; ok {
		return c.block.NewICmp(pred, left, right)
	}
	if e.Type() != environment.Integer {
		unsupported("the LLVM backend does not support %s on %s", e.Operator, e.Type())
	}
	switch e.Operator {
	case "+":
		return c.block.NewAdd(left, right)
	case "-":
		return c.block.NewSub(left, right)
	case "*":
		return c.block.NewMul(left, right)
	case "/":
		fail, ok := c.newBlock("divzero"), c.newBlock("div")
		zero := c.block.NewICmp(enum.IPredEQ, right, constant.NewInt(types.I32, 0))
		c.block.NewCondBr(zero, fail, ok)

		fail.NewCall(c.printf, c.stringConstant("%s\n"), c.stringConstant("division by zero"))
		fail.NewCall(c.exit, constant.NewInt(types.I32, 1))
		fail.NewUnreachable()

		c.block = ok
		return c.block.NewSDiv(left, right)
	}
	panic("unhandled operator " + e.Operator)
}

// shortCircuit evaluates the right operand only when the left one does not
// decide the result.
func (c *ctx) shortCircuit(e *ast.Binary) value.Value {
	result := c.alloca(types.I1)
	left := c.expression(e.Left)
	c.block.NewStore(left, result)

	rhs, done := c.newBlock("rhs"), c.newBlock("sc")
	if e.Operator == "AND" || e.Operator == "&&" {
		c.block.NewCondBr(left, rhs, done)
	} else {
		c.block.NewCondBr(left, done, rhs)
	}

	c.block = rhs
	c.block.NewStore(c.expression(e.Right), result)
	c.block.NewBr(done)

	c.block = done
	return c.block.NewLoad(types.I1, result)
}
