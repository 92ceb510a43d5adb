package ast

import (
	"github.com/pontaoski/plc/environment"
)

// Typed is the resolved-type slot every expression carries. The analyzer
// fills it; reading it before that is a bug.
type Typed struct {
	typ *environment.Type
}

func (t *Typed) SetType(typ *environment.Type) {
	t.typ = typ
}

func (t *Typed) Type() *environment.Type {
	if t.typ == nil {
		panic("expression type read before analysis")
	}
	return t.typ
}

type Source struct {
	Fields  []*Field
	Methods []*Method
}

type Field struct {
	Name     string
	TypeName *string
	Constant bool
	Value    Expression

	Variable *environment.Variable
}

type Method struct {
	Name               string
	Parameters         []string
	ParameterTypeNames []*string
	ReturnTypeName     *string
	Statements         []Statement

	Function *environment.Function
}

type Statement interface {
	is_Statement()
}

type ExpressionStmt struct {
	Expression Expression
}

func (v *ExpressionStmt) is_Statement() {}

type Declaration struct {
	Name     string
	TypeName *string
	Value    Expression

	Variable *environment.Variable
}

func (v *Declaration) is_Statement() {}

type Assignment struct {
	Receiver Expression
	Value    Expression
}

func (v *Assignment) is_Statement() {}

type If struct {
	Condition Expression
	Then      []Statement
	Else      []Statement
}

func (v *If) is_Statement() {}

type For struct {
	Initialization Statement
	Condition      Expression
	Increment      Statement
	Statements     []Statement
}

func (v *For) is_Statement() {}

type While struct {
	Condition  Expression
	Statements []Statement
}

func (v *While) is_Statement() {}

type Return struct {
	Value Expression
}

func (v *Return) is_Statement() {}

type Expression interface {
	is_Expression()
	SetType(*environment.Type)
	Type() *environment.Type
}

// Literal holds nil, bool, rune, string, *big.Int or decimal.Decimal.
type Literal struct {
	Typed
	Value interface{}
}

func (v *Literal) is_Expression() {}

type Group struct {
	Typed
	Expression Expression
}

func (v *Group) is_Expression() {}

type Binary struct {
	Typed
	Operator string
	Left     Expression
	Right    Expression
}

func (v *Binary) is_Expression() {}

// Access is a variable reference, or a field access when Receiver is set.
type Access struct {
	Typed
	Receiver Expression
	Name     string

	Variable *environment.Variable
}

func (v *Access) is_Expression() {}

// Function is a call, or a method call when Receiver is set.
type Function struct {
	Typed
	Receiver  Expression
	Name      string
	Arguments []Expression

	Function *environment.Function
}

func (v *Function) is_Expression() {}
