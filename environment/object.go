package environment

import (
	"fmt"
	"math/big"

	"github.com/pontaoski/plc/errors"
	"github.com/shopspring/decimal"
)

// RuntimeScope is the scope chain the interpreter binds values in.
type RuntimeScope = Scope[*Binding, *Callable]

type Kind int

const (
	NilKind Kind = iota
	BooleanKind
	CharacterKind
	StringKind
	IntegerKind
	DecimalKind
	ObjectKind
)

func (k Kind) String() string {
	data := map[Kind]string{
		NilKind:       "Nil",
		BooleanKind:   "Boolean",
		CharacterKind: "Character",
		StringKind:    "String",
		IntegerKind:   "Integer",
		DecimalKind:   "Decimal",
		ObjectKind:    "Object",
	}
	return data[k]
}

// Object is a runtime value. Primitive kinds keep their Go value in Value;
// ObjectKind values keep their fields and methods in a member scope.
type Object struct {
	Kind     Kind
	Value    interface{}
	TypeName string
	members  *RuntimeScope
}

// NIL is the only nil value; every nil in a running program is this pointer.
var NIL = &Object{Kind: NilKind}

var (
	TRUE  = &Object{Kind: BooleanKind, Value: true}
	FALSE = &Object{Kind: BooleanKind, Value: false}
)

func Bool(b bool) *Object {
	if b {
		return TRUE
	}
	return FALSE
}

func Char(r rune) *Object {
	return &Object{Kind: CharacterKind, Value: r}
}

func Str(s string) *Object {
	return &Object{Kind: StringKind, Value: s}
}

func Int(i *big.Int) *Object {
	return &Object{Kind: IntegerKind, Value: i}
}

func Dec(d decimal.Decimal) *Object {
	return &Object{Kind: DecimalKind, Value: d}
}

// Create wraps a literal value produced by the parser.
func Create(value interface{}) *Object {
	switch v := value.(type) {
	case nil:
		return NIL
	case bool:
		return Bool(v)
	case rune:
		return Char(v)
	case string:
		return Str(v)
	case *big.Int:
		return Int(v)
	case decimal.Decimal:
		return Dec(v)
	}
	panic(fmt.Sprintf("cannot create object from %T", value))
}

// NewObject creates a user-defined object with empty field and method tables.
func NewObject(typeName string) *Object {
	return &Object{
		Kind:     ObjectKind,
		TypeName: typeName,
		members:  NewScope[*Binding, *Callable](nil),
	}
}

// Scale is the number of digits after the decimal point of a decimal value.
func Scale(d decimal.Decimal) int32 {
	if d.Exponent() >= 0 {
		return 0
	}
	return -d.Exponent()
}

func (o *Object) String() string {
	switch o.Kind {
	case NilKind:
		return "null"
	case BooleanKind:
		return fmt.Sprint(o.Value.(bool))
	case CharacterKind:
		return string(o.Value.(rune))
	case StringKind:
		return o.Value.(string)
	case IntegerKind:
		return o.Value.(*big.Int).String()
	case DecimalKind:
		d := o.Value.(decimal.Decimal)
		return d.StringFixed(Scale(d))
	}
	return fmt.Sprintf("%s@%p", o.TypeName, o)
}

// Equal is value equality. Values of different kinds are never equal;
// user objects compare by identity.
func (o *Object) Equal(other *Object) bool {
	if o.Kind != other.Kind {
		return false
	}
	switch o.Kind {
	case NilKind:
		return true
	case BooleanKind, CharacterKind, StringKind:
		return o.Value == other.Value
	case IntegerKind:
		return o.Value.(*big.Int).Cmp(other.Value.(*big.Int)) == 0
	case DecimalKind:
		return o.Value.(decimal.Decimal).Equal(other.Value.(decimal.Decimal))
	}
	return o == other
}

// Truthy returns the Go boolean of a Boolean value.
func (o *Object) Truthy() (bool, bool) {
	b, ok := o.Value.(bool)
	return b, ok && o.Kind == BooleanKind
}

func (o *Object) requireMembers() *RuntimeScope {
	if o.members == nil {
		panic(errors.NewRuntimeError("%s value has no members", o.Kind))
	}
	return o.members
}

func (o *Object) DefineField(name string, constant bool, value *Object) {
	o.requireMembers().DefineVariable(name, &Binding{Name: name, Constant: constant, Value: value})
}

func (o *Object) GetField(name string) *Binding {
	b, ok := o.requireMembers().LookupVariable(name)
	if !ok {
		panic(errors.NewRuntimeError("the field %s is not defined on %s", name, o.TypeName))
	}
	return b
}

func (o *Object) SetField(name string, value *Object) {
	b := o.GetField(name)
	if b.Constant {
		panic(errors.NewRuntimeError("cannot assign to constant field %s", name))
	}
	b.Value = value
}

// DefineMethod installs a method. The implementation receives the object
// itself as args[0], followed by arity call arguments.
func (o *Object) DefineMethod(name string, arity int, fn func(args []*Object) (*Object, error)) {
	o.requireMembers().DefineFunction(name, arity, &Callable{Name: name, Arity: arity, Invoke: fn})
}

func (o *Object) CallMethod(name string, args []*Object) (*Object, error) {
	m, ok := o.requireMembers().LookupFunction(name, len(args))
	if !ok {
		panic(errors.NewRuntimeError("the method %s/%d is not defined on %s", name, len(args), o.TypeName))
	}
	return m.Invoke(append([]*Object{o}, args...))
}

// Binding is the interpreter's view of a variable: its current value.
type Binding struct {
	Name     string
	Constant bool
	Value    *Object
}

// Callable is the interpreter's view of a function.
type Callable struct {
	Name   string
	Arity  int
	Invoke func(args []*Object) (*Object, error)
}
