package environment

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeChain(t *testing.T) {
	root := NewScope[int, string](nil)
	require.True(t, root.DefineVariable("x", 1))
	require.False(t, root.DefineVariable("x", 2), "same frame redefinition")

	child := NewScope(root)
	assert.Same(t, root, child.Parent())
	require.True(t, child.DefineVariable("x", 3), "shadowing in a child frame")

	v, ok := child.LookupVariable("x")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	v, ok = root.LookupVariable("x")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = child.LookupVariable("y")
	assert.False(t, ok)
}

func TestFunctionsByArity(t *testing.T) {
	root := NewScope[int, string](nil)
	require.True(t, root.DefineFunction("f", 0, "f/0"))
	require.True(t, root.DefineFunction("f", 1, "f/1"))
	require.False(t, root.DefineFunction("f", 1, "again"))
	require.True(t, root.DefineVariable("f", 7), "variables and functions are separate namespaces")

	child := NewScope(root)
	f, ok := child.LookupFunction("f", 1)
	require.True(t, ok)
	assert.Equal(t, "f/1", f)
	_, ok = child.LookupFunction("f", 2)
	assert.False(t, ok)
}

func TestAssignable(t *testing.T) {
	cases := []struct {
		target, source *Type
		ok             bool
	}{
		{Integer, Integer, true},
		{Any, Boolean, true},
		{Any, Nil, true},
		{Comparable, Integer, true},
		{Comparable, Decimal, true},
		{Comparable, Character, true},
		{Comparable, String, true},
		{Comparable, Nil, true},
		{Comparable, Boolean, false},
		{Comparable, Any, false},
		{Integer, Decimal, false},
		{Integer, Any, false},
		{Nil, Integer, false},
	}

	for _, c := range cases {
		t.Run(c.target.Name+"<-"+c.source.Name, func(t *testing.T) {
			assert.Equal(t, c.ok, Assignable(c.target, c.source))
		})
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range []string{"Any", "Nil", "Comparable", "Boolean", "Integer", "Decimal", "Character", "String"} {
		typ, ok := LookupType(name)
		require.True(t, ok, name)
		assert.Equal(t, name, typ.String())
	}
	_, ok := LookupType("Widget")
	assert.False(t, ok)
	assert.Panics(t, func() { GetType("Widget") })
	assert.Nil(t, Integer.Members())

	fn, ok := NewTypeScope(nil).LookupFunction("print", 1)
	require.True(t, ok)
	assert.Equal(t, "System.out.println", fn.JvmName)
	assert.Equal(t, Nil, fn.ReturnType)
}

func TestObjectString(t *testing.T) {
	assert.Equal(t, "null", NIL.String())
	assert.Equal(t, "true", TRUE.String())
	assert.Equal(t, "c", Char('c').String())
	assert.Equal(t, "-12", Int(big.NewInt(-12)).String())
	assert.Equal(t, "1.50", Dec(decimal.RequireFromString("1.50")).String())
	assert.Equal(t, "100", Dec(decimal.New(1, 2)).String())
}

func TestObjectEqual(t *testing.T) {
	assert.True(t, Int(big.NewInt(3)).Equal(Int(big.NewInt(3))))
	assert.True(t, Dec(decimal.RequireFromString("1.0")).Equal(Dec(decimal.RequireFromString("1.00"))))
	assert.False(t, Int(big.NewInt(1)).Equal(Dec(decimal.NewFromInt(1))))
	assert.True(t, Str("a").Equal(Str("a")))
	assert.True(t, NIL.Equal(Create(nil)))

	a, b := NewObject("Thing"), NewObject("Thing")
	assert.True(t, a.Equal(a))
	assert.False(t, a.Equal(b))
}

func TestCreate(t *testing.T) {
	assert.Same(t, NIL, Create(nil))
	assert.Same(t, TRUE, Create(true))
	assert.Equal(t, CharacterKind, Create('x').Kind)
	assert.Equal(t, StringKind, Create("x").Kind)
	assert.Equal(t, IntegerKind, Create(big.NewInt(1)).Kind)
	assert.Equal(t, DecimalKind, Create(decimal.NewFromInt(1)).Kind)
	assert.Panics(t, func() { Create(1.5) })
}
