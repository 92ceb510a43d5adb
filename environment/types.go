package environment

import (
	"github.com/pontaoski/plc/errors"
)

// TypeScope is the scope chain the analyzer resolves names through.
type TypeScope = Scope[*Variable, *Function]

type Type struct {
	Name    string
	JvmName string
	members *TypeScope
}

// NewType creates a type with an empty member scope. Members are the fields
// and methods reachable through a receiver of this type.
func NewType(name, jvmName string) *Type {
	return &Type{
		Name:    name,
		JvmName: jvmName,
		members: NewScope[*Variable, *Function](nil),
	}
}

func (t *Type) String() string {
	return t.Name
}

// Members returns the type's member scope, or nil for primitive types.
func (t *Type) Members() *TypeScope {
	return t.members
}

var (
	Any        = &Type{Name: "Any", JvmName: "Object"}
	Nil        = &Type{Name: "Nil", JvmName: "Void"}
	Comparable = &Type{Name: "Comparable", JvmName: "Comparable"}
	Boolean    = &Type{Name: "Boolean", JvmName: "boolean"}
	Integer    = &Type{Name: "Integer", JvmName: "int"}
	Decimal    = &Type{Name: "Decimal", JvmName: "double"}
	Character  = &Type{Name: "Character", JvmName: "char"}
	String     = &Type{Name: "String", JvmName: "String"}
)

var registry = map[string]*Type{
	"Any":        Any,
	"Nil":        Nil,
	"Comparable": Comparable,
	"Boolean":    Boolean,
	"Integer":    Integer,
	"Decimal":    Decimal,
	"Character":  Character,
	"String":     String,
}

// LookupType resolves a type name through the fixed registry.
func LookupType(name string) (*Type, bool) {
	t, ok := registry[name]
	return t, ok
}

// GetType is LookupType for callers that raise analysis errors by panicking.
func GetType(name string) *Type {
	t, ok := LookupType(name)
	if !ok {
		panic(errors.NewAnalysisError("unknown type %s", name))
	}
	return t
}

// IsComparable reports whether values of t are ordered.
func IsComparable(t *Type) bool {
	switch t {
	case Integer, Decimal, Character, String, Comparable:
		return true
	}
	return false
}

// Assignable reports whether a value of type source may be stored in a
// slot of type target.
func Assignable(target, source *Type) bool {
	switch {
	case source == target:
		return true
	case target == Any:
		return true
	case target == Comparable:
		switch source {
		case Integer, Decimal, Character, String, Nil:
			return true
		}
	}
	return false
}

// RequireAssignable panics with an AnalysisError when source is not
// assignable to target.
func RequireAssignable(target, source *Type) {
	if !Assignable(target, source) {
		panic(errors.NewAnalysisError("type mismatch: expected %s, got %s", target, source))
	}
}
