package environment

// Variable is the analyzer's view of a variable: its resolved type.
type Variable struct {
	Name     string
	JvmName  string
	Type     *Type
	Constant bool
}

// Function is the analyzer's view of a function: its resolved signature.
type Function struct {
	Name           string
	JvmName        string
	ParameterTypes []*Type
	ReturnType     *Type
}

// NewTypeScope returns an analyzer root scope with the built-in print
// function declared.
func NewTypeScope(parent *TypeScope) *TypeScope {
	s := NewScope[*Variable, *Function](parent)
	s.DefineFunction("print", 1, &Function{
		Name:           "print",
		JvmName:        "System.out.println",
		ParameterTypes: []*Type{Any},
		ReturnType:     Nil,
	})
	return s
}
