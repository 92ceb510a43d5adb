package environment

type signature struct {
	name  string
	arity int
}

// Scope is one frame of a lexical scope chain. Variables and functions live
// in separate namespaces; functions are keyed by name and arity so that
// overloading by parameter count works. The parent link is a plain
// reference: a frame never owns its parent.
type Scope[V any, F any] struct {
	parent    *Scope[V, F]
	variables map[string]V
	functions map[signature]F
}

func NewScope[V any, F any](parent *Scope[V, F]) *Scope[V, F] {
	return &Scope[V, F]{
		parent:    parent,
		variables: make(map[string]V),
		functions: make(map[signature]F),
	}
}

func (s *Scope[V, F]) Parent() *Scope[V, F] {
	return s.parent
}

// DefineVariable binds name in this frame. It reports false when the name
// is already bound in the same frame; outer bindings are shadowed.
func (s *Scope[V, F]) DefineVariable(name string, v V) bool {
	if _, ok := s.variables[name]; ok {
		return false
	}
	s.variables[name] = v
	return true
}

func (s *Scope[V, F]) LookupVariable(name string) (V, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if v, ok := scope.variables[name]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

func (s *Scope[V, F]) DefineFunction(name string, arity int, f F) bool {
	key := signature{name, arity}
	if _, ok := s.functions[key]; ok {
		return false
	}
	s.functions[key] = f
	return true
}

func (s *Scope[V, F]) LookupFunction(name string, arity int) (F, bool) {
	key := signature{name, arity}
	for scope := s; scope != nil; scope = scope.parent {
		if f, ok := scope.functions[key]; ok {
			return f, true
		}
	}
	var zero F
	return zero, false
}
