package llvmgen

import (
	"github.com/llir/llvm/ir/types"
	"github.com/pontaoski/plc/environment"
)

// lowered maps the analyzer types the backend can represent.
var lowered = map[*environment.Type]types.Type{
	environment.Integer: types.I32,
	environment.Boolean: types.I1,
	environment.Nil:     types.Void,
}

func lowerType(t *environment.Type) types.Type {
	if lt, ok := lowered[t]; ok {
		return lt
	}
	unsupported("the LLVM backend does not support values of type %s", t)
	return nil
}
