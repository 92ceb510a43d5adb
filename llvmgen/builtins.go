package llvmgen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// addBuiltins declares the C library functions generated code calls into.
func addBuiltins(m *ir.Module) (ret map[string]*ir.Func) {
	ret = make(map[string]*ir.Func)

	funcs := []func(*ir.Module) (string, *ir.Func){
		addPrintf,
		addExit,
	}
	for _, fn := range funcs {
		k, v := fn(m)
		ret[k] = v
	}

	return
}

func addPrintf(m *ir.Module) (string, *ir.Func) {
	fn := m.NewFunc("printf", types.I32, ir.NewParam("format", types.NewPointer(types.I8)))
	fn.Sig.Variadic = true
	return "printf", fn
}

func addExit(m *ir.Module) (string, *ir.Func) {
	return "exit", m.NewFunc("exit", types.Void, ir.NewParam("status", types.I32))
}
