package ast

import (
	"fmt"
	"strings"
)

func typeNameToString(t *string) string {
	if t == nil {
		return ""
	}
	return ": " + *t
}

func (m *Method) String() string {
	var args []string
	for i, param := range m.Parameters {
		var typeName *string
		if i < len(m.ParameterTypeNames) {
			typeName = m.ParameterTypeNames[i]
		}
		args = append(args, param+typeNameToString(typeName))
	}
	return fmt.Sprintf("DEF %s(%s)%s", m.Name, strings.Join(args, ", "), typeNameToString(m.ReturnTypeName))
}

func (f *Field) String() string {
	prefix := "LET "
	if f.Constant {
		prefix += "CONST "
	}
	return prefix + f.Name + typeNameToString(f.TypeName)
}
