package interpreter

import (
	"math/big"
	"strings"

	"github.com/pontaoski/plc/ast"
	"github.com/pontaoski/plc/environment"
	"github.com/shopspring/decimal"
)

func (i *Interpreter) evalBinary(scope *environment.RuntimeScope, e *ast.Binary) *environment.Object {
	switch e.Operator {
	case "AND", "&&":
		if !requireBoolean(i.eval(scope, e.Left)) {
			return environment.FALSE
		}
		return environment.Bool(requireBoolean(i.eval(scope, e.Right)))
	case "OR", "||":
		if requireBoolean(i.eval(scope, e.Left)) {
			return environment.TRUE
		}
		return environment.Bool(requireBoolean(i.eval(scope, e.Right)))
	}

	left := i.eval(scope, e.Left)
	right := i.eval(scope, e.Right)

	switch e.Operator {
	case "==":
		return environment.Bool(left.Equal(right))
	case "!=":
		return environment.Bool(!left.Equal(right))
	case "<":
		return environment.Bool(compare(left, right) < 0)
	case "<=":
		return environment.Bool(compare(left, right) <= 0)
	case ">":
		return environment.Bool(compare(left, right) > 0)
	case ">=":
		return environment.Bool(compare(left, right) >= 0)
	case "+":
		if left.Kind == environment.StringKind || right.Kind == environment.StringKind {
			return environment.Str(left.String() + right.String())
		}
		return arithmetic(e.Operator, left, right)
	case "-", "*", "/":
		return arithmetic(e.Operator, left, right)
	}

	fail("unknown operator %s", e.Operator)
	return nil
}

// compare orders two values of the same comparable kind.
func compare(left, right *environment.Object) int {
	if left.Kind != right.Kind {
		fail("cannot compare %s with %s", left.Kind, right.Kind)
	}
	switch left.Kind {
	case environment.IntegerKind:
		return left.Value.(*big.Int).Cmp(right.Value.(*big.Int))
	case environment.DecimalKind:
		return left.Value.(decimal.Decimal).Cmp(right.Value.(decimal.Decimal))
	case environment.CharacterKind:
		l, r := left.Value.(rune), right.Value.(rune)
		switch {
		case l < r:
			return -1
		case l > r:
			return 1
		}
		return 0
	case environment.StringKind:
		return strings.Compare(left.Value.(string), right.Value.(string))
	}
	fail("%s values are not comparable", left.Kind)
	return 0
}

func arithmetic(op string, left, right *environment.Object) *environment.Object {
	if left.Kind != right.Kind {
		fail("operator %s cannot combine %s and %s", op, left.Kind, right.Kind)
	}
	switch left.Kind {
	case environment.IntegerKind:
		l, r := left.Value.(*big.Int), right.Value.(*big.Int)
		switch op {
		case "+":
			return environment.Int(new(big.Int).Add(l, r))
		case "-":
			return environment.Int(new(big.Int).Sub(l, r))
		case "*":
			return environment.Int(new(big.Int).Mul(l, r))
		case "/":
			if r.Sign() == 0 {
				fail("division by zero")
			}
			return environment.Int(new(big.Int).Quo(l, r))
		}
	case environment.DecimalKind:
		l, r := left.Value.(decimal.Decimal), right.Value.(decimal.Decimal)
		switch op {
		case "+":
			return environment.Dec(l.Add(r))
		case "-":
			return environment.Dec(l.Sub(r))
		case "*":
			return environment.Dec(l.Mul(r))
		case "/":
			if r.IsZero() {
				fail("division by zero")
			}
			scale := environment.Scale(l)
			if s := environment.Scale(r); s > scale {
				scale = s
			}
			return environment.Dec(divide(l, r, scale))
		}
	}
	fail("operator %s needs Integer or Decimal operands, received %s", op, left.Kind)
	return nil
}

var ten = big.NewInt(10)

func pow10(n int32) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(int64(n)), nil)
}

// divide computes l / r with scale digits after the point, rounding half to
// even.
func divide(l, r decimal.Decimal, scale int32) decimal.Decimal {
	num := new(big.Int).Set(l.Coefficient())
	den := new(big.Int).Set(r.Coefficient())

	// l/r * 10^scale = lc/rc * 10^(le - re + scale)
	k := l.Exponent() - r.Exponent() + scale
	if k >= 0 {
		num.Mul(num, pow10(k))
	} else {
		den.Mul(den, pow10(-k))
	}

	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	if rem.Sign() != 0 {
		twice := new(big.Int).Abs(rem)
		twice.Lsh(twice, 1)
		switch c := twice.Cmp(new(big.Int).Abs(den)); {
		case c > 0, c == 0 && q.Bit(0) == 1:
			if num.Sign()*den.Sign() < 0 {
				q.Sub(q, big.NewInt(1))
			} else {
				q.Add(q, big.NewInt(1))
			}
		}
	}
	return decimal.NewFromBigInt(q, -scale)
}
