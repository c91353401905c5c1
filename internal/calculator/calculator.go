// Package calculator derives calculation results from two operands and an
// operation.
package calculator

import (
	"fmt"
	"math"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/isdelr/calculations-api/internal/apperr"
)

// Operation names a binary arithmetic operation.
type Operation string

const (
	Add      Operation = "add"
	Subtract Operation = "subtract"
	Multiply Operation = "multiply"
	Divide   Operation = "divide"
	Modulus  Operation = "modulus"
	Power    Operation = "power"
)

// Each operation is an expression over the parameters a and b.
var formulas = map[Operation]string{
	Add:      "a + b",
	Subtract: "a - b",
	Multiply: "a * b",
	Divide:   "a / b",
	Modulus:  "a % b",
	Power:    "a ** b",
}

var aliases = map[string]Operation{
	"+": Add,
	"-": Subtract,
	"*": Multiply,
	"/": Divide,
	"%": Modulus,
	"^": Power,
}

var compiled = mustCompile()

func mustCompile() map[Operation]*govaluate.EvaluableExpression {
	out := make(map[Operation]*govaluate.EvaluableExpression, len(formulas))
	for op, formula := range formulas {
		expr, err := govaluate.NewEvaluableExpression(formula)
		if err != nil {
			panic(fmt.Sprintf("calculator: compile %s: %v", op, err))
		}
		out[op] = expr
	}
	return out
}

// Operations lists the supported operations in a stable order.
func Operations() []Operation {
	return []Operation{Add, Subtract, Multiply, Divide, Modulus, Power}
}

// ParseOperation accepts an operation name (case-insensitive) or its symbol.
func ParseOperation(s string) (Operation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if op, ok := aliases[s]; ok {
		return op, nil
	}
	op := Operation(s)
	if _, ok := formulas[op]; !ok {
		return "", apperr.Validation(fmt.Sprintf("unsupported operation %q", s))
	}
	return op, nil
}

// Valid reports whether op is a supported operation.
func (op Operation) Valid() bool {
	_, ok := formulas[op]
	return ok
}

// Compute returns the result of applying op to a and b. A zero divisor or a
// non-finite result is an INVALID_OPERATION error.
func Compute(a, b float64, op Operation) (float64, error) {
	expr, ok := compiled[op]
	if !ok {
		return 0, apperr.Validation(fmt.Sprintf("unsupported operation %q", op))
	}
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return 0, apperr.Validation("operands must be finite numbers")
	}
	if (op == Divide || op == Modulus) && b == 0 {
		return 0, apperr.New(apperr.CodeInvalidOperation, "division by zero")
	}

	value, err := expr.Evaluate(map[string]interface{}{"a": a, "b": b})
	if err != nil {
		return 0, apperr.Wrap(apperr.CodeInvalidOperation, "evaluation failed", err)
	}
	result, ok := value.(float64)
	if !ok {
		return 0, apperr.New(apperr.CodeInvalidOperation, fmt.Sprintf("unexpected result type %T", value))
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, apperr.New(apperr.CodeInvalidOperation, "result is not a finite number")
	}
	return result, nil
}
