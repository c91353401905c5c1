package models

import (
	"testing"

	"github.com/isdelr/calculations-api/internal/calculator"
	"github.com/stretchr/testify/assert"
)

func TestCalculationPatchApply(t *testing.T) {
	base := Calculation{Name: "sum", A: 10, B: 5, Operation: calculator.Add, Result: 15}

	t.Run("empty patch keeps everything", func(t *testing.T) {
		assert.Equal(t, base, CalculationPatch{}.Apply(base))
	})

	t.Run("explicit zero overwrites", func(t *testing.T) {
		zero := 0.0
		empty := ""
		got := CalculationPatch{A: &zero, Name: &empty}.Apply(base)
		assert.Equal(t, 0.0, got.A)
		assert.Equal(t, "", got.Name)
		assert.Equal(t, 5.0, got.B)
		assert.Equal(t, calculator.Add, got.Operation)
	})

	t.Run("operation only", func(t *testing.T) {
		op := calculator.Multiply
		got := CalculationPatch{Operation: &op}.Apply(base)
		assert.Equal(t, calculator.Multiply, got.Operation)
		assert.Equal(t, 10.0, got.A)
	})
}
