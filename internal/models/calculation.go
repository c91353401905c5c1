package models

import (
	"time"

	"github.com/isdelr/calculations-api/internal/calculator"
)

// Calculation is a stored arithmetic result owned by exactly one user.
type Calculation struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	A         float64              `json:"a"`
	B         float64              `json:"b"`
	Operation calculator.Operation `json:"operation"`
	Result    float64              `json:"result"`
	OwnerID   string               `json:"owner_id"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// CalculationInput carries the caller-supplied fields of a new calculation.
// The result is always derived.
type CalculationInput struct {
	Name      string
	A         float64
	B         float64
	Operation calculator.Operation
}

// CalculationPatch carries a partial update. A nil field keeps its stored
// value; a non-nil field overwrites it, zero values included.
type CalculationPatch struct {
	Name      *string
	A         *float64
	B         *float64
	Operation *calculator.Operation
}

// Apply returns c with the present patch fields overwritten. The result is
// not recomputed here.
func (p CalculationPatch) Apply(c Calculation) Calculation {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.A != nil {
		c.A = *p.A
	}
	if p.B != nil {
		c.B = *p.B
	}
	if p.Operation != nil {
		c.Operation = *p.Operation
	}
	return c
}

// Page bounds a listing.
type Page struct {
	Skip  int
	Limit int
}
