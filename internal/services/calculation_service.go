package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/calculations-api/internal/apperr"
	"github.com/isdelr/calculations-api/internal/calculator"
	"github.com/isdelr/calculations-api/internal/database"
	"github.com/isdelr/calculations-api/internal/models"
)

// Listing bounds.
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// ErrCalculationNotFound covers both missing calculations and calculations
// owned by another user.
var ErrCalculationNotFound = apperr.New(apperr.CodeNotFound, "calculation not found")

// CalculationServiceProvider defines the interface for calculation services.
// Every method is scoped to ownerID.
type CalculationServiceProvider interface {
	CreateCalculation(ctx context.Context, ownerID string, in models.CalculationInput) (models.Calculation, error)
	ListCalculations(ctx context.Context, ownerID string, page models.Page) ([]models.Calculation, error)
	GetCalculation(ctx context.Context, ownerID, id string) (models.Calculation, error)
	UpdateCalculation(ctx context.Context, ownerID, id string, patch models.CalculationPatch) (models.Calculation, error)
	DeleteCalculation(ctx context.Context, ownerID, id string) (models.Calculation, error)
}

// CalculationService stores calculations and derives their results.
type CalculationService struct {
	db  *database.DB
	now func() time.Time
}

// NewCalculationService creates a new CalculationService.
func NewCalculationService(db *database.DB) *CalculationService {
	return &CalculationService{db: db, now: time.Now}
}

const calculationColumns = "id, name, a, b, operation, result, owner_id, created_at, updated_at"

func scanCalculation(scanner interface{ Scan(...any) error }) (models.Calculation, error) {
	var c models.Calculation
	err := scanner.Scan(&c.ID, &c.Name, &c.A, &c.B, &c.Operation, &c.Result, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, err
}

func (s *CalculationService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// scoped builds a statement restricted to one calculation of one owner.
// Every read and write of a single calculation goes through it.
func (s *CalculationService) scoped(prefix, suffix string) string {
	return s.db.Rebind(prefix + " WHERE id = ? AND owner_id = ?" + suffix)
}

// CreateCalculation computes the result and stores the calculation. Nothing
// is stored when the operation is invalid. An empty name defaults to the
// operation.
func (s *CalculationService) CreateCalculation(ctx context.Context, ownerID string, in models.CalculationInput) (models.Calculation, error) {
	if in.Name == "" {
		in.Name = string(in.Operation)
	}
	result, err := calculator.Compute(in.A, in.B, in.Operation)
	if err != nil {
		return models.Calculation{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return models.Calculation{}, fmt.Errorf("generate calculation id: %w", err)
	}
	now := s.timestamp()
	calc := models.Calculation{
		ID:        id.String(),
		Name:      in.Name,
		A:         in.A,
		B:         in.B,
		Operation: in.Operation,
		Result:    result,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx,
		s.db.Rebind("INSERT INTO calculations ("+calculationColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		calc.ID, calc.Name, calc.A, calc.B, calc.Operation, calc.Result, calc.OwnerID, calc.CreatedAt, calc.UpdatedAt,
	)
	if err != nil {
		return models.Calculation{}, fmt.Errorf("insert calculation: %w", err)
	}
	return calc, nil
}

// ListCalculations returns the owner's calculations in insertion order.
// A zero Limit means DefaultPageLimit.
func (s *CalculationService) ListCalculations(ctx context.Context, ownerID string, page models.Page) ([]models.Calculation, error) {
	if page.Limit == 0 {
		page.Limit = DefaultPageLimit
	}
	if page.Skip < 0 {
		return nil, apperr.Validation("skip must not be negative")
	}
	if page.Limit < 0 || page.Limit > MaxPageLimit {
		return nil, apperr.Validation(fmt.Sprintf("limit must be between 1 and %d", MaxPageLimit))
	}

	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind("SELECT "+calculationColumns+" FROM calculations WHERE owner_id = ? ORDER BY id LIMIT ? OFFSET ?"),
		ownerID, page.Limit, page.Skip,
	)
	if err != nil {
		return nil, fmt.Errorf("query calculations: %w", err)
	}
	defer rows.Close()

	calcs := []models.Calculation{}
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calculation: %w", err)
		}
		calcs = append(calcs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calculations: %w", err)
	}
	return calcs, nil
}

// GetCalculation retrieves one of the owner's calculations.
func (s *CalculationService) GetCalculation(ctx context.Context, ownerID, id string) (models.Calculation, error) {
	if !validID(id) {
		return models.Calculation{}, ErrCalculationNotFound
	}
	row := s.db.QueryRowContext(ctx, s.scoped("SELECT "+calculationColumns+" FROM calculations", ""), id, ownerID)
	return calculationOrNotFound(scanCalculation(row))
}

// UpdateCalculation applies patch to one of the owner's calculations and
// recomputes its result. The read and the write share one transaction.
func (s *CalculationService) UpdateCalculation(ctx context.Context, ownerID, id string, patch models.CalculationPatch) (models.Calculation, error) {
	if !validID(id) {
		return models.Calculation{}, ErrCalculationNotFound
	}

	var updated models.Calculation
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, s.scoped("SELECT "+calculationColumns+" FROM calculations", s.db.ForUpdate()), id, ownerID)
		current, err := calculationOrNotFound(scanCalculation(row))
		if err != nil {
			return err
		}

		next := patch.Apply(current)
		next.Result, err = calculator.Compute(next.A, next.B, next.Operation)
		if err != nil {
			return err
		}
		next.UpdatedAt = s.timestamp()

		res, err := tx.ExecContext(ctx,
			s.scoped("UPDATE calculations SET name = ?, a = ?, b = ?, operation = ?, result = ?, updated_at = ?", ""),
			next.Name, next.A, next.B, next.Operation, next.Result, next.UpdatedAt, id, ownerID,
		)
		if err != nil {
			return fmt.Errorf("update calculation: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrCalculationNotFound
		}
		updated = next
		return nil
	})
	if err != nil {
		return models.Calculation{}, err
	}
	return updated, nil
}

// DeleteCalculation permanently removes one of the owner's calculations and
// returns it.
func (s *CalculationService) DeleteCalculation(ctx context.Context, ownerID, id string) (models.Calculation, error) {
	if !validID(id) {
		return models.Calculation{}, ErrCalculationNotFound
	}
	row := s.db.QueryRowContext(ctx, s.scoped("DELETE FROM calculations", " RETURNING "+calculationColumns), id, ownerID)
	return calculationOrNotFound(scanCalculation(row))
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func calculationOrNotFound(c models.Calculation, err error) (models.Calculation, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Calculation{}, ErrCalculationNotFound
		}
		return models.Calculation{}, fmt.Errorf("query calculation: %w", err)
	}
	return c, nil
}
