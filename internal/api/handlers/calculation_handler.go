package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/calculations-api/internal/apperr"
	"github.com/isdelr/calculations-api/internal/auth"
	"github.com/isdelr/calculations-api/internal/calculator"
	"github.com/isdelr/calculations-api/internal/models"
	"github.com/isdelr/calculations-api/internal/services"
	"github.com/rs/zerolog/hlog"
)

// CalculationHandler handles HTTP requests for the caller's calculations.
// Routes are mounted behind the identity middleware.
type CalculationHandler struct {
	service services.CalculationServiceProvider
}

// NewCalculationHandler creates a new CalculationHandler.
func NewCalculationHandler(service services.CalculationServiceProvider) *CalculationHandler {
	return &CalculationHandler{service: service}
}

// CalculationPayload is the body of create and update requests. Absent
// fields are nil; a client-supplied result is not part of it.
type CalculationPayload struct {
	Name      *string  `json:"name"`
	A         *float64 `json:"a"`
	B         *float64 `json:"b"`
	Operation *string  `json:"operation"`
}

func (p CalculationPayload) input() (models.CalculationInput, error) {
	if p.A == nil || p.B == nil {
		return models.CalculationInput{}, apperr.Validation("a and b are required")
	}
	if p.Operation == nil {
		return models.CalculationInput{}, apperr.Validation("operation is required")
	}
	op, err := calculator.ParseOperation(*p.Operation)
	if err != nil {
		return models.CalculationInput{}, err
	}
	in := models.CalculationInput{A: *p.A, B: *p.B, Operation: op}
	if p.Name != nil {
		in.Name = *p.Name
	}
	return in, nil
}

func (p CalculationPayload) patch() (models.CalculationPatch, error) {
	patch := models.CalculationPatch{Name: p.Name, A: p.A, B: p.B}
	if p.Operation != nil {
		op, err := calculator.ParseOperation(*p.Operation)
		if err != nil {
			return models.CalculationPatch{}, err
		}
		patch.Operation = &op
	}
	return patch, nil
}

func owner(r *http.Request) (string, bool) {
	user, ok := auth.UserFromContext(r.Context())
	return user.ID, ok
}

// Create handles the request to create a new calculation.
func (h *CalculationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}

	var payload CalculationPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		WriteError(w, r, err)
		return
	}
	in, err := payload.input()
	if err != nil {
		WriteError(w, r, err)
		return
	}

	calc, err := h.service.CreateCalculation(r.Context(), ownerID, in)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	hlog.FromRequest(r).Debug().Str("calculation_id", calc.ID).Msg("Created calculation")
	writeJSON(w, http.StatusCreated, calc)
}

// List handles the request to list the caller's calculations.
func (h *CalculationHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}

	page, err := pageFromQuery(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	calcs, err := h.service.ListCalculations(r.Context(), ownerID, page)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calcs)
}

func pageFromQuery(r *http.Request) (models.Page, error) {
	var page models.Page
	q := r.URL.Query()
	if s := q.Get("skip"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return models.Page{}, apperr.Validation("skip must be an integer")
		}
		page.Skip = n
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n == 0 {
			return models.Page{}, apperr.Validation("limit must be a positive integer")
		}
		page.Limit = n
	}
	return page, nil
}

// Get handles the request to get a single calculation by its ID.
func (h *CalculationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}

	calc, err := h.service.GetCalculation(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

// Update handles the request to update an existing calculation. Fields
// absent from the body keep their stored values.
func (h *CalculationHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}

	var payload CalculationPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		WriteError(w, r, err)
		return
	}
	patch, err := payload.patch()
	if err != nil {
		WriteError(w, r, err)
		return
	}

	calc, err := h.service.UpdateCalculation(r.Context(), ownerID, chi.URLParam(r, "id"), patch)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

// Delete handles the request to permanently delete a calculation.
func (h *CalculationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(r)
	if !ok {
		WriteError(w, r, apperr.ErrUnauthenticated)
		return
	}

	calc, err := h.service.DeleteCalculation(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	hlog.FromRequest(r).Debug().Str("calculation_id", calc.ID).Msg("Deleted calculation")
	w.WriteHeader(http.StatusNoContent)
}
