package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/dealership/internal/apperr"
	"github.com/erazemk/dealership/internal/model"
)

// CarStore is the dealer-scoped inventory. Every method filters by dealerID.
type CarStore interface {
	ListAll(ctx context.Context, dealerID int64) ([]model.Car, error)
	GetByID(ctx context.Context, id, dealerID int64) (*model.Car, error)
	Create(ctx context.Context, car model.Car, dealerID int64) (*model.Car, error)
	Update(ctx context.Context, car model.Car, dealerID int64) (bool, error)
	Delete(ctx context.Context, id, dealerID int64) (bool, error)
	UpdateStock(ctx context.Context, id int64, stockLevel int, dealerID int64) (bool, error)
	Search(ctx context.Context, makeSub, modelSub string, dealerID int64) ([]model.Car, error)
}

// CarsHandler handles inventory endpoints.
type CarsHandler struct {
	Cars CarStore
}

// carRequest is the writable part of a car. Ownership always comes from the
// token, so dealer_id is not accepted.
type carRequest struct {
	ID         int64  `json:"id"`
	Make       string `json:"make"`
	Model      string `json:"model"`
	Year       int    `json:"year"`
	StockLevel int    `json:"stock_level"`
}

func (req carRequest) car() model.Car {
	return model.Car{
		ID:         req.ID,
		Make:       req.Make,
		Model:      req.Model,
		Year:       req.Year,
		StockLevel: req.StockLevel,
	}
}

// List handles GET /cars.
func (h *CarsHandler) List(w http.ResponseWriter, r *http.Request) {
	dealerID, ok := dealer(w, r)
	if !ok {
		return
	}

	cars, err := h.Cars.ListAll(r.Context(), dealerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cars == nil {
		cars = []model.Car{}
	}
	jsonResponse(w, http.StatusOK, cars)
}

// Get handles GET /cars/{id}.
func (h *CarsHandler) Get(w http.ResponseWriter, r *http.Request) {
	dealerID, ok := dealer(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	car, err := h.Cars.GetByID(r.Context(), id, dealerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if car == nil {
		writeError(w, r, apperr.ErrNotFound)
		return
	}
	jsonResponse(w, http.StatusOK, car)
}

// Create handles POST /cars.
func (h *CarsHandler) Create(w http.ResponseWriter, r *http.Request) {
	dealerID, ok := dealer(w, r)
	if !ok {
		return
	}

	var req carRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	car, err := h.Cars.Create(r.Context(), req.car(), dealerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/cars/%d", car.ID))
	jsonResponse(w, http.StatusCreated, car)
}

// Update handles PUT /cars/{id}. An id in the body must match the path.
func (h *CarsHandler) Update(w http.ResponseWriter, r *http.Request) {
	dealerID, ok := dealer(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req carRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID != 0 && req.ID != id {
		writeError(w, r, apperr.Validation(apperr.FieldError{Field: "id", Message: "must match the id in the path"}))
		return
	}
	req.ID = id

	if !h.exists(w, r, id, dealerID) {
		return
	}

	updated, err := h.Cars.Update(r.Context(), req.car(), dealerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !updated {
		writeError(w, r, apperr.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /cars/{id}.
func (h *CarsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	dealerID, ok := dealer(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !h.exists(w, r, id, dealerID) {
		return
	}

	deleted, err := h.Cars.Delete(r.Context(), id, dealerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, r, apperr.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateStock handles PATCH /cars/{id}/stock. The body is either a bare
// integer or {"stock_level": n}.
func (h *CarsHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	dealerID, ok := dealer(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var raw json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	level, err := parseStockLevel(raw)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.ValidateStockLevel(level); err != nil {
		writeError(w, r, err)
		return
	}

	if !h.exists(w, r, id, dealerID) {
		return
	}

	updated, err := h.Cars.UpdateStock(r.Context(), id, level, dealerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !updated {
		writeError(w, r, apperr.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /cars/search?make=&model=. At least one term is required.
func (h *CarsHandler) Search(w http.ResponseWriter, r *http.Request) {
	dealerID, ok := dealer(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	makeSub := strings.TrimSpace(q.Get("make"))
	modelSub := strings.TrimSpace(q.Get("model"))
	if makeSub == "" && modelSub == "" {
		writeError(w, r, apperr.Validation(
			apperr.FieldError{Field: "make", Message: "make or model is required"},
			apperr.FieldError{Field: "model", Message: "make or model is required"},
		))
		return
	}

	cars, err := h.Cars.Search(r.Context(), makeSub, modelSub, dealerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cars == nil {
		cars = []model.Car{}
	}
	jsonResponse(w, http.StatusOK, cars)
}

// exists writes a 404 and returns false if the car is not visible to dealerID.
func (h *CarsHandler) exists(w http.ResponseWriter, r *http.Request, id, dealerID int64) bool {
	car, err := h.Cars.GetByID(r.Context(), id, dealerID)
	if err != nil {
		writeError(w, r, err)
		return false
	}
	if car == nil {
		writeError(w, r, apperr.ErrNotFound)
		return false
	}
	return true
}

// dealer returns the authenticated dealer's account id.
func dealer(w http.ResponseWriter, r *http.Request) (int64, bool) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrAuthorization)
		return 0, false
	}
	return identity.AccountID, true
}

// parseID extracts a positive car id from the URL path.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(apperr.FieldError{Field: "id", Message: "must be a positive integer"})
	}
	return id, nil
}

func parseStockLevel(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var body struct {
			StockLevel *int `json:"stock_level"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return 0, err
		}
		if body.StockLevel == nil {
			return 0, fmt.Errorf("missing stock_level")
		}
		return *body.StockLevel, nil
	}

	var level int
	if err := json.Unmarshal(raw, &level); err != nil {
		return 0, err
	}
	return level, nil
}
