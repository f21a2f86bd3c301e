package handler

import (
	"errors"
	"net/http"

	"github.com/ebraholidays/voyager/internal/model"
	"github.com/ebraholidays/voyager/internal/store"
)

// EnquiryHandler serves the public enquiry form and the admin enquiry
// management endpoints.
type EnquiryHandler struct {
	store *store.Store
}

// NewEnquiryHandler creates a new EnquiryHandler.
func NewEnquiryHandler(st *store.Store) *EnquiryHandler {
	return &EnquiryHandler{store: st}
}

type createEnquiryRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Place string `json:"place"`
}

// Create records a new customer enquiry from the public site. Status is
// always "new" regardless of what the caller sends.
// POST /api/v1/enquiries
func (h *EnquiryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEnquiryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var fieldErrs []model.FieldError
	if req.Name == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "name", Message: "Name is required"})
	}
	if req.Email == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "email", Message: "Email is required"})
	}
	if req.Phone == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "phone", Message: "Phone is required"})
	}
	if req.Place == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "place", Message: "Place is required"})
	}
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, fieldErrs)
		return
	}

	enq := &model.Enquiry{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Place:  req.Place,
		Status: model.EnquiryStatusNew,
	}
	if err := h.store.CreateEnquiry(r.Context(), enq); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create enquiry")
		return
	}

	writeJSON(w, http.StatusCreated, enq)
}

// List returns one page of enquiries, optionally filtered by exact status
// ("all" or absent means no filter) and searched across name/email/place.
// GET /api/v1/admin/enquiries
func (h *EnquiryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	enquiries, total, err := h.store.ListEnquiries(r.Context(), store.EnquiryQuery{
		Page:   page,
		Limit:  limit,
		Status: queryString(r, "status"),
		Search: queryString(r, "search"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list enquiries")
		return
	}

	writeJSON(w, http.StatusOK, model.EnquiryListResponse{
		Enquiries:   enquiries,
		CurrentPage: page,
		TotalPages:  totalPages(total, limit),
		Total:       total,
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves an enquiry through the follow-up flow.
// PUT /api/v1/admin/enquiries/{id}/status
func (h *EnquiryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Enquiry not found")
		return
	}

	var req updateStatusRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !model.ValidEnquiryStatus(req.Status) {
		writeFieldErrors(w, []model.FieldError{
			{Field: "status", Message: "Status must be new, contacted or completed"},
		})
		return
	}

	enq, err := h.store.UpdateEnquiryStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Enquiry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update enquiry")
		return
	}

	writeJSON(w, http.StatusOK, enq)
}

// Delete removes an enquiry.
// DELETE /api/v1/admin/enquiries/{id}
func (h *EnquiryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Enquiry not found")
		return
	}

	if err := h.store.DeleteEnquiry(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Enquiry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete enquiry")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Enquiry deleted successfully"})
}

// Stats returns the total enquiry count and a count per status.
// GET /api/v1/admin/enquiries/stats
func (h *EnquiryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.EnquiryStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get enquiry stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
