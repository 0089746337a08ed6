package web

import (
	"net/http"

	"pos-backend/internal/core"
)

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.ListCustomers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

// createCustomer handles POST /api/customers. An existing customer with the
// same email or phone is returned instead of creating a duplicate.
func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var ref core.CustomerRef
	if !decodeJSON(w, r, &ref) {
		return
	}
	if ref.Email == "" && ref.Phone == "" && ref.FullName == "" {
		writeError(w, r, "one of email, phone or full_name is required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	c, err := h.svc.CreateCustomer(r.Context(), ref)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := h.svc.GetCustomer(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var upd core.CustomerUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	c, err := h.svc.UpdateCustomer(r.Context(), id, upd)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) deactivateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeactivateCustomer(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (h *Handler) customerInsights(w http.ResponseWriter, r *http.Request) {
	in, err := h.svc.CustomerInsights(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}
