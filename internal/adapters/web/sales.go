package web

import (
	"net/http"
	"strconv"
	"strings"

	"pos-backend/internal/app"
	"pos-backend/internal/core"
)

const defaultSaleListLimit = 100

type saleCreatedResponse struct {
	Success    bool   `json:"success"`
	SaleID     string `json:"sale_id"`
	SaleNumber string `json:"sale_number"`
}

// createSale handles POST /api/sales.
// Body: { customer: {email?, phone?, full_name?, tin?}, sale: {...}, items: [...] }.
// Cashiers always record sales as themselves; admins and managers may
// attribute a sale to another user, defaulting to themselves.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var in core.CreateSaleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if s := sessionFromContext(r.Context()); s != nil {
		if in.Sale.UserID == nil || !s.HasRole(core.RoleAdmin, core.RoleManager) {
			id := s.UserID
			in.Sale.UserID = &id
		}
	}

	conf, err := h.svc.CreateSale(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saleCreatedResponse{
		Success:    true,
		SaleID:     conf.SaleID.String(),
		SaleNumber: conf.SaleNumber,
	})
}

// listSales handles GET /api/sales?status=&start_date=&end_date=&limit=.
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dates, err := app.ParseReportDates(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	f := core.SaleFilter{From: dates.From, To: dates.To, Limit: defaultSaleListLimit}

	if status := strings.ToUpper(q.Get("status")); status != "" {
		f.Status = core.SaleStatus(status)
		if f.Status != core.SaleStatusActive && f.Status != core.SaleStatusDeleted {
			writeError(w, r, "status must be ACTIVE or DELETED", "VALIDATION_ERROR", http.StatusBadRequest)
			return
		}
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			writeError(w, r, "limit must be a positive integer", "VALIDATION_ERROR", http.StatusBadRequest)
			return
		}
		f.Limit = n
	}

	sales, err := h.svc.ListSales(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

// getSale handles GET /api/sales/{id}.
func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	sale, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

// updateSale handles PUT /api/sales/{id}. Only payment_status and notes
// can change.
func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var upd core.SaleUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	sale, err := h.svc.UpdateSale(r.Context(), id, upd)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

// getSaleItems handles GET /api/sales/{id}/items.
func (h *Handler) getSaleItems(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	items, err := h.svc.GetSaleItems(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// deleteSale handles DELETE /api/sales/{id}. It reverses the sale; a sale
// that is missing or already deleted yields 404.
func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteSale(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (h *Handler) salesStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.DashboardStats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) recentSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.svc.RecentSales(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *Handler) dailySales(w http.ResponseWriter, r *http.Request) {
	days, err := h.svc.DailySales(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// listSaleItems handles GET /api/sale_items.
func (h *Handler) listSaleItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListSaleItems(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// getSaleItem handles GET /api/sale_items/{id}.
func (h *Handler) getSaleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	item, err := h.svc.GetSaleItem(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
