package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pos-backend/internal/app"
)

func (h *Handler) reportRequest(w http.ResponseWriter, r *http.Request) (app.ReportRequest, bool) {
	q := r.URL.Query()
	req, err := app.ParseReportDates(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// report handles GET /api/reports?start_date=&end_date=.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	req, ok := h.reportRequest(w, r)
	if !ok {
		return
	}
	report, err := h.svc.BuildReport(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) reportExcel(w http.ResponseWriter, r *http.Request) {
	h.exportReport(w, r, app.FormatXLSX,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx")
}

func (h *Handler) reportPDF(w http.ResponseWriter, r *http.Request) {
	h.exportReport(w, r, app.FormatPDF, "application/pdf", "pdf")
}

// exportReport renders into a buffer first so a failure can still produce a
// JSON error instead of a truncated file.
func (h *Handler) exportReport(w http.ResponseWriter, r *http.Request, format app.ReportFormat, contentType, ext string) {
	req, ok := h.reportRequest(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.svc.ExportReport(r.Context(), req, format, &buf); err != nil {
		writeServiceError(w, r, err)
		return
	}
	name := fmt.Sprintf("business-report-%s.%s", time.Now().Format("2006-01-02"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
