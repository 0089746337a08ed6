package app

import (
	"fmt"
	"time"

	"pos-backend/internal/core"
)

// RegisterRequest is the input for self-service or admin account creation.
type RegisterRequest struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	FullName string    `json:"full_name"`
	Role     core.Role `json:"role"`
}

// ReportRequest bounds the sales section of a report. Nil means unbounded.
type ReportRequest struct {
	From *time.Time
	To   *time.Time
}

// ReportFormat selects the rendering used by ExportReport.
type ReportFormat string

const (
	FormatXLSX ReportFormat = "xlsx"
	FormatPDF  ReportFormat = "pdf"
)

// ParseReportFormat accepts "xlsx", "excel" and "pdf".
func ParseReportFormat(s string) (ReportFormat, error) {
	switch s {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown report format %q (want xlsx or pdf)", s)
}

// ParseReportDates parses optional YYYY-MM-DD bounds. The end date is
// inclusive, so it is moved to the last instant of that day.
func ParseReportDates(start, end string) (ReportRequest, error) {
	var req ReportRequest
	if start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return req, fmt.Errorf("invalid start date %q: %w", start, err)
		}
		req.From = &t
	}
	if end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return req, fmt.Errorf("invalid end date %q: %w", end, err)
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		req.To = &t
	}
	return req, nil
}
