// Package export renders business reports as XLSX workbooks and PDF documents.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"pos-backend/internal/core"
)

// Sheet names, in workbook order.
const (
	SheetSales     = "Sales Summary"
	SheetInventory = "Inventory"
	SheetCustomers = "Customers"
	SheetSuppliers = "Suppliers"
	SheetUsers     = "Users"
)

const dateLayout = "2006-01-02"

// table is one report section as a header row plus data rows.
type table struct {
	title  string
	header []string
	widths []float64 // PDF column widths in mm
	rows   [][]any
}

func sections(r *core.Report) []table {
	sales := table{
		title:  SheetSales,
		header: []string{"Sale Number", "Date", "Customer", "Payment", "Tax", "Discount", "Total"},
		widths: []float64{28, 24, 44, 22, 22, 22, 28},
	}
	for _, s := range r.Sales.Details {
		sales.rows = append(sales.rows, []any{
			s.SaleNumber, s.SaleDate.Format(dateLayout), s.CustomerName, s.PaymentMethod,
			s.TaxAmount.StringFixed(2), s.DiscountAmount.StringFixed(2), s.TotalAmount.StringFixed(2),
		})
	}
	sales.rows = append(sales.rows, []any{
		"TOTAL", "", fmt.Sprintf("%d sales", r.Sales.Count), "",
		r.Sales.Tax.StringFixed(2), r.Sales.Discount.StringFixed(2), r.Sales.Revenue.StringFixed(2),
	})

	inventory := table{
		title:  SheetInventory,
		header: []string{"Number", "Name", "SKU", "Stock", "Min", "Price", "Value", "Low"},
		widths: []float64{22, 46, 26, 16, 14, 20, 26, 20},
	}
	for _, it := range r.Products.Details {
		low := ""
		if it.LowStock {
			low = "LOW"
		}
		inventory.rows = append(inventory.rows, []any{
			it.ProductNumber, it.Name, it.SKU, it.CurrentStock, it.MinStockLevel,
			it.SellingPrice.StringFixed(2), it.StockValue.StringFixed(2), low,
		})
	}

	customers := table{
		title:  SheetCustomers,
		header: []string{"Code", "Name", "Email", "Phone", "Purchases", "Spent"},
		widths: []float64{22, 40, 56, 26, 20, 26},
	}
	for _, c := range r.Customers.Details {
		customers.rows = append(customers.rows, []any{
			c.CustomerCode, c.FullName, c.Email, c.Phone, c.TotalPurchases, c.TotalSpent.StringFixed(2),
		})
	}

	suppliers := table{
		title:  SheetSuppliers,
		header: []string{"Name", "Contact", "Email", "Phone", "Terms"},
		widths: []float64{44, 36, 50, 28, 32},
	}
	for _, s := range r.Suppliers.Details {
		suppliers.rows = append(suppliers.rows, []any{s.Name, s.ContactPerson, s.Email, s.Phone, s.PaymentTerms})
	}

	users := table{
		title:  SheetUsers,
		header: []string{"Username", "Name", "Email", "Role", "Active"},
		widths: []float64{32, 44, 60, 26, 20},
	}
	for _, u := range r.Users.Details {
		active := "no"
		if u.IsActive {
			active = "yes"
		}
		users.rows = append(users.rows, []any{u.Username, u.FullName, u.Email, string(u.Role), active})
	}

	return []table{sales, inventory, customers, suppliers, users}
}

func period(r *core.Report) string {
	from, to := "beginning", "now"
	if r.From != nil {
		from = r.From.Format(dateLayout)
	}
	if r.To != nil {
		to = r.To.Format(dateLayout)
	}
	return from + " to " + to
}

// WriteXLSX writes r as a workbook with one sheet per section.
func WriteXLSX(w io.Writer, r *core.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, t := range sections(r) {
		idx, err := f.NewSheet(t.title)
		if err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", t.title, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		header := make([]any, len(t.header))
		for j, h := range t.header {
			header[j] = h
		}
		if err := f.SetSheetRow(t.title, "A1", &header); err != nil {
			return fmt.Errorf("failed to write %s header: %w", t.title, err)
		}
		last, _ := excelize.CoordinatesToCellName(len(t.header), 1)
		if err := f.SetCellStyle(t.title, "A1", last, bold); err != nil {
			return fmt.Errorf("failed to style %s header: %w", t.title, err)
		}
		for n, row := range t.rows {
			cell, _ := excelize.CoordinatesToCellName(1, n+2)
			if err := f.SetSheetRow(t.title, cell, &row); err != nil {
				return fmt.Errorf("failed to write %s row %d: %w", t.title, n+1, err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WritePDF writes r as an A4 document with one table per section.
func WritePDF(w io.Writer, r *core.Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Business Report", false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Business Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Period: "+period(r), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, "Generated: "+r.GeneratedAt.Format(time.RFC1123), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, t := range sections(r) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, t.title, "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range t.header {
			pdf.CellFormat(t.widths[i], 6, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 8)
		for _, row := range t.rows {
			for i, v := range row {
				pdf.CellFormat(t.widths[i], 6, tr(fit(fmt.Sprint(v), t.widths[i])), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
		if len(t.rows) == 0 {
			pdf.CellFormat(0, 6, "No records", "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// fit truncates s so it roughly fits a cell of width mm at 8pt.
func fit(s string, width float64) string {
	limit := int(width / 1.6)
	runes := []rune(s)
	if len(runes) <= limit || limit < 4 {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
