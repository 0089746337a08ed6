package cli

import (
	"fmt"
	"io"
	"strings"

	"pos-backend/internal/core"
)

const (
	wide   = 78
	narrow = 62
)

func rule(out io.Writer, ch string, n int) {
	fmt.Fprintln(out, strings.Repeat(ch, n))
}

func printSales(out io.Writer, sales []core.Sale) {
	fmt.Fprintln(out)
	rule(out, "=", wide)
	fmt.Fprintf(out, "  %-10s %-17s %-20s %-8s %12s\n", "NUMBER", "DATE", "CUSTOMER", "STATUS", "TOTAL")
	rule(out, "-", wide)
	for _, s := range sales {
		fmt.Fprintf(out, "  %-10s %-17s %-20s %-8s %12s\n",
			s.SaleNumber, s.SaleDate.Format("2006-01-02 15:04"), truncate(s.CustomerName, 20), s.Status,
			s.TotalAmount.StringFixed(2))
	}
	if len(sales) == 0 {
		fmt.Fprintln(out, "  No sales.")
	}
	rule(out, "=", wide)
}

func printSaleDetail(out io.Writer, s *core.SaleDetail) {
	fmt.Fprintln(out)
	rule(out, "=", narrow)
	fmt.Fprintf(out, "  SALE %s  [%s]\n", s.SaleNumber, s.Status)
	fmt.Fprintf(out, "  ID       : %s\n", s.ID)
	fmt.Fprintf(out, "  Date     : %s\n", s.SaleDate.Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "  Customer : %s\n", s.CustomerName)
	fmt.Fprintf(out, "  Payment  : %s (%s)\n", s.PaymentMethod, s.PaymentStatus)
	rule(out, "-", narrow)
	fmt.Fprintf(out, "  %-28s %5s %10s %12s\n", "PRODUCT", "QTY", "PRICE", "LINE")
	for _, it := range s.Items {
		fmt.Fprintf(out, "  %-28s %5d %10s %12s\n",
			truncate(it.ProductName, 28), it.Quantity, it.UnitPrice.StringFixed(2), it.LineTotal.StringFixed(2))
	}
	rule(out, "-", narrow)
	fmt.Fprintf(out, "  %-45s %12s\n", "Subtotal", s.Subtotal.StringFixed(2))
	fmt.Fprintf(out, "  %-45s %12s\n", "Tax", s.TaxAmount.StringFixed(2))
	fmt.Fprintf(out, "  %-45s %12s\n", "Discount", s.DiscountAmount.StringFixed(2))
	fmt.Fprintf(out, "  %-45s %12s\n", "TOTAL", s.TotalAmount.StringFixed(2))
	rule(out, "=", narrow)
}

func printInventory(out io.Writer, title string, items []core.InventoryItem) {
	fmt.Fprintln(out)
	rule(out, "=", wide)
	fmt.Fprintf(out, "  %s\n", title)
	rule(out, "-", wide)
	fmt.Fprintf(out, "  %-9s %-28s %7s %5s %10s %12s\n", "NUMBER", "NAME", "STOCK", "MIN", "PRICE", "VALUE")
	for _, it := range items {
		flag := ""
		if it.LowStock {
			flag = " !"
		}
		fmt.Fprintf(out, "  %-9s %-28s %7d %5d %10s %12s%s\n",
			it.ProductNumber, truncate(it.Name, 28), it.CurrentStock, it.MinStockLevel,
			it.SellingPrice.StringFixed(2), it.StockValue.StringFixed(2), flag)
	}
	rule(out, "=", wide)
}

func printCustomers(out io.Writer, customers []core.Customer) {
	fmt.Fprintln(out)
	rule(out, "=", wide)
	fmt.Fprintf(out, "  %-9s %-22s %-28s %5s %10s\n", "CODE", "NAME", "EMAIL", "QTY", "SPENT")
	rule(out, "-", wide)
	for _, c := range customers {
		fmt.Fprintf(out, "  %-9s %-22s %-28s %5d %10s\n",
			c.CustomerCode, truncate(c.FullName, 22), truncate(c.Email, 28), c.TotalPurchases, c.TotalSpent.StringFixed(2))
	}
	rule(out, "=", wide)
}

func printStats(out io.Writer, s *core.DashboardStats) {
	fmt.Fprintln(out)
	rule(out, "=", narrow)
	fmt.Fprintf(out, "  %-24s %s\n", "Today's sales", s.TodaySales.StringFixed(2))
	fmt.Fprintf(out, "  %-24s %d\n", "Active customers", s.TotalCustomers)
	fmt.Fprintf(out, "  %-24s %s\n", "Inventory value", s.InventoryValue.StringFixed(2))
	fmt.Fprintf(out, "  %-24s %d\n", "Low-stock products", s.LowStockCount)
	if s.BestSeller != nil {
		fmt.Fprintf(out, "  %-24s %s (%d units)\n", "Best seller (30 days)", s.BestSeller.Name, s.BestSeller.UnitsSold)
	}
	rule(out, "=", narrow)
}

func printDaily(out io.Writer, days []core.DailySales) {
	fmt.Fprintln(out)
	rule(out, "=", narrow)
	for _, d := range days {
		fmt.Fprintf(out, "  %s %s %5d sales %12s\n", d.Day, d.Date, d.Count, d.Total.StringFixed(2))
	}
	rule(out, "=", narrow)
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  sales [limit]                         list recent sales")
	fmt.Fprintln(out, "  sale <id>                             show a sale with its items")
	fmt.Fprintln(out, "  delete-sale <id>                      reverse a sale")
	fmt.Fprintln(out, "  stock | low-stock                     inventory views")
	fmt.Fprintln(out, "  customers                             list customers")
	fmt.Fprintln(out, "  stats | daily                         dashboard figures")
	fmt.Fprintln(out, "  report <xlsx|pdf> <file> [start] [end] write a business report")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
