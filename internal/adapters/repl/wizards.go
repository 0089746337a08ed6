package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pos-backend/internal/adapters/cli"
	"pos-backend/internal/app"
	"pos-backend/internal/core"
)

const defaultPaymentMethod = "cash"

func prompt(reader *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	s, _ := reader.ReadString('\n')
	return strings.TrimSpace(s)
}

// newSale collects customer details and lines, then records the sale in one
// call. Prices default to the product's selling price.
func newSale(ctx context.Context, reader *bufio.Reader, out io.Writer, svc app.ApplicationService, session *app.UserSession) error {
	fmt.Fprintln(out, "New sale. Leave customer fields blank for a walk-in.")
	var in core.CreateSaleInput
	in.Customer.FullName = prompt(reader, out, "Customer name: ")
	in.Customer.Email = prompt(reader, out, "Customer email: ")
	if in.Customer.Email == "" {
		in.Customer.Phone = prompt(reader, out, "Customer phone: ")
	}

	fmt.Fprintln(out, "Enter lines. Type 'done' when finished, 'cancel' to abort.")
	fmt.Fprintln(out, "Format per line: <product-number> <quantity> [unit-price]")
	fmt.Fprintln(out, "  Example: PRD-001 2")

	subtotal := decimal.Zero
	lineNum := 1
	for {
		raw := prompt(reader, out, fmt.Sprintf("  Line %d: ", lineNum))
		if strings.EqualFold(raw, "cancel") {
			fmt.Fprintln(out, "Sale cancelled.")
			return nil
		}
		if raw == "" || strings.EqualFold(raw, "done") {
			break
		}

		parts := strings.Fields(raw)
		if len(parts) < 2 {
			fmt.Fprintln(out, "  Invalid format. Use: <product-number> <quantity> [unit-price]")
			continue
		}
		qty, err := strconv.Atoi(parts[1])
		if err != nil || qty < 1 {
			fmt.Fprintln(out, "  Invalid quantity.")
			continue
		}
		product, err := svc.GetProductByNumber(ctx, strings.ToUpper(parts[0]))
		if err != nil {
			fmt.Fprintf(out, "  %v\n", err)
			continue
		}
		price := product.SellingPrice
		if len(parts) >= 3 {
			price, err = decimal.NewFromString(parts[2])
			if err != nil || price.IsNegative() {
				fmt.Fprintln(out, "  Invalid price.")
				continue
			}
		}

		item := core.SaleItemInput{
			ProductID: product.ID,
			Quantity:  qty,
			UnitPrice: price,
		}
		in.Items = append(in.Items, item)
		line := price.Mul(decimal.NewFromInt(int64(qty)))
		subtotal = subtotal.Add(line)
		fmt.Fprintf(out, "  + %s x%d = %s\n", product.Name, qty, line.StringFixed(2))
		lineNum++
	}

	if len(in.Items) == 0 {
		fmt.Fprintln(out, "No lines entered. Sale not recorded.")
		return nil
	}

	tax := decimal.Zero
	if raw := prompt(reader, out, "Tax amount [0]: "); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid tax amount %q", raw)
		}
		tax = v
	}
	discount := decimal.Zero
	if raw := prompt(reader, out, "Discount [0]: "); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid discount %q", raw)
		}
		discount = v
	}
	method := prompt(reader, out, fmt.Sprintf("Payment method [%s]: ", defaultPaymentMethod))
	if method == "" {
		method = defaultPaymentMethod
	}

	in.Sale = core.SaleHeaderInput{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DiscountAmount: discount,
		TotalAmount:    subtotal.Add(tax).Sub(discount),
		PaymentMethod:  method,
		PaymentStatus:  "paid",
	}
	if session != nil {
		uid := session.UserID
		in.Sale.UserID = &uid
	}

	fmt.Fprintf(out, "Total due: %s. Record sale? (y/n): ", in.Sale.TotalAmount.StringFixed(2))
	choice, _ := reader.ReadString('\n')
	choice = strings.TrimSpace(strings.ToLower(choice))
	if choice != "y" && choice != "yes" {
		fmt.Fprintln(out, "Sale cancelled.")
		return nil
	}

	conf, err := svc.CreateSale(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSale %s recorded.\n", conf.SaleNumber)
	return cli.Run(ctx, svc, []string{"sale", conf.SaleID.String()}, out)
}
