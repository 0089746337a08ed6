package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"

	"pos-backend/internal/app"
	"pos-backend/internal/core"
)

// ErrUsage is returned for unknown commands and missing arguments.
var ErrUsage = errors.New("usage error")

const defaultSalesLimit = 20

// Run executes one command. args[0] is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) error {
	if len(args) == 0 {
		printHelp(out)
		return ErrUsage
	}

	switch args[0] {
	case "sales", "ls":
		limit := defaultSalesLimit
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("%w: limit must be a positive integer", ErrUsage)
			}
			limit = n
		}
		sales, err := svc.ListSales(ctx, core.SaleFilter{Limit: limit})
		if err != nil {
			return err
		}
		printSales(out, sales)

	case "sale", "show":
		id, err := uuidArg(args, "sale <id>")
		if err != nil {
			return err
		}
		sale, err := svc.GetSale(ctx, id)
		if err != nil {
			return err
		}
		printSaleDetail(out, sale)

	case "delete-sale", "void":
		id, err := uuidArg(args, "delete-sale <id>")
		if err != nil {
			return err
		}
		if err := svc.DeleteSale(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(out, "Sale %s deleted; stock and customer totals restored.\n", id)

	case "stock", "inventory":
		items, err := svc.Inventory(ctx)
		if err != nil {
			return err
		}
		printInventory(out, "INVENTORY", items)

	case "low-stock", "low":
		items, err := svc.LowStock(ctx)
		if err != nil {
			return err
		}
		printInventory(out, "LOW STOCK", items)

	case "customers":
		customers, err := svc.ListCustomers(ctx)
		if err != nil {
			return err
		}
		printCustomers(out, customers)

	case "stats":
		stats, err := svc.DashboardStats(ctx)
		if err != nil {
			return err
		}
		printStats(out, stats)

	case "daily":
		days, err := svc.DailySales(ctx)
		if err != nil {
			return err
		}
		printDaily(out, days)

	case "report":
		if len(args) < 3 {
			return fmt.Errorf("%w: report <xlsx|pdf> <file> [start YYYY-MM-DD] [end YYYY-MM-DD]", ErrUsage)
		}
		return writeReport(ctx, svc, args[1], args[2], args[3:], out)

	case "help", "h":
		printHelp(out)

	default:
		printHelp(out)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	return nil
}

func uuidArg(args []string, usage string) (uuid.UUID, error) {
	if len(args) < 2 {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrUsage, usage)
	}
	id, err := uuid.Parse(args[1])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", ErrUsage, args[1])
	}
	return id, nil
}

func writeReport(ctx context.Context, svc app.ApplicationService, formatArg, path string, dates []string, out io.Writer) error {
	format, err := app.ParseReportFormat(formatArg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	var start, end string
	if len(dates) > 0 {
		start = dates[0]
	}
	if len(dates) > 1 {
		end = dates[1]
	}
	req, err := app.ParseReportDates(start, end)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := svc.ExportReport(ctx, req, format, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(out, "Report written to %s\n", path)
	return nil
}
