package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Entity names a class of records that carries a sequential human-readable code.
type Entity string

const (
	EntityCustomer Entity = "customer"
	EntitySale     Entity = "sale"
	EntityProduct  Entity = "product"
)

type codeFormat struct {
	prefix string
	width  int
	table  string
	column string
}

var codeFormats = map[Entity]codeFormat{
	EntityCustomer: {prefix: "CUST-", width: 3, table: "customers", column: "customer_code"},
	EntitySale:     {prefix: "SL-", width: 6, table: "sales", column: "sale_number"},
	EntityProduct:  {prefix: "PRD-", width: 3, table: "products", column: "product_number"},
}

// FormatCode renders n with the entity's prefix, zero-padded to its width.
// Numbers wider than the width are printed in full.
func FormatCode(e Entity, n int64) string {
	f := codeFormats[e]
	return fmt.Sprintf("%s%0*d", f.prefix, f.width, n)
}

// ParseCode extracts the numeric suffix of a code. It fails for the wrong
// prefix, non-digit suffixes and suffixes shorter than the padding width.
func ParseCode(e Entity, code string) (int64, bool) {
	f, ok := codeFormats[e]
	if !ok || !strings.HasPrefix(code, f.prefix) {
		return 0, false
	}
	digits := code[len(f.prefix):]
	if len(digits) < f.width {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextCode returns the code following maxExisting. An empty maxExisting starts
// at 1. An unparsable one also starts at 1, and ok is false so the caller can
// report it.
func NextCode(e Entity, maxExisting string) (next string, ok bool) {
	if maxExisting == "" {
		return FormatCode(e, 1), true
	}
	n, parsed := ParseCode(e, maxExisting)
	if !parsed {
		return FormatCode(e, 1), false
	}
	return FormatCode(e, n+1), true
}

// SequenceGenerator allocates entity codes. Allocation happens inside the
// caller's transaction and holds the entity's counter row lock until that
// transaction ends, so two creators of the same entity type never share a code.
type SequenceGenerator interface {
	NextCodeTx(ctx context.Context, tx pgx.Tx, e Entity) (string, error)
}

type sequenceGenerator struct {
	unparsable metric.Int64Counter
}

// NewSequenceGenerator constructs a SequenceGenerator backed by the entity_sequences table.
func NewSequenceGenerator() SequenceGenerator {
	counter, err := otel.Meter("pos-backend/core").Int64Counter(
		"pos.sequence.unparsable_codes",
		metric.WithDescription("Existing entity codes that did not match the expected format"),
	)
	if err != nil {
		log.Printf("warning: sequence metric unavailable: %v", err)
	}
	return &sequenceGenerator{unparsable: counter}
}

func (g *sequenceGenerator) NextCodeTx(ctx context.Context, tx pgx.Tx, e Entity) (string, error) {
	if _, ok := codeFormats[e]; !ok {
		return "", fmt.Errorf("unknown sequence entity %q", e)
	}

	var n int64
	err := tx.QueryRow(ctx, `
		UPDATE entity_sequences
		SET last_number = last_number + 1, updated_at = NOW()
		WHERE entity = $1
		RETURNING last_number
	`, string(e)).Scan(&n)
	if err == nil {
		return FormatCode(e, n), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("failed to advance %s sequence: %w", e, err)
	}

	// First allocation for this entity: seed the counter from existing codes.
	// A concurrent first allocator hits the conflict branch and increments.
	start, err := g.maxExisting(ctx, tx, e)
	if err != nil {
		return "", err
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO entity_sequences (entity, last_number)
		VALUES ($1, $2)
		ON CONFLICT (entity)
		DO UPDATE SET last_number = entity_sequences.last_number + 1, updated_at = NOW()
		RETURNING last_number
	`, string(e), start+1).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("failed to initialise %s sequence: %w", e, err)
	}
	return FormatCode(e, n), nil
}

// maxExisting scans the entity table for the highest parsable code.
func (g *sequenceGenerator) maxExisting(ctx context.Context, tx pgx.Tx, e Entity) (int64, error) {
	f := codeFormats[e]
	rows, err := tx.Query(ctx, fmt.Sprintf("SELECT %s FROM %s", f.column, f.table))
	if err != nil {
		return 0, fmt.Errorf("failed to scan existing %s codes: %w", e, err)
	}
	defer rows.Close()

	var highest int64
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return 0, fmt.Errorf("failed to read %s code: %w", e, err)
		}
		n, ok := ParseCode(e, code)
		if !ok {
			g.reportUnparsable(ctx, e, code)
			continue
		}
		if n > highest {
			highest = n
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan existing %s codes: %w", e, err)
	}
	return highest, nil
}

func (g *sequenceGenerator) reportUnparsable(ctx context.Context, e Entity, code string) {
	log.Printf("warning: %s code %q does not match %s format, ignoring it for numbering", e, code, codeFormats[e].prefix)
	if g.unparsable != nil {
		g.unparsable.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", string(e))))
	}
}
