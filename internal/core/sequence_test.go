package core

import "testing"

func TestFormatCode(t *testing.T) {
	tests := []struct {
		entity Entity
		n      int64
		want   string
	}{
		{EntityCustomer, 1, "CUST-001"},
		{EntityCustomer, 42, "CUST-042"},
		{EntityCustomer, 1000, "CUST-1000"},
		{EntitySale, 1, "SL-000001"},
		{EntitySale, 123456, "SL-123456"},
		{EntityProduct, 7, "PRD-007"},
	}
	for _, tt := range tests {
		if got := FormatCode(tt.entity, tt.n); got != tt.want {
			t.Errorf("FormatCode(%s, %d) = %q, want %q", tt.entity, tt.n, got, tt.want)
		}
	}
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		entity Entity
		code   string
		want   int64
		ok     bool
	}{
		{EntityCustomer, "CUST-001", 1, true},
		{EntityCustomer, "CUST-1000", 1000, true},
		{EntityCustomer, "COST-001", 0, false},
		{EntityCustomer, "CUST-01", 0, false},
		{EntityCustomer, "CUST-0A1", 0, false},
		{EntitySale, "SL-000314", 314, true},
		{EntitySale, "SL_001", 0, false},
		{EntitySale, "SL-001", 0, false},
		{EntityProduct, "PRD-010", 10, true},
		{Entity("unknown"), "X-001", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseCode(tt.entity, tt.code)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCode(%s, %q) = (%d, %v), want (%d, %v)", tt.entity, tt.code, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNextCode(t *testing.T) {
	tests := []struct {
		name     string
		entity   Entity
		existing string
		want     string
		ok       bool
	}{
		{"empty table", EntityCustomer, "", "CUST-001", true},
		{"increments", EntityCustomer, "CUST-009", "CUST-010", true},
		{"rolls past width", EntityCustomer, "CUST-999", "CUST-1000", true},
		{"sale", EntitySale, "SL-000099", "SL-000100", true},
		{"unparsable restarts and reports", EntitySale, "SL_007", "SL-000001", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextCode(tt.entity, tt.existing)
			if got != tt.want || ok != tt.ok {
				t.Errorf("NextCode(%q) = (%q, %v), want (%q, %v)", tt.existing, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNextCode_StrictlyIncreasing(t *testing.T) {
	code := ""
	prev := int64(0)
	for i := 0; i < 25; i++ {
		next, ok := NextCode(EntityCustomer, code)
		if !ok {
			t.Fatalf("NextCode(%q) reported unparsable", code)
		}
		n, _ := ParseCode(EntityCustomer, next)
		if n != prev+1 {
			t.Fatalf("expected %d, got %d (%s)", prev+1, n, next)
		}
		prev, code = n, next
	}
}
