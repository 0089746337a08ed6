package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is a buyer record. Aggregates are maintained only by the sale
// transaction and its reversal.
type Customer struct {
	ID             uuid.UUID       `json:"id"`
	CustomerCode   string          `json:"customer_code"`
	FullName       string          `json:"full_name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	TIN            string          `json:"tin"`
	TotalPurchases int             `json:"total_purchases"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	IsActive       bool            `json:"is_active"`
	LastVisit      *time.Time      `json:"last_visit"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CustomerRef identifies a customer on an inbound sale. Email wins over phone.
type CustomerRef struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
	TIN      string `json:"tin"`
}

// CustomerUpdate is a partial update; nil fields are left unchanged.
type CustomerUpdate struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	TIN      *string `json:"tin"`
	IsActive *bool   `json:"is_active"`
}

// CustomerInsights summarises the customer base for the dashboard.
type CustomerInsights struct {
	TotalCustomers  int        `json:"total_customers"`
	ActiveCustomers int        `json:"active_customers"`
	NewLast30Days   int        `json:"new_last_30_days"`
	TopCustomers    []Customer `json:"top_customers"`
}
