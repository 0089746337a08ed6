package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category groups products; categories may nest through ParentCategoryID.
type Category struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	ParentCategoryID *uuid.UUID      `json:"parent_category_id"`
	MarginPercentage decimal.Decimal `json:"margin_percentage"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type Supplier struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	PaymentTerms  string    `json:"payment_terms"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store is a selling location. TaxRate is a percentage.
type Store struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	Phone     string          `json:"phone"`
	Email     string          `json:"email"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Currency  string          `json:"currency"`
	Timezone  string          `json:"timezone"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
