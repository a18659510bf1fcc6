package domain

import "time"

// Declaration is a yearly tax-filing record for one customer. At most one
// declaration exists per (user, taxableYear) pair; the year picker in any
// front end is expected to exclude years already used.
type Declaration struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	TaxableYear int               `json:"taxableYear"`
	Status      DeclarationStatus `json:"status"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// CreateDeclarationRequest opens a new declaration for a customer.
// New declarations always start PENDING.
type CreateDeclarationRequest struct {
	UserID      string `json:"userId"`
	TaxableYear int    `json:"taxableYear"`
	Description string `json:"description,omitempty"`
}

// MinTaxableYear and MaxTaxableYear bound the plausible declaration years.
const (
	MinTaxableYear = 2000
	MaxTaxableYear = 2100
)
