package domain

import "time"

// ItemKind selects one of the three parallel line-item collections attached
// to a declaration. They share a wire shape and differ only in economic
// meaning (and endpoint root).
type ItemKind string

const (
	KindAsset     ItemKind = "assets"
	KindIncome    ItemKind = "incomes"
	KindLiability ItemKind = "liabilities"
)

// LineItem is a single asset, income or liability row on a declaration.
// Amount arrives from the backend as either a JSON number or a decimal
// string; the Amount type coerces it exactly once, at decode time.
type LineItem struct {
	ID            string     `json:"id"`
	DeclarationID string     `json:"declarationId"`
	Concept       string     `json:"concept"`
	Amount        Amount     `json:"amount"`
	Source        DataSource `json:"source"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// CreateLineItemRequest adds a row to a declaration. Source records whether
// the row was typed in by the accountant or imported from an exogenous file.
type CreateLineItemRequest struct {
	DeclarationID string     `json:"declarationId"`
	Concept       string     `json:"concept"`
	Amount        Amount     `json:"amount"`
	Source        DataSource `json:"source"`
}
