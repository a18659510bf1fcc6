package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Enum normalization lives here and only here. Older backend versions leaked
// Spanish literals ("cliente", "borrador", "finalizada") and mixed casing;
// each enum has exactly one Parse function applied at decode time, so literal
// comparisons elsewhere in the codebase always see the canonical form.

// Role of a user account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole normalizes a backend role literal.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "user", "cliente": // "cliente" predates the role rename
		return RoleUser, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// DeclarationStatus of a yearly filing.
type DeclarationStatus string

const (
	StatusPending   DeclarationStatus = "PENDING"
	StatusCompleted DeclarationStatus = "COMPLETED"
)

// ParseDeclarationStatus normalizes a backend status literal.
func ParseDeclarationStatus(s string) (DeclarationStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING", "BORRADOR":
		return StatusPending, nil
	case "COMPLETED", "FINALIZADA":
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("unknown declaration status %q", s)
	}
}

func (d *DeclarationStatus) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDeclarationStatus(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DataSource tags where a line item came from: typed in by hand or imported
// from an exogenous reconciliation file.
type DataSource string

const (
	SourceManual  DataSource = "MANUAL"
	SourceExogeno DataSource = "EXOGENO"
)

// ParseDataSource normalizes a backend source literal.
func ParseDataSource(s string) (DataSource, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MANUAL":
		return SourceManual, nil
	case "EXOGENO":
		return SourceExogeno, nil
	default:
		return "", fmt.Errorf("unknown data source %q", s)
	}
}

func (d *DataSource) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDataSource(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
