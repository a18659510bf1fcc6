package controller

import (
	"strconv"
	"strings"

	"github.com/exotrack/exotrack-console/internal/domain"
)

// normalizeTerm lower-cases and trims a search term so matching is
// case-insensitive everywhere.
func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func contains(field, term string) bool {
	return strings.Contains(strings.ToLower(field), term)
}

// MatchUser matches users on full name, document number and email.
func MatchUser(u domain.User, term string) bool {
	return contains(u.FullName, term) ||
		contains(u.DocumentNumber, term) ||
		contains(u.Email, term)
}

// MatchDeclaration matches declarations on taxable year, status and
// description.
func MatchDeclaration(d domain.Declaration, term string) bool {
	return contains(strconv.Itoa(d.TaxableYear), term) ||
		contains(string(d.Status), term) ||
		contains(d.Description, term)
}

// MatchLineItem matches line items on concept.
func MatchLineItem(i domain.LineItem, term string) bool {
	return contains(i.Concept, term)
}
