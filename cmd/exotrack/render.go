package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/exotrack/exotrack-console/internal/controller"
	"github.com/exotrack/exotrack-console/internal/domain"
)

// table prints rows with aligned columns.
func table(header []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

// pageFooter prints the pagination strip under a list.
func pageFooter[T any](list *controller.List[T]) {
	var strip []string
	for _, p := range list.PageNumbers() {
		switch {
		case p == controller.Ellipsis:
			strip = append(strip, "…")
		case p == list.Page():
			strip = append(strip, "["+strconv.Itoa(p)+"]")
		default:
			strip = append(strip, strconv.Itoa(p))
		}
	}
	suffix := ""
	if list.Searching() {
		suffix = fmt.Sprintf("  (search: %q)", list.SearchTerm())
	}
	fmt.Printf("\nPage %d/%d, %d total  %s%s\n",
		list.Page(), list.TotalPages(), list.Total(), strings.Join(strip, " "), suffix)
}

func renderUsers(users []domain.User) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			u.ID, u.DocumentNumber, u.FullName, u.Email, string(u.Role), activeLabel(u.IsActive),
		})
	}
	return rows
}

func renderDeclarations(decls []domain.Declaration) [][]string {
	rows := make([][]string, 0, len(decls))
	for _, d := range decls {
		rows = append(rows, []string{
			d.ID, strconv.Itoa(d.TaxableYear), string(d.Status), d.Description, d.UpdatedAt.Format(time.DateOnly),
		})
	}
	return rows
}

func renderItems(items []domain.LineItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, i := range items {
		rows = append(rows, []string{
			i.ID, i.Concept, formatAmount(i.Amount.Float64()), string(i.Source),
		})
	}
	return rows
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
