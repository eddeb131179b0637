package persistence

import "strings"

// OrderClause builds a SQL ORDER BY expression from user-supplied sort
// parameters. The column must appear in the allowed set, otherwise the
// fallback column is used; the direction collapses to ASC or DESC. The
// result is safe to splice into a query.
func OrderClause(orderBy, orderDir string, allowed map[string]bool, fallback string) string {
	column := strings.TrimSpace(orderBy)
	if column == "" || !allowed[column] {
		column = fallback
	}

	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(orderDir), "ASC") {
		dir = "ASC"
	}

	return column + " " + dir
}

// SalesReturnSortFields are the columns list endpoints may sort
// sales returns by.
var SalesReturnSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"return_number": true,
	"return_date":   true,
	"customer_name": true,
	"status":        true,
	"refund_type":   true,
	"total_amount":  true,
	"refund_amount": true,
	"submitted_at":  true,
	"approved_at":   true,
}

// ReturnApprovalSortFields are the columns audit queries may sort by.
var ReturnApprovalSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"action":     true,
	"actor_name": true,
}
