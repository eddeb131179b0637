package returns

import "fmt"

// FormatReturnNumber builds the human-facing return number from the
// year and a per-tenant sequence, e.g. SR-2026-00042.
func FormatReturnNumber(year int, sequence int64) string {
	return fmt.Sprintf("SR-%d-%05d", year, sequence)
}
