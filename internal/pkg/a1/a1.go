// Package a1 translates sheet and range tool arguments into the A1
// notation the Sheets API expects.
package a1

import (
	"fmt"
	"strings"
)

// Qualify combines a sheet title and an optional A1 range into a fully
// qualified range. A range that already names a sheet (contains '!') wins
// and the sheet argument is ignored. An empty range addresses the whole
// sheet. Qualify is idempotent on already-qualified input.
func Qualify(sheet, rng string) string {
	if strings.Contains(rng, "!") {
		return rng
	}
	if rng == "" {
		return sheet
	}
	return sheet + "!" + rng
}

// FirstRows returns the qualified range covering the first n rows of the
// sheet across all columns, clamped to at least one row.
func FirstRows(sheet string, n int64) string {
	if n < 1 {
		n = 1
	}
	return fmt.Sprintf("%s!A1:%d", sheet, n)
}
