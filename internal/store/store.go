package store

import (
	"errors"
	"strings"
)

// ErrDuplicate is returned when a write would violate a unique constraint
// (retailer name, product barcode, product+retailer price, list+product item).
var ErrDuplicate = errors.New("duplicate record")

// ErrNotFound is returned by writes that reference a missing parent row.
var ErrNotFound = errors.New("record not found")

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface{ Scan(...any) error }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
