// Package database opens the SQL stores and owns their schema.  Both
// backends share one schema shape; the Dialect captures the few places
// where MySQL and SQLite syntax or error reporting differ.
package database

import "strings"

// Dialect names a SQL flavour.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// LockSuffix is appended to SELECTs that must lock the rows they read
// inside a transaction.  SQLite serializes writers at BEGIN instead.
func (d Dialect) LockSuffix() string {
	if d == MySQL {
		return " FOR UPDATE"
	}
	return ""
}

// Upsert renders an INSERT that overwrites updateCols on primary key
// conflict.
func (d Dialect) Upsert(table string, cols []string, key string, updateCols []string) string {
	ph := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	q := "INSERT INTO " + table + " (" + strings.Join(cols, ",") + ") VALUES (" + ph + ")"
	sets := make([]string, 0, len(updateCols))
	if d == MySQL {
		for _, c := range updateCols {
			sets = append(sets, c+"=VALUES("+c+")")
		}
		return q + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ",")
	}
	for _, c := range updateCols {
		sets = append(sets, c+"=excluded."+c)
	}
	return q + " ON CONFLICT(" + key + ") DO UPDATE SET " + strings.Join(sets, ",")
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint failed")
}

// IsWriteConflict reports whether err means a concurrent writer won: a
// MySQL deadlock/lock timeout or a busy SQLite database.
func IsWriteConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1213") || strings.Contains(msg, "1205") ||
		strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}
