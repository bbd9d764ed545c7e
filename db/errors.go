// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure from either supported driver.
func IsUniqueViolation(err error) bool {
	return matches(err, pgerrcode.UniqueViolation, "UNIQUE",
		sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

// IsCheckViolation reports whether err is a CHECK constraint failure.
func IsCheckViolation(err error) bool {
	return matches(err, pgerrcode.CheckViolation, "CHECK", sqlite3.SQLITE_CONSTRAINT_CHECK)
}

// IsForeignKeyViolation reports whether err is a foreign key failure.
func IsForeignKeyViolation(err error) bool {
	return matches(err, pgerrcode.ForeignKeyViolation, "FOREIGN KEY", sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY)
}

// IsConstraintViolation reports whether err is any integrity failure.
func IsConstraintViolation(err error) bool {
	return IsUniqueViolation(err) || IsCheckViolation(err) || IsForeignKeyViolation(err)
}

func matches(err error, pgCode, sqliteWord string, sqliteCodes ...int) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgCode
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		for _, c := range sqliteCodes {
			if code == c {
				return true
			}
		}
		// Without extended result codes only the primary code is set.
		return code&0xff == sqlite3.SQLITE_CONSTRAINT &&
			strings.Contains(liteErr.Error(), sqliteWord+" constraint failed")
	}

	return false
}
