// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// service and handlers to distinguish between failure scenarios without
// inspecting driver errors.  The in-memory store returns the same values.
package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row does not exist or belongs to a
// different company.  Tenant isolation means both cases look identical.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation their
// role does not allow.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write violates a uniqueness rule, such
// as a second pricing entry for the same boat, duration and package.
var ErrConflict = errors.New("conflict")

// MySQL server error numbers the repositories react to.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
	mysqlNoReferencedRow = 1452
)

// notFound maps sql.ErrNoRows to ErrNotFound and passes other errors
// through unchanged.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// writeErr maps duplicate-key errors to ErrConflict and foreign-key
// failures (a referenced boat that does not exist) to ErrNotFound.
func writeErr(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return ErrConflict
		case mysqlNoReferencedRow:
			return ErrNotFound
		}
	}
	return err
}

// IsTransient reports whether err is a timeout or connectivity failure
// that is safe to retry with backoff.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlLockWaitTimeout || me.Number == mysqlDeadlock
	}
	return false
}
