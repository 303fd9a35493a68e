// Package repository is the data access layer.
//
// Queries wraps a *sql.DB and exposes one method per SQL statement. Row
// structs mirror table layout; translation to domain types happens in the
// service layer. Statements are independent and unsequenced: there are no
// explicit transaction boundaries, and the usage-counter snapshot write is
// deliberately not atomic with the analysis insert (permission decisions
// recompute from the analyses rows, never from the snapshot).
package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Queries provides access to all database operations.
type Queries struct {
	db *sql.DB
}

// New creates a Queries instance backed by the given database handle.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = sql.ErrNoRows

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
