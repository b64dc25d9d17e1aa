// Package store holds the SQL persistence layer: one store per aggregate,
// plain database/sql, no ORM.
package store

import "database/sql"

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx. Stores
// are constructed over either, so a service can run several store calls as
// one transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
