// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in the internal/store package.
//
// All implementations use the standard database/sql interface via the pgx
// driver, accept a store.DBTX so they work inside or outside transactions,
// and translate driver errors into store sentinel errors.
package postgres
