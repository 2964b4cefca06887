// Package postgres provides the PostgreSQL implementation of store.ReviewItemStore.
// It handles connections through the pgx database/sql driver, query execution,
// mapping between domain entities and database rows, translation of
// PostgreSQL error codes into store sentinels, and embedded schema migrations.
package postgres
