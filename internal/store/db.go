package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps the pgx-backed sql.DB shared by the repositories.
type DB struct {
	Client *sql.DB
}

// NewDB opens a Postgres pool and verifies connectivity before returning.
// Pool limits come from configuration: sheet ingest and timetable bulk
// creates each hold a transaction open, so the open limit bounds how many
// replaces can run concurrently.
func NewDB(connString string, maxOpenConns, maxIdleConns int) (*DB, error) {
	if maxOpenConns < 1 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", maxOpenConns)
	}
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &DB{Client: db}, nil
}

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
