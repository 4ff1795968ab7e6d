// Package db provides PostgreSQL storage for portfolio Fact Sets keyed by
// owner slug.
package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linphone2000/lpmz-portfolio-v2/internal/portfolio"
	"github.com/linphone2000/lpmz-portfolio-v2/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// ErrFactsNotFound is returned when no Fact Set is stored for an owner.
var ErrFactsNotFound = errors.New("facts not found")

var ownerPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// ValidateOwner checks an owner slug.
func ValidateOwner(owner string) error {
	if !ownerPattern.MatchString(owner) {
		return fmt.Errorf("invalid owner slug %q: use lowercase letters, digits and dashes", owner)
	}
	return nil
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the tables this package uses.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// FactsRecord is a stored Fact Set.
type FactsRecord struct {
	Owner     string
	Facts     *types.Portfolio
	UpdatedAt time.Time
}

// LoadPortfolio returns the validated Fact Set stored for owner.
func (db *DB) LoadPortfolio(ctx context.Context, owner string) (*FactsRecord, error) {
	var document []byte
	var updatedAt time.Time
	err := db.pool.QueryRow(ctx,
		`SELECT document, updated_at FROM portfolio_facts WHERE owner = $1`,
		owner,
	).Scan(&document, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w for owner %s", ErrFactsNotFound, owner)
		}
		return nil, fmt.Errorf("failed to load facts for %s: %w", owner, err)
	}

	facts, err := portfolio.Decode(document, portfolio.FormatJSON, "db:"+owner)
	if err != nil {
		return nil, err
	}
	return &FactsRecord{Owner: owner, Facts: facts, UpdatedAt: updatedAt}, nil
}

// SavePortfolio validates and stores the Fact Set for owner, replacing any
// previous version.
func (db *DB) SavePortfolio(ctx context.Context, owner string, facts *types.Portfolio) (time.Time, error) {
	if err := ValidateOwner(owner); err != nil {
		return time.Time{}, err
	}
	if err := portfolio.Validate(facts); err != nil {
		return time.Time{}, err
	}

	document, err := json.Marshal(facts)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to marshal facts: %w", err)
	}

	var updatedAt time.Time
	err = db.pool.QueryRow(ctx,
		`INSERT INTO portfolio_facts (owner, document)
		 VALUES ($1, $2)
		 ON CONFLICT (owner) DO UPDATE SET document = $2, updated_at = NOW()
		 RETURNING updated_at`,
		owner, document,
	).Scan(&updatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to save facts for %s: %w", owner, err)
	}
	return updatedAt, nil
}

// DeletePortfolio removes the Fact Set for owner.
func (db *DB) DeletePortfolio(ctx context.Context, owner string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM portfolio_facts WHERE owner = $1`, owner)
	if err != nil {
		return fmt.Errorf("failed to delete facts for %s: %w", owner, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w for owner %s", ErrFactsNotFound, owner)
	}
	return nil
}

// ListOwners returns every owner with a stored Fact Set.
func (db *DB) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT owner FROM portfolio_facts ORDER BY owner`)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	owners, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan owners: %w", err)
	}
	return owners, nil
}
