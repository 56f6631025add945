// Package dealers reads the dealer profile directory owned by the
// store/branch directory service. The settlement core only ever reads it.
package dealers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DealerProfile describes one franchise/agency unit in the dealer network.
type DealerProfile struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	BranchCode string `json:"branch_code"`
	Active     bool   `json:"active"`
}

// ErrNotFound indicates the dealer does not exist.
var ErrNotFound = errors.New("dealers: not found")

// Repository provides read access to dealer profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActiveCodes returns the codes of all active dealers.
func (r *Repository) ListActiveCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT dealer_code FROM dealer_profiles WHERE active ORDER BY dealer_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

// List returns all dealer profiles ordered by code.
func (r *Repository) List(ctx context.Context) ([]DealerProfile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT dealer_code, name, branch_code, active FROM dealer_profiles ORDER BY dealer_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var profiles []DealerProfile
	for rows.Next() {
		var p DealerProfile
		if err := rows.Scan(&p.Code, &p.Name, &p.BranchCode, &p.Active); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Get returns one dealer profile by code.
func (r *Repository) Get(ctx context.Context, code string) (DealerProfile, error) {
	var p DealerProfile
	err := r.pool.QueryRow(ctx,
		`SELECT dealer_code, name, branch_code, active FROM dealer_profiles WHERE dealer_code = $1`,
		code).Scan(&p.Code, &p.Name, &p.BranchCode, &p.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return DealerProfile{}, ErrNotFound
	}
	return p, err
}
