// Package postgres implements the storage repositories against PostgreSQL
// using pgx. Each repository holds the shared pool plus an optional
// transaction; when tx is set every query runs inside it.
package postgres

import (
	"context"
	"fmt"

	"github.com/fsp-platform/server/internal/domain/events"
	"github.com/fsp-platform/server/internal/domain/profiles"
	"github.com/fsp-platform/server/internal/domain/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Profiles() profiles.Repository {
	return &ProfileRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Events() events.Repository {
	return &EventRepository{pool: r.pool, tx: r.tx}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *UserRepository) queryer() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

type ProfileRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *ProfileRepository) queryer() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *EventRepository) queryer() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}
