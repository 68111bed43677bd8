package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS forecast_models (
	id         uuid PRIMARY KEY,
	name       text NOT NULL DEFAULT '',
	created_at timestamptz NOT NULL,
	n_obs      integer NOT NULL,
	start_at   timestamptz NOT NULL,
	end_at     timestamptz NOT NULL,
	snapshot   bytea NOT NULL
)`

// Postgres is a Store backed by a pgx connection pool. Snapshots are kept
// as snappy-compressed JSON in a bytea column.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL, verifies connectivity and creates
// the models table if needed.
func NewPostgres(ctx context.Context, databaseURL string, maxConns int32) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Put(ctx context.Context, rec *Record) error {
	if !validID(rec.ID) {
		return fmt.Errorf("invalid model id %q", rec.ID)
	}
	data, err := encode(rec.Snapshot)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO forecast_models (id, name, created_at, n_obs, start_at, end_at, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, created_at = EXCLUDED.created_at, n_obs = EXCLUDED.n_obs,
			start_at = EXCLUDED.start_at, end_at = EXCLUDED.end_at, snapshot = EXCLUDED.snapshot`,
		rec.ID, rec.Name, rec.CreatedAt, rec.NObs, rec.Start, rec.End, data)
	if err != nil {
		return fmt.Errorf("insert model: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*Record, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	var rec Record
	var data []byte
	err := p.pool.QueryRow(ctx, `
		SELECT id::text, name, created_at, n_obs, start_at, end_at, snapshot
		FROM forecast_models WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Name, &rec.CreatedAt, &rec.NObs, &rec.Start, &rec.End, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query model: %w", err)
	}
	if rec.Snapshot, err = decode(data); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := p.pool.Exec(ctx, `DELETE FROM forecast_models WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]Info, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id::text, name, created_at, n_obs, start_at, end_at
		FROM forecast_models ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Info, error) {
		var info Info
		err := row.Scan(&info.ID, &info.Name, &info.CreatedAt, &info.NObs, &info.Start, &info.End)
		return info, err
	})
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return out, nil
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM forecast_models`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count models: %w", err)
	}
	return n, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}
