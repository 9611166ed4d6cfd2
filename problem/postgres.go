package problem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const connectTimeout = 3 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS problems (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	function   TEXT NOT NULL DEFAULT '',
	difficulty TEXT NOT NULL DEFAULT '',
	signature  TEXT NOT NULL,
	input      TEXT NOT NULL DEFAULT '',
	tests      JSONB NOT NULL DEFAULT '[]',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const selectColumns = `SELECT id, title, function, difficulty, signature, input, tests FROM problems`

// PostgresStore keeps the catalog in a Postgres table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// Connect opens a pool for connStr and verifies it.
func Connect(ctx context.Context, connStr string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresStore(pool), nil
}

// NewPostgresStore uses an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the problems table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Problem, error) {
	p, err := scanProblem(s.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Problem{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return Problem{}, fmt.Errorf("get problem %q: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Problem, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	defer rows.Close()

	var out []Problem
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("list problems: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	return out, nil
}

// Put inserts p or replaces the problem with the same id.
func (s *PostgresStore) Put(ctx context.Context, p Problem) error {
	if err := p.Validate(); err != nil {
		return err
	}
	tests, err := json.Marshal(p.Tests)
	if err != nil {
		return fmt.Errorf("encode tests: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO problems (id, title, function, difficulty, signature, input, tests)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			function = EXCLUDED.function,
			difficulty = EXCLUDED.difficulty,
			signature = EXCLUDED.signature,
			input = EXCLUDED.input,
			tests = EXCLUDED.tests,
			updated_at = now()`,
		p.ID, p.Title, p.Function, p.Difficulty, p.Signature, p.Input, tests)
	if err != nil {
		return fmt.Errorf("put problem %q: %w", p.ID, err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func scanProblem(row pgx.Row) (Problem, error) {
	var p Problem
	var tests []byte
	if err := row.Scan(&p.ID, &p.Title, &p.Function, &p.Difficulty, &p.Signature, &p.Input, &tests); err != nil {
		return Problem{}, err
	}
	if len(tests) > 0 {
		if err := json.Unmarshal(tests, &p.Tests); err != nil {
			return Problem{}, fmt.Errorf("decode tests for %q: %w", p.ID, err)
		}
	}
	return p, nil
}
