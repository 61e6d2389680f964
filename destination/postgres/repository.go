package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/marcelsud/webhook-dispatch/destination"
)

/* PostgreSQL implementation of destination.Repository
 * Destinations are rows of webhook_destinations; overrides are nullable columns
 */

const (
	columns = `id, url, channel, headers, secret, active, max_retries, retry_delay_ms,
		success_status_codes, failure_count, last_triggered, created_at, updated_at`

	selectQuery = `SELECT ` + columns + ` FROM webhook_destinations WHERE id = $1`

	selectAllQuery = `SELECT ` + columns + ` FROM webhook_destinations ORDER BY id`

	upsertQuery = `
		INSERT INTO webhook_destinations (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			url = EXCLUDED.url,
			channel = EXCLUDED.channel,
			headers = EXCLUDED.headers,
			secret = EXCLUDED.secret,
			active = EXCLUDED.active,
			max_retries = EXCLUDED.max_retries,
			retry_delay_ms = EXCLUDED.retry_delay_ms,
			success_status_codes = EXCLUDED.success_status_codes,
			failure_count = EXCLUDED.failure_count,
			last_triggered = EXCLUDED.last_triggered,
			updated_at = EXCLUDED.updated_at`

	deleteQuery = `DELETE FROM webhook_destinations WHERE id = $1`

	recordOutcomeQuery = `
		UPDATE webhook_destinations
		SET failure_count = CASE WHEN $2 THEN 0 ELSE failure_count + 1 END,
			last_triggered = $3
		WHERE id = $1`

	createTableQuery = `
		CREATE TABLE IF NOT EXISTS webhook_destinations (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			channel TEXT NOT NULL DEFAULT 'generic',
			headers JSONB NOT NULL DEFAULT '{}',
			secret TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			max_retries INTEGER,
			retry_delay_ms BIGINT,
			success_status_codes INTEGER[],
			failure_count INTEGER NOT NULL DEFAULT 0,
			last_triggered TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`

	dropTableQuery = `DROP TABLE IF EXISTS webhook_destinations CASCADE`
)

type Repository struct {
	DB *sql.DB
}

// NewRepository opens a pool with the default settings (25 open, 5 idle, 5 min lifetime)
func NewRepository(connectionString string) (*Repository, error) {
	return NewRepositoryWithPoolConfig(connectionString, 25, 5, 5)
}

// NewRepositoryWithPoolConfig opens a pool; zero values keep the database/sql defaults
func NewRepositoryWithPoolConfig(connectionString string, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Repository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
	if maxLifeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(maxLifeMinutes) * time.Minute)
	}

	return &Repository{DB: db}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) Get(ctx context.Context, id string) (destination.Destination, error) {
	d, err := scanDestination(r.DB.QueryRowContext(ctx, selectQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return destination.Destination{}, fmt.Errorf("%w: %s", destination.ErrNotFound, id)
	}
	if err != nil {
		return destination.Destination{}, fmt.Errorf("selecting destination: %w", err)
	}
	return d, nil
}

func (r *Repository) List(ctx context.Context) ([]destination.Destination, error) {
	rows, err := r.DB.QueryContext(ctx, selectAllQuery)
	if err != nil {
		return nil, fmt.Errorf("selecting destinations: %w", err)
	}
	defer rows.Close()

	list := []destination.Destination{}
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning destination: %w", err)
		}
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating destinations: %w", err)
	}
	return list, nil
}

// Save inserts or replaces a destination; created_at is kept on update
func (r *Repository) Save(ctx context.Context, d destination.Destination) error {
	headers, err := json.Marshal(d.Headers)
	if err != nil {
		return fmt.Errorf("marshaling headers: %w", err)
	}
	if d.Headers == nil {
		headers = []byte("{}")
	}

	var maxRetries, delayMS sql.NullInt64
	if d.MaxRetries != nil {
		maxRetries = sql.NullInt64{Int64: int64(*d.MaxRetries), Valid: true}
	}
	if d.RetryDelay != nil {
		delayMS = sql.NullInt64{Int64: d.RetryDelay.Milliseconds(), Valid: true}
	}

	var codes interface{}
	if len(d.SuccessStatusCodes) > 0 {
		c := make([]int64, len(d.SuccessStatusCodes))
		for i, v := range d.SuccessStatusCodes {
			c[i] = int64(v)
		}
		codes = pq.Array(c)
	}

	var lastTriggered sql.NullTime
	if d.LastTriggered != nil {
		lastTriggered = sql.NullTime{Time: *d.LastTriggered, Valid: true}
	}

	_, err = r.DB.ExecContext(ctx, upsertQuery,
		d.ID,
		d.URL,
		d.Channel.String(),
		headers,
		d.Secret,
		d.Active,
		maxRetries,
		delayMS,
		codes,
		d.FailureCount,
		lastTriggered,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving destination: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		return fmt.Errorf("deleting destination: %w", err)
	}
	return expectOneRow(result, id)
}

func (r *Repository) RecordOutcome(ctx context.Context, id string, delivered bool, at time.Time) error {
	result, err := r.DB.ExecContext(ctx, recordOutcomeQuery, id, delivered, at)
	if err != nil {
		return fmt.Errorf("recording outcome: %w", err)
	}
	return expectOneRow(result, id)
}

func (r *Repository) Close(ctx context.Context) error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

// CreateTable creates webhook_destinations when missing
func (r *Repository) CreateTable(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, createTableQuery); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	return nil
}

// DropTable removes webhook_destinations (tests only)
func (r *Repository) DropTable(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, dropTableQuery); err != nil {
		return fmt.Errorf("dropping table: %w", err)
	}
	return nil
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", destination.ErrNotFound, id)
	}
	return nil
}

func scanDestination(s scanner) (destination.Destination, error) {
	var (
		d             destination.Destination
		channel       string
		headers       []byte
		maxRetries    sql.NullInt64
		delayMS       sql.NullInt64
		codes         pq.Int64Array
		lastTriggered sql.NullTime
	)

	err := s.Scan(
		&d.ID,
		&d.URL,
		&channel,
		&headers,
		&d.Secret,
		&d.Active,
		&maxRetries,
		&delayMS,
		&codes,
		&d.FailureCount,
		&lastTriggered,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return destination.Destination{}, err
	}

	d.Channel = destination.NewChannel(channel)
	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &d.Headers); err != nil {
			return destination.Destination{}, fmt.Errorf("unmarshaling headers: %w", err)
		}
	}
	if maxRetries.Valid {
		v := int(maxRetries.Int64)
		d.MaxRetries = &v
	}
	if delayMS.Valid {
		v := time.Duration(delayMS.Int64) * time.Millisecond
		d.RetryDelay = &v
	}
	for _, c := range codes {
		d.SuccessStatusCodes = append(d.SuccessStatusCodes, int(c))
	}
	if lastTriggered.Valid {
		v := lastTriggered.Time
		d.LastTriggered = &v
	}
	return d, nil
}
