package usage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"geminicli2api-go/internal/migrations"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const pgTimeout = 5 * time.Second

// PostgresStorage persists statistics as a JSONB document in a
// single-row table managed by embedded migrations.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage opens the database, verifies connectivity, and
// applies pending migrations.
func NewPostgresStorage(dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pgTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := migrations.Apply(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	log.Info("Connected to PostgreSQL usage storage")
	return &PostgresStorage{db: db}, nil
}

func (p *PostgresStorage) Load(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, pgTimeout)
	defer cancel()

	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT stats FROM usage_stats WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return NewStats(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load usage stats: %w", err)
	}

	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("decode usage stats: %w", err)
	}
	stats.normalize()
	return &stats, nil
}

func (p *PostgresStorage) Save(ctx context.Context, stats *Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, pgTimeout)
	defer cancel()

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO usage_stats (id, stats, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET stats = EXCLUDED.stats, updated_at = EXCLUDED.updated_at`,
		data)
	if err != nil {
		return fmt.Errorf("save usage stats: %w", err)
	}
	return nil
}

func (p *PostgresStorage) Close() error {
	return p.db.Close()
}
