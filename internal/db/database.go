package db

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoDSN is returned by Connect when no connection string is configured.
var ErrNoDSN = errors.New("no database configured")

// NotifyChannel is the NOTIFY channel fed by the assessments insert trigger.
const NotifyChannel = "assessment_stream"

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps a pgx connection pool and stores assessment history.
type DB struct {
	Pool   *pgxpool.Pool
	logger *slog.Logger
}

// Connect creates a new DB instance, connects to PostgreSQL, and runs migrations.
func Connect(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	db := &DB{Pool: pool, logger: logger}
	if err := db.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Migrate reads and executes the embedded SQL migration files.
func (db *DB) Migrate(ctx context.Context) error {
	sql, err := migrations.ReadFile("migrations/001_init.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := db.Pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	db.logger.Info("database migrated")
	return nil
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// InsertAssessment stores e and fills in its ID and creation time.
func (db *DB) InsertAssessment(ctx context.Context, e *HistoryEntry) error {
	explanation := e.Explanation
	if len(explanation) == 0 {
		explanation = []byte("{}")
	}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO assessments (surface, original_url, checked_url, probability, tier, color, explanation)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		e.Surface, e.OriginalURL, e.CheckedURL, e.Probability, e.Tier, e.Color, string(explanation),
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

// RecentAssessments returns up to limit entries, newest first.
func (db *DB) RecentAssessments(ctx context.Context, limit int) ([]HistoryEntry, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, surface, original_url, checked_url, probability, tier, color, explanation::text, created_at
		 FROM assessments ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		var explanation string
		if err := rows.Scan(&e.ID, &e.Surface, &e.OriginalURL, &e.CheckedURL, &e.Probability, &e.Tier, &e.Color, &explanation, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		e.Explanation = []byte(explanation)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// AssessmentByID returns a single entry.
func (db *DB) AssessmentByID(ctx context.Context, id int64) (*HistoryEntry, error) {
	var e HistoryEntry
	var explanation string
	err := db.Pool.QueryRow(ctx,
		`SELECT id, surface, original_url, checked_url, probability, tier, color, explanation::text, created_at
		 FROM assessments WHERE id = $1`, id,
	).Scan(&e.ID, &e.Surface, &e.OriginalURL, &e.CheckedURL, &e.Probability, &e.Tier, &e.Color, &explanation, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get assessment %d: %w", id, err)
	}
	e.Explanation = []byte(explanation)
	return &e, nil
}

// EventPayload resolves a NotifyChannel notification, which carries only the
// row id, into the JSON of the inserted entry.
func (db *DB) EventPayload(ctx context.Context, notification string) ([]byte, error) {
	id, err := strconv.ParseInt(notification, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad notification payload %q: %w", notification, err)
	}
	e, err := db.AssessmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// PruneAssessments deletes entries older than maxAge.
func (db *DB) PruneAssessments(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM assessments WHERE created_at < $1`, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("prune assessments: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RetentionLoop prunes history older than maxAge every interval.
func (db *DB) RetentionLoop(ctx context.Context, maxAge, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := db.PruneAssessments(ctx, maxAge)
			if err != nil {
				db.logger.Error("history retention failed", "err", err)
				continue
			}
			if deleted > 0 {
				db.logger.Info("pruned assessment history", "count", deleted)
			}
		}
	}
}
