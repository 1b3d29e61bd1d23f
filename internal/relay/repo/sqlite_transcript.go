package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	errx "github.com/chative-sms/relay/internal/core/error"
	"github.com/chative-sms/relay/internal/relay/model"
	logx "github.com/chative-sms/relay/pkg/logger"
)

// SQLiteTranscriptRepository stores exchanges in an SQLite table. The
// "sqlite3" driver must be registered by the binary (blank import of
// github.com/mattn/go-sqlite3).
type SQLiteTranscriptRepository struct {
	db *sql.DB
}

// NewSQLiteTranscriptRepository opens dsn and creates the schema.
func NewSQLiteTranscriptRepository(ctx context.Context, dsn string) (*SQLiteTranscriptRepository, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one writer keeps SQLite from returning SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	r := &SQLiteTranscriptRepository{db: db}
	if err := r.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteTranscriptRepository) init(ctx context.Context) error {
	query := `
    CREATE TABLE IF NOT EXISTS exchanges (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        sender TEXT NOT NULL,
        user_text TEXT NOT NULL,
        reply TEXT NOT NULL DEFAULT '',
        outcome TEXT NOT NULL,
        tokens INTEGER NOT NULL DEFAULT 0,
        created_at INTEGER NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_exchanges_sender ON exchanges(sender, id);`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create exchanges table: %w", err)
	}
	logx.Debug().Msg("SQLite exchanges table initialized")
	return nil
}

func (r *SQLiteTranscriptRepository) Append(ctx context.Context, ex model.Exchange) error {
	created := ex.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exchanges (sender, user_text, reply, outcome, tokens, created_at) VALUES (?, ?, ?, ?, ?, ?);`,
		ex.Sender, ex.UserText, ex.Reply, ex.Outcome, ex.Tokens, created.UnixNano(),
	)
	if err != nil {
		logx.Error().Err(err).Msg("failed to insert exchange")
		return errx.WrapSQLite(err)
	}
	return nil
}

func (r *SQLiteTranscriptRepository) Recent(ctx context.Context, sender string, limit int) ([]model.Exchange, error) {
	if limit <= 0 {
		return []model.Exchange{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
    SELECT sender, user_text, reply, outcome, tokens, created_at FROM (
        SELECT id, sender, user_text, reply, outcome, tokens, created_at
        FROM exchanges WHERE sender = ? ORDER BY id DESC LIMIT ?
    ) ORDER BY id ASC;`, sender, limit)
	if err != nil {
		return nil, errx.WrapSQLite(err)
	}
	defer rows.Close()

	out := []model.Exchange{}
	for rows.Next() {
		var ex model.Exchange
		var created int64
		if err := rows.Scan(&ex.Sender, &ex.UserText, &ex.Reply, &ex.Outcome, &ex.Tokens, &created); err != nil {
			return nil, errx.WrapSQLite(err)
		}
		ex.CreatedAt = time.Unix(0, created)
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapSQLite(err)
	}
	return out, nil
}

func (r *SQLiteTranscriptRepository) Count(ctx context.Context, sender string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exchanges WHERE sender = ?;`, sender).Scan(&n); err != nil {
		return 0, errx.WrapSQLite(err)
	}
	return n, nil
}

func (r *SQLiteTranscriptRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

var _ model.TranscriptRepository = (*SQLiteTranscriptRepository)(nil)
