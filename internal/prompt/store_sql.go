package prompt

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "modernc.org/sqlite"             // embedded default
)

// SQLStore reads templates from the prompts table shared with the back
// office. Works against Postgres ("pgx") or the embedded SQLite ("sqlite").
type SQLStore struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenSQLStore opens the template database and ensures the table exists so
// an empty deployment still boots.
func OpenSQLStore(ctx context.Context, driver, dsn string, log *slog.Logger) (*SQLStore, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	const ddl = `CREATE TABLE IF NOT EXISTS prompts (
		indexador TEXT PRIMARY KEY,
		prompt TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("prompt store ready", "driver", driver)
	return &SQLStore{db: db, log: log}, nil
}

func (s *SQLStore) Get(ctx context.Context, indexador string) (*Template, error) {
	var t Template
	row := s.db.QueryRowContext(ctx,
		`SELECT indexador, prompt, updated_at FROM prompts WHERE indexador = $1`,
		strings.ToLower(indexador))
	if err := row.Scan(&t.Indexador, &t.Prompt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.log.Error("prompt lookup failed", "indexador", indexador, "err", err)
		return nil, err
	}
	return &t, nil
}

// Upsert lets the batch CLI seed templates.
func (s *SQLStore) Upsert(ctx context.Context, indexador, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prompts (indexador, prompt, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
		 ON CONFLICT (indexador) DO UPDATE SET prompt = $2, updated_at = CURRENT_TIMESTAMP`,
		strings.ToLower(indexador), text)
	return err
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
