// Package storage persists finished articles into Postgres for later
// browsing, independent of the short-lived job store.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"TubeScribe/internal/domain"
	"TubeScribe/internal/ports"
)

// PostgresArchive stores one row per job in the generated_articles table,
// keyed by job id so re-runs overwrite their previous snapshot.
type PostgresArchive struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ArticleArchive = (*PostgresArchive)(nil)

// Open connects to Postgres using the given DSN. An empty DSN yields a
// no-op archive so the pipeline runs without a database.
func Open(dsn string) (*PostgresArchive, error) {
	if dsn == "" {
		return NewPostgresArchive(nil), nil
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresArchive(db), nil
}

// NewPostgresArchive wires a sql.DB implementation.
func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Close releases the connection pool.
func (a *PostgresArchive) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Save upserts the finished article snapshot for a job.
func (a *PostgresArchive) Save(ctx context.Context, jobID string, result domain.Result) error {
	if a.db == nil {
		return nil
	}

	query, args, err := a.builder.
		Insert("generated_articles").
		Columns("job_id", "article", "word_count", "saved_path", "video_title", "video_url", "is_valid").
		Values(jobID, result.Article, result.WordCount, result.SavedPath, result.Video.Title, result.Video.URL, result.Validation.IsValid).
		Suffix(`ON CONFLICT (job_id) DO UPDATE
                SET article = EXCLUDED.article,
                    word_count = EXCLUDED.word_count,
                    saved_path = EXCLUDED.saved_path,
                    video_title = EXCLUDED.video_title,
                    video_url = EXCLUDED.video_url,
                    is_valid = EXCLUDED.is_valid,
                    updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}
	return nil
}
