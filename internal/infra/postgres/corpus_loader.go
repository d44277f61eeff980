package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-match-service/internal/domain"
)

// CorpusLoader loads captured question entries (JSONB) from Postgres.
type CorpusLoader struct {
	pool *pgxpool.Pool
}

func NewCorpusLoader(pool *pgxpool.Pool) *CorpusLoader {
	return &CorpusLoader{pool: pool}
}

func (l *CorpusLoader) LoadCorpus(ctx context.Context) ([]domain.CorpusEntry, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, data, captured_at FROM corpus_entries ORDER BY captured_at, id`)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	defer rows.Close()

	var entries []domain.CorpusEntry
	for rows.Next() {
		var (
			id         string
			raw        []byte
			capturedAt time.Time
		)
		if err := rows.Scan(&id, &raw, &capturedAt); err != nil {
			return nil, fmt.Errorf("scan corpus entry: %w", err)
		}
		var entry domain.CorpusEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("unmarshal corpus entry %s: %w", id, err)
		}
		entry.ID = id
		entry.CapturedAt = capturedAt
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate corpus: %w", err)
	}
	return entries, nil
}
