package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"contest_aggregator/internal/domain"
)

// ContestStore archives every contest that reached the cache. The
// archive is write-only for the pipeline; the serving path never reads
// it back.
type ContestStore struct {
	db *sqlx.DB
}

func NewContestStore(db *sqlx.DB) *ContestStore {
	return &ContestStore{db: db}
}

func (s *ContestStore) UpsertBatch(ctx context.Context, contests []domain.Contest) error {
	if len(contests) == 0 {
		return nil
	}

	query := `
		INSERT INTO contests (host, name, url, start_time_unix)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name, start_time_unix) DO UPDATE SET
			host = EXCLUDED.host,
			url = EXCLUDED.url,
			last_seen_at = now()`

	exec := GetExecutor(ctx, s.db)
	for _, c := range contests {
		if _, err := exec.ExecContext(ctx, query, c.Host, c.Name, c.URL, c.StartTimeUnix); err != nil {
			return err
		}
	}

	return nil
}
