package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"contest_aggregator/internal/domain"
)

// refresh_state is a single-row table.
const refreshStateID = 1

type RefreshStateStore struct {
	db *sqlx.DB
}

func NewRefreshStateStore(db *sqlx.DB) *RefreshStateStore {
	return &RefreshStateStore{db: db}
}

func (s *RefreshStateStore) Get(ctx context.Context) (*domain.RefreshState, error) {
	var state domain.RefreshState
	query := `
		SELECT id, last_refreshed_at, refresh_count, total_cached
		FROM refresh_state
		WHERE id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query, refreshStateID)
	if err == sql.ErrNoRows {
		// First refresh against a fresh database.
		return &domain.RefreshState{ID: refreshStateID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *RefreshStateStore) Update(ctx context.Context, state *domain.RefreshState) error {
	query := `
		INSERT INTO refresh_state (id, last_refreshed_at, refresh_count, total_cached)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			last_refreshed_at = EXCLUDED.last_refreshed_at,
			refresh_count = EXCLUDED.refresh_count,
			total_cached = EXCLUDED.total_cached`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.ID,
		state.LastRefreshedAt,
		state.RefreshCount,
		state.TotalCached,
	)
	return err
}
