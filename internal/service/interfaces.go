package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"contest_aggregator/internal/domain"
)

// Source produces contest records from one upstream. Implementations
// fail soft: any upstream problem yields an empty list, never an error.
type Source interface {
	ID() string
	Name() string
	FetchContests(ctx context.Context) []domain.Contest
}

type ContestStore interface {
	UpsertBatch(ctx context.Context, contests []domain.Contest) error
}

type RefreshStateStore interface {
	Get(ctx context.Context) (*domain.RefreshState, error)
	Update(ctx context.Context, state *domain.RefreshState) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, contest *domain.Contest) error
	Close() error
}
