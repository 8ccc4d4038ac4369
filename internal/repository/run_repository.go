package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/rent-ledger/internal/domain"
)

type runRepository struct {
	db *sqlx.DB
}

func NewRunRepository(db *sqlx.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) SaveSummary(ctx context.Context, run *domain.RunSummary) error {
	query := `
		INSERT INTO generation_runs (id, as_of_date, processed, skipped, errored,
			total_amount, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := ext(ctx, r.db).ExecContext(ctx, query,
		run.ID,
		run.AsOfDate,
		run.Processed,
		run.Skipped,
		run.Errored,
		run.TotalAmount,
		run.StartedAt,
		run.FinishedAt,
	)

	return err
}
