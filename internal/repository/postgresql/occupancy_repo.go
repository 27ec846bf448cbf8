package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/repository"
)

type pgOccupancyRepository struct {
	db *sql.DB
}

func NewPgOccupancyRepository(db *sql.DB) repository.OccupancyRepository {
	return &pgOccupancyRepository{db: db}
}

func (r *pgOccupancyRepository) Increment(ctx context.Context, lotID int) error {
	if _, err := r.db.ExecContext(ctx, `SELECT increment_customer(lot => $1)`, lotID); err != nil {
		return fmt.Errorf("OccupancyRepository.Increment: %w", err)
	}
	return nil
}

func (r *pgOccupancyRepository) Decrement(ctx context.Context, lotID int) error {
	if _, err := r.db.ExecContext(ctx, `SELECT decrement_customer(lot => $1)`, lotID); err != nil {
		return fmt.Errorf("OccupancyRepository.Decrement: %w", err)
	}
	return nil
}
