package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/config"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// NewDB opens the pool with the configured driver: "pgx" (pgx/v5 stdlib) or
// "postgres" (lib/pq).
func NewDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.DBDriver, cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// NewStore wires the postgres repositories around db. Closing the store closes db.
func NewStore(db *sql.DB) *repository.Store {
	return &repository.Store{
		Events:    NewPgParkingEventRepository(db),
		Status:    NewPgLotStatusRepository(db),
		Occupancy: NewPgOccupancyRepository(db),
		Close:     db.Close,
	}
}
