package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/repository"
)

type pgLotStatusRepository struct {
	db *sql.DB
}

func NewPgLotStatusRepository(db *sql.DB) repository.LotStatusRepository {
	return &pgLotStatusRepository{db: db}
}

// FindByLotID renders the whole row with row_to_json, so columns added to the
// table show up without a code change.
func (r *pgLotStatusRepository) FindByLotID(ctx context.Context, lotID int) (json.RawMessage, error) {
	query := `SELECT row_to_json(s) FROM "ParkingLot_Status" s WHERE s.parking_lot_id = $1 LIMIT 1`
	var row []byte
	err := r.db.QueryRowContext(ctx, query, lotID).Scan(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("LotStatusRepository.FindByLotID: %w", err)
	}
	return json.RawMessage(row), nil
}

func (r *pgLotStatusRepository) TouchLatestUpdate(ctx context.Context, lotID int, at time.Time) (int64, error) {
	query := `UPDATE "ParkingLot_Status" SET latest_update_at = $1 WHERE parking_lot_id = $2`
	result, err := r.db.ExecContext(ctx, query, at, lotID)
	if err != nil {
		return 0, fmt.Errorf("LotStatusRepository.TouchLatestUpdate: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("LotStatusRepository.TouchLatestUpdate (checking rows affected): %w", err)
	}
	return rowsAffected, nil
}
