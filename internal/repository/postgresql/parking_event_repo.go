package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/repository"
)

type pgParkingEventRepository struct {
	db *sql.DB
}

func NewPgParkingEventRepository(db *sql.DB) repository.ParkingEventRepository {
	return &pgParkingEventRepository{db: db}
}

func (r *pgParkingEventRepository) Create(ctx context.Context, event *domain.ParkingEvent) error {
	query := `INSERT INTO "ParkingLot_Data" (lot_id, plate_number, check_in, is_out, paid)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	var id sql.NullInt64
	err := r.db.QueryRowContext(ctx, query,
		event.LotID, event.PlateNumber, event.CheckIn, event.IsOut, event.Paid,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("ParkingEventRepository.Create: %w", err)
	}
	if id.Valid {
		event.ID.SetValid(id.Int64)
	}
	return nil
}

func (r *pgParkingEventRepository) CloseOpen(ctx context.Context, lotID int, plateNumber string, upd domain.CheckOutUpdate) (int64, error) {
	query := `UPDATE "ParkingLot_Data"
	          SET check_out = $1, parking_fee = $2, is_out = TRUE
	          WHERE plate_number = $3 AND lot_id = $4 AND is_out = FALSE`

	result, err := r.db.ExecContext(ctx, query, upd.CheckOut, upd.ParkingFee, plateNumber, lotID)
	if err != nil {
		return 0, fmt.Errorf("ParkingEventRepository.CloseOpen: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ParkingEventRepository.CloseOpen (checking rows affected): %w", err)
	}
	return rowsAffected, nil
}

func (r *pgParkingEventRepository) SetPaidByPlate(ctx context.Context, plateNumber string, paid bool) (int64, error) {
	query := `UPDATE "ParkingLot_Data" SET paid = $1 WHERE plate_number = $2`

	result, err := r.db.ExecContext(ctx, query, paid, plateNumber)
	if err != nil {
		return 0, fmt.Errorf("ParkingEventRepository.SetPaidByPlate: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ParkingEventRepository.SetPaidByPlate (checking rows affected): %w", err)
	}
	return rowsAffected, nil
}

func (r *pgParkingEventRepository) FindByLot(ctx context.Context, lotID int) ([]domain.ParkingEvent, error) {
	query := `SELECT id, lot_id, plate_number, check_in, check_out, is_out, paid, parking_fee
	          FROM "ParkingLot_Data"
	          WHERE lot_id = $1
	          ORDER BY check_in DESC`

	rows, err := r.db.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("ParkingEventRepository.FindByLot: %w", err)
	}
	defer rows.Close()

	events := []domain.ParkingEvent{}
	for rows.Next() {
		var event domain.ParkingEvent
		if err := rows.Scan(
			&event.ID, &event.LotID, &event.PlateNumber, &event.CheckIn, &event.CheckOut,
			&event.IsOut, &event.Paid, &event.ParkingFee,
		); err != nil {
			return nil, fmt.Errorf("ParkingEventRepository.FindByLot (scanning row): %w", err)
		}
		if event.CheckIn.Valid {
			event.CheckIn.Time = event.CheckIn.Time.UTC()
		}
		if event.CheckOut.Valid {
			event.CheckOut.Time = event.CheckOut.Time.UTC()
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingEventRepository.FindByLot (rows error): %w", err)
	}
	return events, nil
}
