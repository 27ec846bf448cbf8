package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
)

const (
	ParkingEventTable = "ParkingLot_Data"
	LotStatusTable    = "ParkingLot_Status"

	IncrementOccupancyProc = "increment_customer"
	DecrementOccupancyProc = "decrement_customer"
)

var ErrNotFound = errors.New("record not found")

// ErrorCode returns the SQLSTATE carried by err, or "" when the error did not
// come from a SQL driver. *pgconn.PgError and *pq.Error both expose it through
// SQLState; postgrest-go errors carry the code only in their message.
func ErrorCode(err error) string {
	var coded interface{ SQLState() string }
	if errors.As(err, &coded) {
		return coded.SQLState()
	}
	return ""
}

type ParkingEventRepository interface {
	Create(ctx context.Context, event *domain.ParkingEvent) error
	// CloseOpen closes every open event for (lotID, plateNumber) and returns how
	// many rows matched. Zero is not an error.
	CloseOpen(ctx context.Context, lotID int, plateNumber string, upd domain.CheckOutUpdate) (int64, error)
	// SetPaidByPlate updates paid on every event carrying plateNumber, across
	// lots and visits.
	SetPaidByPlate(ctx context.Context, plateNumber string, paid bool) (int64, error)
	// FindByLot returns the events of a lot, most recent check-in first.
	FindByLot(ctx context.Context, lotID int) ([]domain.ParkingEvent, error)
}

type LotStatusRepository interface {
	// FindByLotID returns the first status row for the lot as stored, every
	// column included.
	FindByLotID(ctx context.Context, lotID int) (json.RawMessage, error)
	TouchLatestUpdate(ctx context.Context, lotID int, at time.Time) (int64, error)
}

// OccupancyRepository calls the store-side counter procedures.
type OccupancyRepository interface {
	Increment(ctx context.Context, lotID int) error
	Decrement(ctx context.Context, lotID int) error
}

// Store bundles the repositories of one backend together with its lifecycle.
type Store struct {
	Events    ParkingEventRepository
	Status    LotStatusRepository
	Occupancy OccupancyRepository
	Close     func() error
}
