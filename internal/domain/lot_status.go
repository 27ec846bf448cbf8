package domain

import (
	"gopkg.in/guregu/null.v4"
)

// LotStatus holds the ParkingLot_Status columns this service writes or counts.
// Reads return the stored row as-is; this shape only backs the in-memory store.
type LotStatus struct {
	ParkingLotID   int       `json:"parking_lot_id"`
	LatestUpdateAt null.Time `json:"latest_update_at"`
	CustomerCount  null.Int  `json:"customer_count"`
}
