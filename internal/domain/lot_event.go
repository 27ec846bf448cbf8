package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type LotEventType string

const (
	LotEventCheckIn  LotEventType = "check_in"
	LotEventCheckOut LotEventType = "check_out"
	LotEventPayment  LotEventType = "payment"
)

// LotEvent is pushed to dashboards, lot displays and the broker after a
// successful mutation. Payment updates are not lot scoped, so LotID is null there.
type LotEvent struct {
	ID          string       `json:"id"`
	Type        LotEventType `json:"type"`
	LotID       null.Int     `json:"lot_id"`
	PlateNumber string       `json:"plate_number"`
	Paid        null.Bool    `json:"paid"`
	ParkingFee  null.Int     `json:"parking_fee"`
	OccurredAt  time.Time    `json:"occurred_at"`
}
