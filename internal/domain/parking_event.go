package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// ParkingEvent is one visit of a vehicle to a lot, stored in ParkingLot_Data.
// An event with IsOut=false is the open event for (LotID, PlateNumber).
type ParkingEvent struct {
	ID          null.Int  `json:"id"`
	LotID       int       `json:"lot_id"`
	PlateNumber string    `json:"plate_number"`
	CheckIn     null.Time `json:"check_in"`
	CheckOut    null.Time `json:"check_out"`
	IsOut       bool      `json:"is_out"`
	Paid        bool      `json:"paid"`
	ParkingFee  null.Int  `json:"parking_fee"`
}

// CheckOutUpdate holds the fields written when an open event is closed.
type CheckOutUpdate struct {
	CheckOut   time.Time
	ParkingFee int
}

// Pointer fields keep zero values (lot 0, paid=false, an empty plate)
// distinguishable from missing ones during binding.

type CarInDTO struct {
	LotID       *int    `json:"lot_id" binding:"required"`
	PlateNumber *string `json:"plate_number" binding:"required"`
}

type CarOutDTO struct {
	PlateNumber *string `json:"plate_number" binding:"required"`
	LotID       *int    `json:"lot_id" binding:"required"`
	ParkingFee  *int    `json:"parking_fee" binding:"required"`
}

type PaymentUpdateDTO struct {
	PlateNumber *string `json:"plate_number" binding:"required"`
	Paid        *bool   `json:"paid" binding:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HistoryResponse struct {
	Data []ParkingEvent `json:"data"`
}
