package domain

type GateAction string

const (
	GateActionCheckIn  GateAction = "checkin"
	GateActionCheckOut GateAction = "checkout"
	GateActionPayment  GateAction = "payment"
)

// GateMessage is the payload gate controllers push to the SQS event queue.
type GateMessage struct {
	Action      GateAction `json:"action"`
	LotID       *int       `json:"lot_id"`
	PlateNumber *string    `json:"plate_number"`
	ParkingFee  *int       `json:"parking_fee,omitempty"`
	Paid        *bool      `json:"paid,omitempty"`
	DeviceID    string     `json:"device_id,omitempty"`
}
