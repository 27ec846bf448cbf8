package domain

// LPRCheckInDTO is sent by entry cameras that leave plate reading to the backend.
type LPRCheckInDTO struct {
	LotID       *int   `json:"lot_id" binding:"required"`
	ImageBase64 string `json:"image_base64" binding:"required"`
}

type LPRCheckInResponse struct {
	Message     string  `json:"message"`
	PlateNumber string  `json:"plate_number"`
	Confidence  float32 `json:"confidence"`
}
