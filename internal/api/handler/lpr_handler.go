package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/service"
)

type LPRHandler struct {
	lprService     *service.LPRService
	parkingService *service.ParkingService
}

func NewLPRHandler(lprService *service.LPRService, parkingService *service.ParkingService) *LPRHandler {
	return &LPRHandler{lprService: lprService, parkingService: parkingService}
}

// POST /lpr/checkin
func (h *LPRHandler) CheckIn(c *gin.Context) {
	var req domain.LPRCheckInDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err == nil && len(image) == 0 {
		err = errors.New("image is empty")
	}
	if err != nil {
		c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, domain.ErrorResponse{Detail: "invalid image data"})
		return
	}

	ctx := c.Request.Context()
	plate, confidence, err := h.lprService.RecognizePlate(ctx, image)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.parkingService.CheckIn(ctx, *req.LotID, plate); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.LPRCheckInResponse{
		Message:     msgCheckedIn,
		PlateNumber: plate,
		Confidence:  confidence,
	})
}
