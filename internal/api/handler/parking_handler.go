package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/service"
)

const (
	msgRunning        = "ParkingLot Backend is running"
	msgCheckedIn      = "Car checked in successfully."
	msgCheckedOut     = "Car checked out successfully."
	msgPaymentUpdated = "Payment status updated."
)

type ParkingHandler struct {
	parkingService *service.ParkingService
}

func NewParkingHandler(ps *service.ParkingService) *ParkingHandler {
	return &ParkingHandler{parkingService: ps}
}

// GET /
func (h *ParkingHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, domain.MessageResponse{Message: msgRunning})
}

// POST /checkin
func (h *ParkingHandler) CheckIn(c *gin.Context) {
	var dto domain.CarInDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		abortValidation(c, err)
		return
	}

	if err := h.parkingService.CheckIn(c.Request.Context(), *dto.LotID, *dto.PlateNumber); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.MessageResponse{Message: msgCheckedIn})
}

// POST /checkout
func (h *ParkingHandler) CheckOut(c *gin.Context) {
	var dto domain.CarOutDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		abortValidation(c, err)
		return
	}

	if err := h.parkingService.CheckOut(c.Request.Context(), *dto.LotID, *dto.PlateNumber, *dto.ParkingFee); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.MessageResponse{Message: msgCheckedOut})
}

// POST /payment
func (h *ParkingHandler) UpdatePayment(c *gin.Context) {
	var dto domain.PaymentUpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		abortValidation(c, err)
		return
	}

	if err := h.parkingService.UpdatePayment(c.Request.Context(), *dto.PlateNumber, *dto.Paid); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.MessageResponse{Message: msgPaymentUpdated})
}

// GET /status/:lot_id
func (h *ParkingHandler) GetLotStatus(c *gin.Context) {
	lotID, err := lotIDParam(c)
	if err != nil {
		abortValidation(c, err)
		return
	}

	status, err := h.parkingService.GetLotStatus(c.Request.Context(), lotID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GET /history/:lot_id
func (h *ParkingHandler) GetParkingHistory(c *gin.Context) {
	lotID, err := lotIDParam(c)
	if err != nil {
		abortValidation(c, err)
		return
	}

	events, err := h.parkingService.GetParkingHistory(c.Request.Context(), lotID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.HistoryResponse{Data: events})
}

func lotIDParam(c *gin.Context) (int, error) {
	raw := c.Param("lot_id")
	lotID, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("lot_id must be an integer, got %q", raw)
	}
	return lotID, nil
}
