package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/service"
)

func abortValidation(c *gin.Context, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, domain.ErrorResponse{Detail: err.Error()})
}

// abortWithError maps service errors to status codes. Anything unrecognised is
// reported as 500 with the raw store message as detail.
func abortWithError(c *gin.Context, err error) {
	c.Error(err)
	switch {
	case errors.Is(err, service.ErrLotNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, domain.ErrorResponse{Detail: service.ErrLotNotFound.Error()})
	case errors.Is(err, service.ErrPlateNotRecognized):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, domain.ErrorResponse{Detail: err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, domain.ErrorResponse{Detail: err.Error()})
	}
}
