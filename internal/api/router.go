package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/api/handler"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/logger"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/metrics"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/notify"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/service"
)

// SetupRouter wires the HTTP surface. lprService and hub may be nil, in which
// case /lpr/checkin and /ws are not registered.
func SetupRouter(ps *service.ParkingService, lprService *service.LPRService, hub *notify.WebSocketHub,
	log *zap.Logger, metricsPath string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log))
	r.Use(metrics.GinMiddleware())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, "+logger.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	if metricsPath != "" {
		r.GET(metricsPath, metrics.Handler())
	}

	if hub != nil {
		wsHandler := handler.NewWebSocketHandler(hub, log)
		r.GET("/ws", wsHandler.HandleWebSocket)
	}

	parkingH := handler.NewParkingHandler(ps)
	r.GET("/", parkingH.Root)
	r.POST("/checkin", parkingH.CheckIn)
	r.POST("/checkout", parkingH.CheckOut)
	r.POST("/payment", parkingH.UpdatePayment)
	r.GET("/status/:lot_id", parkingH.GetLotStatus)
	r.GET("/history/:lot_id", parkingH.GetParkingHistory)

	if lprService != nil {
		lprH := handler.NewLPRHandler(lprService, ps)
		r.POST("/lpr/checkin", lprH.CheckIn)
	}
	return r
}
