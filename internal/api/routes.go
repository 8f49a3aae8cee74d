package api

import (
	"net/http"

	"github.com/anthonyc-dev/ems-server/internal/api/handlers"
	"github.com/anthonyc-dev/ems-server/internal/api/middleware"
	"github.com/anthonyc-dev/ems-server/internal/services"
	"github.com/anthonyc-dev/ems-server/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Router struct {
	engine        *gin.Engine
	logger        *zap.Logger
	metrics       *metrics.Collector
	permitHandler *handlers.PermitHandler
	reqMiddleware *middleware.RequestMiddleware
}

func NewRouter(
	logger *zap.Logger,
	collector *metrics.Collector,
	permitService *services.PermitService,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	reqMiddleware := middleware.NewRequestMiddleware(logger)

	engine.Use(reqMiddleware.ProcessRequest())
	engine.Use(reqMiddleware.RecoverPanic())
	engine.Use(reqMiddleware.ScanAttemptMiddleware())
	engine.Use(collector.Instrument())

	permitHandler := handlers.NewPermitHandler(permitService, logger)

	return &Router{
		engine:        engine,
		logger:        logger,
		metrics:       collector,
		permitHandler: permitHandler,
		reqMiddleware: reqMiddleware,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up", "name": "ems-server"})
	})

	r.engine.GET("/metrics", r.metrics.Handler())

	r.engine.POST("/generate-qr/:studentId", r.permitHandler.GenerateQR)
	r.engine.POST("/view-permit", r.permitHandler.ViewPermit)
	r.engine.POST("/revoke-permit/:permitId", r.permitHandler.RevokePermit)
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

func (r *Router) Run(addr string) error {
	r.logger.Info("Starting HTTP server", zap.String("address", addr))
	return r.engine.Run(addr)
}
