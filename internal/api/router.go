package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/okastudio/platewatch/internal/auth"
	"github.com/okastudio/platewatch/internal/handlers"
	"github.com/okastudio/platewatch/internal/middleware"
	"github.com/okastudio/platewatch/internal/realtime"
	"github.com/okastudio/platewatch/internal/services"
)

// Dependencies carries everything the router needs. All fields are required
// except EnableMetrics.
type Dependencies struct {
	DB            *gorm.DB
	JWT           *auth.JWTService
	Hub           *realtime.Hub
	Reports       *services.ReportService
	Groups        *services.ReportGroupService
	Notifications *services.NotificationService
	EnableMetrics bool
}

// NewRouter assembles the HTTP surface.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	switch {
	case deps.DB == nil:
		return nil, errors.New("router requires database handle")
	case deps.JWT == nil:
		return nil, errors.New("router requires jwt service")
	case deps.Hub == nil:
		return nil, errors.New("router requires realtime hub")
	case deps.Reports == nil || deps.Groups == nil || deps.Notifications == nil:
		return nil, errors.New("router requires moderation services")
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
	)

	health := handlers.NewHealthHandler(deps.DB)
	router.GET("/healthz", health.Live)
	router.GET("/readyz", health.Ready)
	if deps.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	authed := router.Group("/api", middleware.JWTAuth(deps.JWT))

	realtimeHandler, err := handlers.NewRealtimeHandler(deps.Hub)
	if err != nil {
		return nil, err
	}
	authed.GET("/ws", realtimeHandler.Serve)

	if err := registerReportRoutes(authed, deps); err != nil {
		return nil, err
	}
	if err := registerNotificationRoutes(authed, deps); err != nil {
		return nil, err
	}
	return router, nil
}
