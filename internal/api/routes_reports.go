package api

import (
	"github.com/gin-gonic/gin"

	"github.com/okastudio/platewatch/internal/handlers"
	"github.com/okastudio/platewatch/internal/middleware"
)

func registerReportRoutes(authed *gin.RouterGroup, deps Dependencies) error {
	reportHandler, err := handlers.NewReportHandler(deps.Reports)
	if err != nil {
		return err
	}
	groupHandler, err := handlers.NewReportGroupHandler(deps.Groups)
	if err != nil {
		return err
	}

	// Any authenticated user may file a report.
	authed.POST("/reports", reportHandler.Create)

	admin := authed.Group("/admin", middleware.AdminOnly())
	{
		admin.GET("/reports", reportHandler.List)
		admin.GET("/reports/statistics", reportHandler.Statistics)
		admin.GET("/reports/:id", reportHandler.Get)
		admin.POST("/reports/:id/review", reportHandler.Review)
		admin.DELETE("/reports/:id", reportHandler.Delete)

		admin.GET("/report-groups", groupHandler.List)
		admin.GET("/report-groups/:kind/:id", groupHandler.Detail)
		admin.POST("/report-groups/:kind/:id/review", reportHandler.BatchReview)
		admin.GET("/report-groups/:kind/:id/statistics", reportHandler.TargetStatistics)
	}
	return nil
}
