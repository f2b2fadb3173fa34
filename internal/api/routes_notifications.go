package api

import (
	"github.com/gin-gonic/gin"

	"github.com/okastudio/platewatch/internal/handlers"
)

func registerNotificationRoutes(authed *gin.RouterGroup, deps Dependencies) error {
	handler, err := handlers.NewNotificationHandler(deps.Notifications)
	if err != nil {
		return err
	}

	notifications := authed.Group("/notifications")
	{
		notifications.GET("", handler.List)
		notifications.GET("/unread-count", handler.UnreadCount)
		notifications.POST("/read-all", handler.MarkAllRead)
		notifications.POST("/:id/read", handler.MarkRead)
		notifications.DELETE("/:id", handler.Delete)
	}
	return nil
}
