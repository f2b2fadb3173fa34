package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/okastudio/platewatch/internal/middleware"
	"github.com/okastudio/platewatch/internal/models"
	"github.com/okastudio/platewatch/internal/realtime"
	"github.com/okastudio/platewatch/pkg/response"
)

// RealtimeHandler upgrades authenticated clients onto the websocket hub.
type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) (*RealtimeHandler, error) {
	if hub == nil {
		return nil, errors.New("realtime handler requires hub")
	}
	return &RealtimeHandler{hub: hub}, nil
}

// Serve subscribes the caller to their requested streams. Everyone may join
// the notifications stream; the moderation stream is reserved for admins.
func (h *RealtimeHandler) Serve(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	role, _ := c.Get(middleware.CtxRoleKey)
	allowed := map[string]struct{}{
		realtime.StreamNotifications: {},
	}
	if role == models.RoleAdmin {
		allowed[realtime.StreamModeration] = struct{}{}
	}

	streams := []string{realtime.StreamNotifications}
	if requested := strings.TrimSpace(c.Query("streams")); requested != "" {
		streams = strings.Split(requested, ",")
	}

	h.hub.Serve(userID, streams, allowed, c.Writer, c.Request)
}
