package handler

import (
	"lab-checkout/internal/events"
	"lab-checkout/internal/logger"
	"lab-checkout/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EventsHandler struct {
	hub *events.Hub
}

func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

func (h *EventsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/events", middleware.InternalOnly(RespondWithError), h.Stream)
}

// Stream pushes reservation changes to an internal member's browser.
func (h *EventsHandler) Stream(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	if err := h.hub.ServeWS(c.Writer, c.Request, viewer); err != nil {
		logger.Warn("Event stream rejected",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("user_id", viewer.ID),
			zap.Error(err),
		)
	}
}
