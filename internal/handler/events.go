package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"study-planner-lite/internal/hub"
	"study-planner-lite/internal/middleware"
	"study-planner-lite/internal/model"
	"study-planner-lite/internal/store"
)

type EventHandler struct {
	Store *store.Store
	Hub   *hub.Hub
}

func (h *EventHandler) List(c *gin.Context) {
	events, source := h.Store.Events(c.Request.Context())
	c.Header(dataSourceHeader, string(source))
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) Save(c *gin.Context) {
	var in model.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	event, err := h.Store.SaveEvent(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}

	userID, _ := middleware.UserIDFromContext(c)
	h.Hub.Publish(userID, hub.NewChange("events", hub.OpUpsert, event.ID.String()))
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.Store.DeleteEvent(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	userID, _ := middleware.UserIDFromContext(c)
	h.Hub.Publish(userID, hub.NewChange("events", hub.OpDelete, id))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
