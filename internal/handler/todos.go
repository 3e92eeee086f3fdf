package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"study-planner-lite/internal/hub"
	"study-planner-lite/internal/middleware"
	"study-planner-lite/internal/model"
	"study-planner-lite/internal/store"
)

type TodoHandler struct {
	Store *store.Store
	Hub   *hub.Hub
}

type completionBody struct {
	Completed *bool `json:"completed" binding:"required"`
}

func (h *TodoHandler) List(c *gin.Context) {
	todos, source := h.Store.Todos(c.Request.Context())
	c.Header(dataSourceHeader, string(source))
	c.JSON(http.StatusOK, todos)
}

func (h *TodoHandler) Save(c *gin.Context) {
	var in model.TodoInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	todo, err := h.Store.SaveTodo(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}

	h.publish(c, hub.OpUpsert, todo.ID.String())
	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.Store.DeleteTodo(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	h.publish(c, hub.OpDelete, id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *TodoHandler) SetCompleted(c *gin.Context) {
	var body completionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	todo, err := h.Store.SetTodoCompleted(c.Request.Context(), c.Param("id"), *body.Completed)
	if err != nil {
		writeError(c, err)
		return
	}

	h.publish(c, hub.OpUpsert, todo.ID.String())
	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) publish(c *gin.Context, op, id string) {
	userID, _ := middleware.UserIDFromContext(c)
	h.Hub.Publish(userID, hub.NewChange("todos", op, id))
}
