package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"study-planner-lite/internal/store"
)

const dataSourceHeader = "X-Data-Source"

func writeError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, store.ErrDatabaseUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, store.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
