package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"study-planner-lite/internal/config"
)

type StatusHandler struct {
	Loader *config.Loader
}

func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ConfigStatus reports which integrations are configured. Secret values are
// never included.
func (h *StatusHandler) ConfigStatus(c *gin.Context) {
	settings, ready := h.Loader.Settings()
	c.JSON(http.StatusOK, gin.H{
		"ready":              ready,
		"source":             h.Loader.Source(),
		"supabaseConfigured": ready && settings.SupabaseConfigured(),
		"openaiConfigured":   ready && settings.OpenAIConfigured(),
	})
}
