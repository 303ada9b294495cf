package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webfolio/webfolio-api/config"
	"github.com/webfolio/webfolio-api/internal/models"
)

type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// ConfigCheck handles GET /api/config-check. It reports only whether the
// secrets the pipeline needs are present, never their values.
func (h *ConfigHandler) ConfigCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.ConfigCheckResponse{Configured: h.cfg.Configured()})
}
