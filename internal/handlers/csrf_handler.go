package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webfolio/webfolio-api/internal/models"
	"github.com/webfolio/webfolio-api/internal/services"
)

type CsrfHandler struct {
	service *services.CsrfService
}

func NewCsrfHandler(service *services.CsrfService) *CsrfHandler {
	return &CsrfHandler{service: service}
}

// IssueToken handles GET /api/csrf-token.
func (h *CsrfHandler) IssueToken(c *gin.Context) {
	token, err := h.service.Issue(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	c.JSON(http.StatusOK, models.CsrfTokenResponse{Token: token})
}
