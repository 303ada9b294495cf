package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/webfolio/webfolio-api/internal/models"
	"github.com/webfolio/webfolio-api/internal/services"
	apperrors "github.com/webfolio/webfolio-api/pkg/errors"
	"github.com/webfolio/webfolio-api/pkg/metrics"
	"github.com/webfolio/webfolio-api/pkg/sanitize"
)

type ContactHandler struct {
	service *services.ContactService
}

func NewContactHandler(service *services.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

// SubmitContact handles POST /api/contact. Stage failures map to distinct
// statuses (400 validation, 403 security, 429 rate limit, 500 delivery)
// with generic messages; detail stays in the server logs.
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.ContactFormSubmissions.WithLabelValues("validation_failed").Inc()
		if fieldErrors := ParseValidationErrors(err); len(fieldErrors) > 0 {
			respondErrorWithDetails(c, http.StatusBadRequest, "Validation failed", fieldErrors, err)
			return
		}
		respondError(c, http.StatusBadRequest, "Invalid request", err)
		return
	}

	sub := &models.ContactSubmission{
		FirstName: sanitize.Sanitize(req.FirstName),
		LastName:  sanitize.Sanitize(req.LastName),
		Email:     sanitize.Sanitize(req.Email),
		Message:   sanitize.Sanitize(req.Message),
		ClientIP:  c.ClientIP(),
	}

	result, err := h.service.Submit(c.Request.Context(), sub, req.CsrfToken, req.TurnstileToken)
	if err != nil {
		switch {
		case apperrors.Is(err, apperrors.ErrSecurity):
			respondError(c, http.StatusForbidden, "Verification failed", err)
		case apperrors.Is(err, apperrors.ErrRateLimited):
			if result != nil && result.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			}
			respondError(c, http.StatusTooManyRequests, "Too many requests. Please try again later.", err)
		case apperrors.Is(err, apperrors.ErrDelivery):
			respondError(c, http.StatusInternalServerError, "Failed to send message", err)
		default:
			respondError(c, http.StatusInternalServerError, "Internal server error", err)
		}
		return
	}

	c.JSON(http.StatusOK, models.ContactResponse{Message: "Message sent successfully"})
}
