package click

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler terminates the gateway's two form-encoded webhook endpoints. Both
// always answer HTTP 200 with a flat body; the error field carries the
// outcome.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new webhook handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the webhook endpoints
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.POST("/webhooks/click/prepare", h.Prepare)
	router.POST("/webhooks/click/complete", h.Complete)
}

// Prepare handles the first phase of the protocol
func (h *Handler) Prepare(c *gin.Context) {
	var req PrepareRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("prepare rejected: malformed request", zap.Error(err))
		c.JSON(http.StatusOK, PrepareResponse{
			Error:     CodeBadRequest,
			ErrorNote: errorNote(CodeBadRequest),
		})
		return
	}

	c.JSON(http.StatusOK, h.service.Prepare(c.Request.Context(), req))
}

// Complete handles the second phase of the protocol
func (h *Handler) Complete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("complete rejected: malformed request", zap.Error(err))
		c.JSON(http.StatusOK, CompleteResponse{
			Error:     CodeBadRequest,
			ErrorNote: errorNote(CodeBadRequest),
		})
		return
	}

	c.JSON(http.StatusOK, h.service.Complete(c.Request.Context(), req))
}
