// Package handler contains the HTTP handlers binding requests to the
// application services.
package handler

import (
	"net/http"

	"github.com/estatecrm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Base carries the collaborators every handler needs.
type Base struct {
	logger      *zap.Logger
	development bool
}

// NewBase creates the shared handler base.
func NewBase(logger *zap.Logger, development bool) Base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Base{logger: logger, development: development}
}

// handleError writes the envelope for err. Unexpected errors are logged with
// their detail; the client only sees it in development.
func (b Base) handleError(c *gin.Context, err error) {
	status, resp := dto.FromError(err, b.development)
	if status == http.StatusInternalServerError {
		b.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.JSON(status, resp)
}

func (b Base) ok(c *gin.Context, result any, message string) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(result, message))
}

func (b Base) created(c *gin.Context, result any, message string) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(result, message))
}

func (b Base) paginated(c *gin.Context, result, pagination any, message string) {
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(result, pagination, message))
}

func (b Base) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(message))
}
