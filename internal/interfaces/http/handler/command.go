package handler

import (
	importapp "github.com/estatecrm/backend/internal/application/importing"
	"github.com/estatecrm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader deduplicates import batch replays.
const IdempotencyKeyHeader = "Idempotency-Key"

// CommandHandler serves the batch import command endpoint.
type CommandHandler struct {
	Base
	imports *importapp.Service
}

// NewCommandHandler creates the command handler.
func NewCommandHandler(base Base, imports *importapp.Service) *CommandHandler {
	return &CommandHandler{Base: base, imports: imports}
}

type commandRequest struct {
	Command string `json:"command" binding:"required"`
	CSV     string `json:"csv"`
	SheetID string `json:"sheetId"`
}

// Execute runs one import command and returns the batch summary.
func (h *CommandHandler) Execute(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Command is required")
		return
	}

	var requestedBy *uuid.UUID
	if user := middleware.GetPrincipal(c); user != nil {
		id := user.ID
		requestedBy = &id
	}

	result, err := h.imports.Execute(c.Request.Context(), importapp.Request{
		Command:        req.Command,
		CSV:            req.CSV,
		SheetID:        req.SheetID,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
		RequestedBy:    requestedBy,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.ok(c, result, "Successfully executed the command")
}
