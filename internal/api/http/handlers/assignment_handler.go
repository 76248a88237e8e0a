package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/routing-engine/internal/api/dto"
	"github.com/spec-kit/routing-engine/internal/service"
	apperrors "github.com/spec-kit/routing-engine/pkg/util/errorutil"
)

// AssignmentHandler exposes the assignment orchestrator over HTTP.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler returns a new handler instance.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Assign handles POST /v1/assignments.
func (h *AssignmentHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.TicketID == "" || req.CustomerID == "" {
		return apperrors.NewValidationError("ticket_id and customer_id are required", nil)
	}

	result, err := h.assignments.Assign(c.UserContext(), req.Context(), req.ExplicitAgentID)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.NewAssignResponse(result))
}
