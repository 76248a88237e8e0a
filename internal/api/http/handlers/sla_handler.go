package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/routing-engine/internal/api/dto"
	"github.com/spec-kit/routing-engine/internal/repository"
	"github.com/spec-kit/routing-engine/internal/service"
	apperrors "github.com/spec-kit/routing-engine/pkg/util/errorutil"
)

// SLAHandler exposes SLA status derivation and the first-response entry
// point over HTTP.
type SLAHandler struct {
	sla     *service.SLAService
	tickets repository.TicketRepository
}

// NewSLAHandler returns a new handler instance.
func NewSLAHandler(sla *service.SLAService, tickets repository.TicketRepository) *SLAHandler {
	return &SLAHandler{sla: sla, tickets: tickets}
}

// Status handles GET /v1/tickets/:id/sla.
func (h *SLAHandler) Status(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	ticket, err := h.tickets.GetByID(c.UserContext(), ticketID)
	if err != nil {
		return apperrors.MapError(err)
	}
	status := h.sla.Status(c.UserContext(), *ticket)
	return c.JSON(dto.NewSLAStatusResponse(status))
}

// FirstResponse handles POST /v1/tickets/:id/first-response. Both comment
// and chat ingestion paths call this same endpoint.
func (h *SLAHandler) FirstResponse(c *fiber.Ctx) error {
	var req dto.FirstResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.AgentID == "" || req.RespondedAt.IsZero() {
		return apperrors.NewValidationError("agent_id and responded_at are required", nil)
	}

	recorded := h.sla.RecordPotentialFirstResponse(c.UserContext(), c.Params("id"), req.AgentID, req.RespondedAt)
	return c.JSON(dto.FirstResponseResponse{Recorded: recorded})
}
