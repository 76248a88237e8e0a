package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/routing-engine/internal/api/dto"
	"github.com/spec-kit/routing-engine/internal/service"
	apperrors "github.com/spec-kit/routing-engine/pkg/util/errorutil"
)

// RebalanceHandler triggers an on-demand rebalance pass.
type RebalanceHandler struct {
	snapshots  *service.SnapshotService
	rebalancer *service.Rebalancer
}

// NewRebalanceHandler returns a new handler instance.
func NewRebalanceHandler(snapshots *service.SnapshotService, rebalancer *service.Rebalancer) *RebalanceHandler {
	return &RebalanceHandler{snapshots: snapshots, rebalancer: rebalancer}
}

// Rebalance handles POST /v1/rebalance.
func (h *RebalanceHandler) Rebalance(c *fiber.Ctx) error {
	agents, err := h.snapshots.BuildSnapshots(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	report, err := h.rebalancer.Rebalance(c.UserContext(), agents)
	if err != nil {
		return apperrors.MapError(err)
	}

	response := dto.RebalanceResponse{Reassignments: []dto.ReassignmentEntry{}}
	for _, move := range report {
		response.Reassignments = append(response.Reassignments, dto.ReassignmentEntry{
			TicketID:    move.TicketID,
			FromAgentID: move.FromAgentID,
			ToAgentID:   move.ToAgentID,
		})
	}
	return c.JSON(response)
}
