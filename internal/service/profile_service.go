package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/routing-engine/internal/domain"
	"github.com/spec-kit/routing-engine/internal/persistence"
	"github.com/spec-kit/routing-engine/internal/repository"
)

// ProfileService derives per-customer history profiles from ticket records.
// Profiles are rebuilt lazily per assignment and cached with a TTL; a failed
// fetch degrades to a minimal profile instead of failing the assignment.
type ProfileService struct {
	customers repository.CustomerRepository
	cache     persistence.ProfileCache
	logger    *zap.Logger
	ttl       time.Duration
}

// NewProfileService creates the service.
func NewProfileService(customers repository.CustomerRepository, cache persistence.ProfileCache, logger *zap.Logger, ttl time.Duration) *ProfileService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProfileService{
		customers: customers,
		cache:     cache,
		logger:    logger,
		ttl:       ttl,
	}
}

// BuildProfile returns the cached profile for the customer or derives a
// fresh one from ticket history.
func (s *ProfileService) BuildProfile(ctx context.Context, customerID string) *domain.CustomerProfile {
	if cached, err := s.cache.Get(ctx, customerID); err != nil {
		s.logger.Warn("profile cache read failed", zap.String("customer_id", customerID), zap.Error(err))
	} else if cached != nil {
		return cached
	}

	profile := s.derive(ctx, customerID)
	if err := s.cache.Set(ctx, profile, s.ttl); err != nil {
		s.logger.Warn("profile cache write failed", zap.String("customer_id", customerID), zap.Error(err))
	}
	return profile
}

func (s *ProfileService) derive(ctx context.Context, customerID string) *domain.CustomerProfile {
	profile := &domain.CustomerProfile{
		CustomerID: customerID,
		Tier:       domain.CustomerTierBasic,
	}

	customer, err := s.customers.FetchCustomer(ctx, customerID)
	if err != nil {
		s.logger.Warn("customer fetch degraded, using basic tier",
			zap.String("customer_id", customerID), zap.Error(err))
	} else {
		profile.Tier = customer.Tier
		profile.LanguagePreference = customer.LanguagePreference
	}

	history, err := s.customers.FetchCustomerTicketHistory(ctx, customerID)
	if err != nil {
		s.logger.Warn("customer history fetch degraded, using empty history",
			zap.String("customer_id", customerID), zap.Error(err))
		return profile
	}

	profile.TotalTickets = len(history)

	assignmentCounts := make(map[string]int)
	resolvedHours := 0.0
	resolvedCount := 0
	for _, ticket := range history {
		if ticket.AssigneeID != nil {
			assignmentCounts[*ticket.AssigneeID]++

			interaction := domain.CustomerInteraction{
				AgentID:         *ticket.AssigneeID,
				Date:            ticket.CreatedAt,
				ResolutionHours: ticket.ResolutionHours(),
			}
			if ticket.SatisfactionScore != nil {
				interaction.SatisfactionScore = *ticket.SatisfactionScore
			}
			profile.PreviousInteractions = append(profile.PreviousInteractions, interaction)
		}
		if ticket.ResolvedAt != nil {
			resolvedHours += ticket.ResolutionHours()
			resolvedCount++
		}
	}
	if resolvedCount > 0 {
		profile.AvgResolutionHours = resolvedHours / float64(resolvedCount)
	}

	// Preferred agent is the most frequently assigned one across history.
	best := 0
	for agentID, count := range assignmentCounts {
		if count > best || (count == best && profile.PreferredAgentID != nil && agentID < *profile.PreferredAgentID) {
			id := agentID
			profile.PreferredAgentID = &id
			best = count
		}
	}
	return profile
}
