package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/routing-engine/internal/domain"
	"github.com/spec-kit/routing-engine/internal/persistence"
)

func newProfileService(customers *fakeCustomers) *ProfileService {
	return NewProfileService(customers, persistence.NewMemoryProfileCache(), zap.NewNop(), time.Minute)
}

func resolvedTicket(id, assigneeID string, createdAt time.Time, resolutionHours float64, satisfaction *float64) domain.TicketRecord {
	resolvedAt := createdAt.Add(time.Duration(resolutionHours * float64(time.Hour)))
	return domain.TicketRecord{
		ID:                id,
		CustomerID:        "c1",
		AssigneeID:        &assigneeID,
		Status:            domain.TicketStatusResolved,
		Priority:          domain.TicketPriorityMedium,
		SatisfactionScore: satisfaction,
		CreatedAt:         createdAt,
		ResolvedAt:        &resolvedAt,
	}
}

func TestBuildProfileFromHistory(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	score := 4.5
	customers := &fakeCustomers{
		customer: &domain.CustomerRecord{ID: "c1", Tier: domain.CustomerTierEnterprise, LanguagePreference: "de"},
		history: []domain.TicketRecord{
			resolvedTicket("t1", "agent-a", base, 4, &score),
			resolvedTicket("t2", "agent-a", base.Add(24*time.Hour), 8, nil),
			resolvedTicket("t3", "agent-b", base.Add(48*time.Hour), 12, nil),
		},
	}

	profile := newProfileService(customers).BuildProfile(context.Background(), "c1")
	require.NotNil(t, profile)
	assert.Equal(t, domain.CustomerTierEnterprise, profile.Tier)
	assert.Equal(t, "de", profile.LanguagePreference)
	assert.Equal(t, 3, profile.TotalTickets)
	assert.InDelta(t, 8.0, profile.AvgResolutionHours, 1e-9)
	assert.Len(t, profile.PreviousInteractions, 3)
	require.NotNil(t, profile.PreferredAgentID)
	assert.Equal(t, "agent-a", *profile.PreferredAgentID)
}

func TestBuildProfileDegradesToBasicTier(t *testing.T) {
	customers := &fakeCustomers{fetchErr: true, historyErr: true}

	profile := newProfileService(customers).BuildProfile(context.Background(), "c-missing")
	require.NotNil(t, profile)
	assert.Equal(t, domain.CustomerTierBasic, profile.Tier)
	assert.Zero(t, profile.TotalTickets)
	assert.Nil(t, profile.PreferredAgentID)
}

func TestBuildProfileIgnoresUnassignedTickets(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	customers := &fakeCustomers{
		customer: &domain.CustomerRecord{ID: "c1", Tier: domain.CustomerTierBasic},
		history: []domain.TicketRecord{
			{ID: "t1", CustomerID: "c1", Status: domain.TicketStatusOpen, CreatedAt: base},
		},
	}

	profile := newProfileService(customers).BuildProfile(context.Background(), "c1")
	assert.Equal(t, 1, profile.TotalTickets)
	assert.Empty(t, profile.PreviousInteractions)
	assert.Nil(t, profile.PreferredAgentID)
	assert.Zero(t, profile.AvgResolutionHours)
}

func TestBuildProfileServesFromCache(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	customers := &fakeCustomers{
		customer: &domain.CustomerRecord{ID: "c1", Tier: domain.CustomerTierVIP},
		history:  []domain.TicketRecord{resolvedTicket("t1", "agent-a", base, 4, nil)},
	}
	svc := newProfileService(customers)

	first := svc.BuildProfile(context.Background(), "c1")
	require.Equal(t, domain.CustomerTierVIP, first.Tier)

	// A later store change is invisible while the cached entry lives.
	customers.customer.Tier = domain.CustomerTierBasic
	second := svc.BuildProfile(context.Background(), "c1")
	assert.Equal(t, domain.CustomerTierVIP, second.Tier)
}
