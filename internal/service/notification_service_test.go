package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/routing-engine/internal/domain"
	"github.com/spec-kit/routing-engine/internal/events"
)

type recordingSink struct {
	mu      sync.Mutex
	intents []domain.NotificationIntent
}

func (s *recordingSink) Send(_ context.Context, intent domain.NotificationIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents = append(s.intents, intent)
	return nil
}

func notificationSetup() (*recordingSink, events.Dispatcher) {
	sink := &recordingSink{}
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, sink, zap.NewNop()).RegisterHandlers()
	return sink, dispatcher
}

func TestNotifyOnTicketAssigned(t *testing.T) {
	sink, dispatcher := notificationSetup()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:        "e1",
		Type:      events.EventTicketAssigned,
		TicketID:  "t1",
		Timestamp: time.Now(),
		Payload: events.TicketAssignedPayload{
			AgentID:  "agent-1",
			Priority: domain.TicketPriorityHigh,
		},
	})
	require.NoError(t, err)

	require.Len(t, sink.intents, 1)
	assert.Equal(t, domain.NotificationTicketAssigned, sink.intents[0].Type)
	assert.Equal(t, "agent-1", sink.intents[0].TargetUserID)
	assert.Equal(t, "t1", sink.intents[0].TicketID)
}

func TestNotifyBothSidesOnAssignmentChanged(t *testing.T) {
	sink, dispatcher := notificationSetup()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:       "e1",
		Type:     events.EventAssignmentChanged,
		TicketID: "t1",
		Payload: events.AssignmentChangedPayload{
			FromAgentID: "agent-a",
			ToAgentID:   "agent-b",
			Priority:    domain.TicketPriorityLow,
		},
	})
	require.NoError(t, err)

	require.Len(t, sink.intents, 2)
	assert.Equal(t, "agent-a", sink.intents[0].TargetUserID)
	assert.Equal(t, "agent-b", sink.intents[1].TargetUserID)
	for _, intent := range sink.intents {
		assert.Equal(t, domain.NotificationAssignmentChanged, intent.Type)
	}
}

func TestNotifySLABreachTargetsAssignee(t *testing.T) {
	sink, dispatcher := notificationSetup()
	assignee := "agent-1"

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:       "e1",
		Type:     events.EventSLABreach,
		TicketID: "t1",
		Payload: events.SLAAlertPayload{
			Kind:            events.SLAAlertResponse,
			State:           domain.SLAStateOverdue,
			AssignedAgentID: &assignee,
			Priority:        domain.TicketPriorityUrgent,
		},
	})
	require.NoError(t, err)

	require.Len(t, sink.intents, 1)
	assert.Equal(t, domain.NotificationSLABreach, sink.intents[0].Type)
	assert.Equal(t, "agent-1", sink.intents[0].TargetUserID)
}

func TestNotifySLAAlertSkippedWithoutAssignee(t *testing.T) {
	sink, dispatcher := notificationSetup()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:       "e1",
		Type:     events.EventSLAWarning,
		TicketID: "t1",
		Payload: events.SLAAlertPayload{
			Kind:  events.SLAAlertResponse,
			State: domain.SLAStateWarning,
		},
	})
	require.NoError(t, err)
	assert.Empty(t, sink.intents)
}
