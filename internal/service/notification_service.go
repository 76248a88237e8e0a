package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/routing-engine/internal/domain"
	"github.com/spec-kit/routing-engine/internal/events"
)

// IntentSink receives notification intents. Delivery mechanics (email,
// webhook, push) live outside this engine.
type IntentSink interface {
	Send(ctx context.Context, intent domain.NotificationIntent) error
}

// LoggingIntentSink writes every intent to the log; the default sink when no
// delivery collaborator is wired in.
type LoggingIntentSink struct {
	Logger *zap.Logger
}

// Send logs the intent.
func (s *LoggingIntentSink) Send(_ context.Context, intent domain.NotificationIntent) error {
	s.Logger.Info("notification intent",
		zap.String("type", string(intent.Type)),
		zap.String("target_user_id", intent.TargetUserID),
		zap.String("ticket_id", intent.TicketID),
		zap.String("priority", string(intent.Priority)))
	return nil
}

// NotificationService translates engine events into notification intents.
type NotificationService struct {
	dispatcher events.Dispatcher
	sink       IntentSink
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, sink IntentSink, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		sink:       sink,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventAssignmentChanged, n.handleAssignmentChanged)
	n.dispatcher.Subscribe(events.EventSLAWarning, n.handleSLAAlert)
	n.dispatcher.Subscribe(events.EventSLABreach, n.handleSLAAlert)
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return nil
	}
	return n.send(ctx, domain.NotificationIntent{
		Type:         domain.NotificationTicketAssigned,
		TargetUserID: payload.AgentID,
		TicketID:     event.TicketID,
		Priority:     payload.Priority,
	})
}

func (n *NotificationService) handleAssignmentChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AssignmentChangedPayload)
	if !ok {
		return nil
	}
	// Both sides of the move are notified.
	if err := n.send(ctx, domain.NotificationIntent{
		Type:         domain.NotificationAssignmentChanged,
		TargetUserID: payload.FromAgentID,
		TicketID:     event.TicketID,
		Priority:     payload.Priority,
	}); err != nil {
		return err
	}
	return n.send(ctx, domain.NotificationIntent{
		Type:         domain.NotificationAssignmentChanged,
		TargetUserID: payload.ToAgentID,
		TicketID:     event.TicketID,
		Priority:     payload.Priority,
	})
}

func (n *NotificationService) handleSLAAlert(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SLAAlertPayload)
	if !ok || payload.AssignedAgentID == nil {
		return nil
	}
	intentType := domain.NotificationSLAWarning
	if event.Type == events.EventSLABreach {
		intentType = domain.NotificationSLABreach
	}
	return n.send(ctx, domain.NotificationIntent{
		Type:         intentType,
		TargetUserID: *payload.AssignedAgentID,
		TicketID:     event.TicketID,
		Priority:     payload.Priority,
	})
}

func (n *NotificationService) send(ctx context.Context, intent domain.NotificationIntent) error {
	if err := n.sink.Send(ctx, intent); err != nil {
		n.logger.Warn("intent delivery failed",
			zap.String("type", string(intent.Type)),
			zap.String("ticket_id", intent.TicketID),
			zap.Error(err))
	}
	return nil
}
