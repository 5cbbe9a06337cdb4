package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/simplysydnee/icanswimbeta-sub004/pkg/jobs"
)

// Event names dispatched to the notifier.
const (
	EventBookingConfirmed       = "booking_confirmed"
	EventBookingCancelled       = "booking_cancelled"
	EventBookingRescheduled     = "booking_rescheduled"
	EventFloatingClaimed        = "floating_session_claimed"
	EventLevelPromoted          = "level_promoted"
	EventAuthorizationExhausted = "authorization_exhausted"
	EventRenewalRequested       = "authorization_renewal_requested"
)

// Notification is a templated event addressed to a swimmer's guardian.
type Notification struct {
	Event     string                 `json:"event"`
	SwimmerID string                 `json:"swimmer_id"`
	Payload   map[string]interface{} `json:"payload"`
}

// Notifier delivers notifications. Implementations may block; they run on queue workers.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds the default notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the event.
func (n *LogNotifier) Notify(_ context.Context, notification Notification) error {
	n.logger.Info("notification",
		zap.String("event", notification.Event),
		zap.String("swimmer_id", notification.SwimmerID),
		zap.Any("payload", notification.Payload),
	)
	return nil
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

// NotificationService dispatches fire-and-forget notifications through the job queue.
type NotificationService struct {
	queue  jobEnqueuer
	logger *zap.Logger
}

// NewNotificationService constructs the dispatcher. A nil queue drops every event.
func NewNotificationService(queue jobEnqueuer, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{queue: queue, logger: logger}
}

// Publish enqueues an event without waiting. Failures are logged and dropped.
func (s *NotificationService) Publish(event, swimmerID string, payload map[string]interface{}) {
	if s == nil || s.queue == nil {
		return
	}
	job := jobs.Job{
		Type:    event,
		Payload: Notification{Event: event, SwimmerID: swimmerID, Payload: payload},
	}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.logger.Warn("notification dropped", zap.String("event", event), zap.String("swimmer_id", swimmerID), zap.Error(err))
	}
}

// NotificationHandler adapts a Notifier into a queue handler.
func NotificationHandler(notifier Notifier) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		notification, ok := job.Payload.(Notification)
		if !ok {
			return fmt.Errorf("unexpected notification payload %T", job.Payload)
		}
		return notifier.Notify(ctx, notification)
	}
}
