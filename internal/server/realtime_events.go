package server

import (
	"context"
	"log/slog"

	"scrolla/internal/middleware"
	"scrolla/internal/models"
	"scrolla/internal/notifications"
	"scrolla/internal/observability"
)

// publishBroadcastEvent delivers an event to every live feed connection and
// mirrors it onto NATS.
func (s *Server) publishBroadcastEvent(ctx context.Context, eventType string, payload any) {
	s.publishEvent(ctx, 0, eventType, payload)
}

// publishUserEvent delivers an event to one user's connections and mirrors it
// onto NATS.
func (s *Server) publishUserEvent(ctx context.Context, userID uint, eventType string, payload any) {
	s.publishEvent(ctx, userID, eventType, payload)
}

// publishEvent fans an event out; userID 0 means broadcast. With Redis the
// event goes through pub/sub so every instance's hub sees it exactly once;
// without it the local hub is the only audience.
func (s *Server) publishEvent(ctx context.Context, userID uint, eventType string, payload any) {
	// Delivery must not be cut short by the request finishing.
	ctx = context.WithoutCancel(ctx)

	data, err := notifications.Event{Type: eventType, Payload: payload}.Encode()
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode event", slog.String("error", err.Error()))
		return
	}

	if s.notifier.Enabled() {
		if userID == 0 {
			err = s.notifier.PublishBroadcast(ctx, string(data))
		} else {
			err = s.notifier.PublishUser(ctx, userID, string(data))
		}
		if err != nil {
			observability.RedisErrors.WithLabelValues("publish").Inc()
			middleware.Logger.WarnContext(ctx, "failed to publish event",
				slog.String("event_type", eventType), slog.String("error", err.Error()))
		} else {
			observability.EventsPublished.WithLabelValues("redis", eventType).Inc()
		}
	} else {
		if userID == 0 {
			s.hub.BroadcastAll(data)
		} else {
			s.hub.Broadcast(userID, data)
		}
		observability.EventsPublished.WithLabelValues("local", eventType).Inc()
	}

	if s.natsPub.Enabled() {
		if err := s.natsPub.Publish(ctx, eventType, data); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish event to nats",
				slog.String("event_type", eventType), slog.String("error", err.Error()))
			return
		}
		observability.EventsPublished.WithLabelValues("nats", eventType).Inc()
	}
}

func userSummary(user models.User) map[string]any {
	return map[string]any{
		"id":       user.ID,
		"username": user.Username,
		"avatar":   user.Avatar,
	}
}
