package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scrolla/internal/middleware"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// SubjectPrefix namespaces every domain event on the bus.
const SubjectPrefix = "scrolla.events."

// NatsPublisher mirrors live feed events onto NATS subjects for consumers
// outside the API.
type NatsPublisher struct {
	nc *nats.Conn
}

// NewNatsPublisher wraps nc. A nil connection turns Publish into a no-op.
func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

// ConnectNATS dials url with reconnects enabled.
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("scrolla-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				middleware.Logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			middleware.Logger.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}

// Enabled reports whether the publisher has a connection.
func (p *NatsPublisher) Enabled() bool {
	return p != nil && p.nc != nil
}

// Publish sends data on the subject for eventType, carrying the trace context
// of ctx in the message headers.
func (p *NatsPublisher) Publish(ctx context.Context, eventType string, data []byte) error {
	if !p.Enabled() {
		return nil
	}
	return p.nc.PublishMsg(newEventMsg(ctx, eventType, data))
}

func newEventMsg(ctx context.Context, eventType string, data []byte) *nats.Msg {
	msg := &nats.Msg{
		Subject: SubjectPrefix + eventType,
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))
	return msg
}
