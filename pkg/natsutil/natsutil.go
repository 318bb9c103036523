// Package natsutil provides typed NATS publish/subscribe helpers with
// OpenTelemetry trace propagation. The engine uses it for the
// fire-and-forget analytics events.
package natsutil

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// headerCarrier adapts nats.Header to the OTel TextMapCarrier contract.
type headerCarrier nats.Header

func (c headerCarrier) Get(key string) string { return nats.Header(c).Get(key) }

func (c headerCarrier) Set(key, val string) { nats.Header(c).Set(key, val) }

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// encode builds a message with the value as JSON and the trace context
// from ctx injected into its headers.
func encode[T any](ctx context.Context, subject string, v T) (*nats.Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("natsutil: marshal %s: %w", subject, err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier(msg.Header))
	return msg, nil
}

// Publish serializes v as JSON and publishes it to the given subject.
func Publish[T any](ctx context.Context, nc *nats.Conn, subject string, v T) error {
	msg, err := encode(ctx, subject, v)
	if err != nil {
		return err
	}
	return nc.PublishMsg(msg)
}

// Subscribe registers a handler for JSON messages of type T. The trace
// context is recovered from message headers; malformed payloads are
// dropped.
func Subscribe[T any](nc *nats.Conn, subject string, handler func(context.Context, T)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			return
		}
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), headerCarrier(msg.Header))
		handler(ctx, v)
	})
}
