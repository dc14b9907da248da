package notify

import (
	"context"
	"fmt"

	"rmnotify/internal/event"
	"rmnotify/internal/model"
)

// Sink receives every classified record, persisted or not.
type Sink interface {
	Deliver(ctx context.Context, kind event.Kind, rec model.NotificationRecord) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, kind event.Kind, rec model.NotificationRecord) error

func (f SinkFunc) Deliver(ctx context.Context, kind event.Kind, rec model.NotificationRecord) error {
	return f(ctx, kind, rec)
}

func sinkName(s Sink) string {
	if v, ok := s.(fmt.Stringer); ok {
		return v.String()
	}
	return fmt.Sprintf("%T", s)
}
