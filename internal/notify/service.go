// Package notify is the push pipeline: decode, classify, persist, publish
// and fan out to sinks. Every ingest transport feeds Service.Handle.
package notify

import (
	"context"
	"sync"
	"time"

	"rmnotify/internal/event"
	"rmnotify/internal/eventbus"
	"rmnotify/internal/localstore"
	"rmnotify/internal/model"
	logx "rmnotify/pkg/logx"
)

// Result describes what Handle did with one payload.
type Result struct {
	// Kind is empty when the payload was not a recognized event.
	Kind          event.Kind                `json:"kind,omitempty"`
	Stored        bool                      `json:"stored"`
	Record        *model.NotificationRecord `json:"record,omitempty"`
	ParamsUpdated int                       `json:"params_updated,omitempty"`
	Sharing       *model.SharingRequest     `json:"sharing_request,omitempty"`
}

// Recognized reports whether the payload produced a record or param update.
func (r Result) Recognized() bool { return r.Kind != "" || r.ParamsUpdated > 0 }

type Service struct {
	store *localstore.Handler
	bus   eventbus.Bus
	log   logx.Logger
	now   func() time.Time

	mu    sync.RWMutex
	sinks []Sink
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithSinks(sinks ...Sink) Option {
	return func(s *Service) { s.sinks = append(s.sinks, sinks...) }
}

func NewService(store *localstore.Handler, bus eventbus.Bus, log logx.Logger, opts ...Option) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		store: store,
		bus:   bus,
		log:   log.With(logx.Component("notify")),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetSinks replaces the sink list (used when the relay is reconfigured).
func (s *Service) SetSinks(sinks ...Sink) {
	active := make([]Sink, 0, len(sinks))
	for _, sk := range sinks {
		if sk != nil {
			active = append(active, sk)
		}
	}
	s.mu.Lock()
	s.sinks = active
	s.mu.Unlock()
}

// Handle processes one raw push payload. Only a malformed payload is an
// error; unrecognized events are dropped and reported in Result.
func (s *Service) Handle(ctx context.Context, raw []byte) (Result, error) {
	payload, err := event.Decode(raw)
	if err != nil {
		return Result{}, err
	}
	return s.HandlePayload(ctx, payload), nil
}

func (s *Service) HandlePayload(ctx context.Context, payload map[string]any) Result {
	c, ok := event.Classify(ctx, payload, s.store.Nodes, s.now())
	if !ok {
		if up, ok := event.ParseParamUpdate(payload); ok {
			return s.applyParams(ctx, up)
		}
		s.log.Debug("push dropped: unrecognized event")
		s.publish(eventbus.TypeNotificationDropped, Result{})
		return Result{}
	}

	rec := c.Record
	res := Result{Kind: c.Kind, Record: &rec, Sharing: c.Sharing}
	if c.Persist {
		s.store.Notifications.Store(ctx, rec)
		res.Stored = true
		s.publish(eventbus.TypeNotificationStored, res)
	} else {
		s.publish(eventbus.TypeNotificationDropped, res)
	}
	s.log.Info("push classified",
		logx.String("kind", string(c.Kind)),
		logx.Bool("stored", res.Stored),
		logx.Float64("timestamp", rec.Timestamp),
	)
	s.fanout(ctx, c.Kind, rec)
	return res
}

func (s *Service) applyParams(ctx context.Context, up event.ParamUpdate) Result {
	n := s.store.Nodes.ApplyParams(ctx, up.NodeID, up.Values)
	s.log.Debug("param update applied", logx.String("node_id", up.NodeID), logx.Int("params", n))
	if n > 0 {
		s.publish(eventbus.TypeNodesUpdated, up.NodeID)
	}
	return Result{ParamsUpdated: n}
}

func (s *Service) fanout(ctx context.Context, kind event.Kind, rec model.NotificationRecord) {
	s.mu.RLock()
	sinks := s.sinks
	s.mu.RUnlock()
	for _, sk := range sinks {
		if err := sk.Deliver(ctx, kind, rec); err != nil {
			s.log.Warn("sink delivery failed", logx.String("sink", sinkName(sk)), logx.String("kind", string(kind)), logx.Err(err))
		}
	}
}

func (s *Service) publish(typ string, data any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Data: data})
}

// Delivered returns the history newest first; ok is false when empty.
func (s *Service) Delivered(ctx context.Context) ([]model.NotificationRecord, bool) {
	return s.store.Notifications.Delivered(ctx)
}

// Cleanup clears the history.
func (s *Service) Cleanup(ctx context.Context) {
	s.store.Notifications.Cleanup(ctx)
	s.publish(eventbus.TypeNotificationsClear, nil)
}
