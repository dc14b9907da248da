// Package natsub feeds push payloads published on a NATS subject into the
// notification pipeline.
package natsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"rmnotify/internal/model"
	"rmnotify/internal/notify"
	logx "rmnotify/pkg/logx"
)

const handleTimeout = 10 * time.Second

// Handler is satisfied by *notify.Service.
type Handler interface {
	Handle(ctx context.Context, raw []byte) (notify.Result, error)
}

type Config struct {
	URL     string
	Subject string
	// Queue, when set, load-balances the subject across agents.
	Queue string
	Name  string
}

// Stats counts processed messages since the subscriber was created.
type Stats struct {
	Received  uint64 `json:"received"`
	Stored    uint64 `json:"stored"`
	Malformed uint64 `json:"malformed"`
}

type Subscriber struct {
	cfg Config
	h   Handler
	log logx.Logger

	received  atomic.Uint64
	stored    atomic.Uint64
	malformed atomic.Uint64

	// ready is closed once the first subscription is registered.
	ready chan struct{}
	once  atomic.Bool
}

func New(cfg Config, h Handler, log logx.Logger) (*Subscriber, error) {
	if strings.TrimSpace(cfg.URL) == "" || strings.TrimSpace(cfg.Subject) == "" {
		return nil, errors.New("natsub: url and subject are required")
	}
	if h == nil {
		return nil, errors.New("natsub: handler is nil")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Name == "" {
		cfg.Name = "rmnotify"
	}
	return &Subscriber{
		cfg:   cfg,
		h:     h,
		log:   log.With(logx.Component("natsub"), logx.String("subject", cfg.Subject)),
		ready: make(chan struct{}),
	}, nil
}

func (s *Subscriber) Stats() Stats {
	return Stats{Received: s.received.Load(), Stored: s.stored.Load(), Malformed: s.malformed.Load()}
}

// Ready is closed once the subscription is live on the server.
func (s *Subscriber) Ready() <-chan struct{} { return s.ready }

// Run connects, subscribes and blocks until ctx is done, then drains. It
// returns an error only when the connection or subscription cannot be set
// up; the supervisor restarts it.
func (s *Subscriber) Run(ctx context.Context) error {
	nc, err := nats.Connect(s.cfg.URL,
		nats.Name(s.cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				s.log.Warn("nats disconnected", logx.Err(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			s.log.Info("nats reconnected", logx.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS at %s: %w", s.cfg.URL, err)
	}
	defer nc.Close()

	cb := func(msg *nats.Msg) { s.handle(ctx, msg) }
	var sub *nats.Subscription
	if s.cfg.Queue != "" {
		sub, err = nc.QueueSubscribe(s.cfg.Subject, s.cfg.Queue, cb)
	} else {
		sub, err = nc.Subscribe(s.cfg.Subject, cb)
	}
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.cfg.Subject, err)
	}
	// Flush registers the subscription on the server before reporting ready.
	if err := nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("flushing subscription: %w", err)
	}
	if s.once.CompareAndSwap(false, true) {
		close(s.ready)
	}
	s.log.Info("nats subscriber started", logx.String("queue", s.cfg.Queue))

	<-ctx.Done()
	if err := nc.Drain(); err != nil {
		s.log.Debug("nats drain failed", logx.Err(err))
	}
	s.log.Info("nats subscriber stopped", logx.Uint64("received", s.received.Load()))
	return nil
}

func (s *Subscriber) handle(ctx context.Context, msg *nats.Msg) {
	s.received.Add(1)
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handleTimeout)
	defer cancel()

	res, err := s.h.Handle(hctx, msg.Data)
	if err != nil {
		s.malformed.Add(1)
		s.log.Warn("malformed push payload", logx.Err(err), logx.Int("bytes", len(msg.Data)))
		s.reply(msg, model.CloudResponse{Status: "failure", Description: "malformed push payload"})
		return
	}
	if res.Stored {
		s.stored.Add(1)
	}
	s.reply(msg, res)
}

// reply answers request-style publishes; plain publishes carry no reply.
func (s *Subscriber) reply(msg *nats.Msg, v any) {
	if msg.Reply == "" {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := msg.Respond(b); err != nil {
		s.log.Debug("nats reply failed", logx.Err(err))
	}
}
