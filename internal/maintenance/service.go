// Package maintenance runs periodic upkeep on the key-value store on a cron
// schedule.
package maintenance

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"rmnotify/internal/eventbus"
	"rmnotify/internal/kvstore"
	logx "rmnotify/pkg/logx"
)

const compactTimeout = 30 * time.Second

type Config struct {
	// CompactSchedule is a cron spec ("0 */6 * * *", "@hourly", "@every 30m").
	// Empty disables compaction.
	CompactSchedule string
	Timezone        string
}

// CompactResult is published on the bus after each run.
type CompactResult struct {
	Duration time.Duration `json:"duration"`
	Err      string        `json:"err,omitempty"`
}

type Service struct {
	target kvstore.Compactor
	bus    eventbus.Bus
	log    logx.Logger
	parser cron.Parser

	mu      sync.Mutex
	cfg     Config
	c       *cron.Cron
	baseCtx context.Context
	running bool
}

// New returns a service compacting target. A nil target (backend without
// compaction) makes every run a no-op.
func New(cfg Config, target kvstore.Compactor, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		target: target,
		bus:    bus,
		log:    log.With(logx.Component("maintenance")),
		// SecondOptional allows both 5-field and 6-field specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		cfg:    cfg,
	}
}

// ValidateSchedule reports whether spec parses.
func (s *Service) ValidateSchedule(spec string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil
	}
	_, err := s.parser.Parse(spec)
	return err
}

// Start schedules the compaction job. It is a no-op when already started.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.baseCtx = ctx
	s.running = true
	return s.scheduleLocked()
}

// Apply swaps the config and reschedules when the service is running.
func (s *Service) Apply(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == cfg {
		return nil
	}
	s.cfg = cfg
	if !s.running {
		return nil
	}
	s.stopCronLocked()
	return s.scheduleLocked()
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCronLocked()
	s.running = false
}

// Next returns the next scheduled run, zero when nothing is scheduled.
func (s *Service) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return time.Time{}
	}
	for _, e := range s.c.Entries() {
		return e.Next
	}
	return time.Time{}
}

func (s *Service) stopCronLocked() {
	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}
}

func (s *Service) scheduleLocked() error {
	spec := strings.TrimSpace(s.cfg.CompactSchedule)
	if spec == "" || s.target == nil {
		s.log.Debug("compaction disabled", logx.Bool("has_target", s.target != nil))
		return nil
	}
	loc := loadLocation(s.cfg.Timezone)
	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	ctx := s.baseCtx
	if _, err := c.AddFunc(spec, func() { _ = s.RunOnce(ctx) }); err != nil {
		return err
	}
	c.Start()
	s.c = c
	s.log.Info("compaction scheduled", logx.String("spec", spec), logx.String("tz", loc.String()))
	return nil
}

// RunOnce compacts the store now.
func (s *Service) RunOnce(ctx context.Context) error {
	if s.target == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	cctx, cancel := context.WithTimeout(ctx, compactTimeout)
	defer cancel()

	start := time.Now()
	err := s.target.Compact(cctx)
	res := CompactResult{Duration: time.Since(start)}
	if err != nil && !errors.Is(err, context.Canceled) {
		res.Err = err.Error()
		s.log.Warn("compaction failed", logx.Err(err), logx.Duration("took", res.Duration))
	} else if err == nil {
		s.log.Debug("compaction done", logx.Duration("took", res.Duration))
	}
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeStoreCompacted, Data: res})
	}
	return err
}

func loadLocation(tz string) *time.Location {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}
