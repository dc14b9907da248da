package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rmnotify/internal/config"
	"rmnotify/internal/eventbus"
	"rmnotify/internal/ingest/httpapi"
	"rmnotify/internal/ingest/natsub"
	"rmnotify/internal/maintenance"
	"rmnotify/internal/notify"
	"rmnotify/internal/relay"
	"rmnotify/internal/runtime/supervisor"
	"rmnotify/internal/session"
	logx "rmnotify/pkg/logx"
	"rmnotify/pkg/systemd"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	local *Local

	sessions *session.TokenStore
	http     *httpapi.Server
	maint    *maintenance.Service
	nats     *natsub.Subscriber
}

type Option func(*options)

type options struct {
	ephemeral bool
}

// WithEphemeral keeps everything in memory regardless of storage config.
func WithEphemeral() Option { return func(o *options) { o.ephemeral = true } }

func NewApp(cfgPath string, opts ...Option) (*App, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if o.ephemeral {
		cfg.Storage.Driver = "memory"
		cfgm.Commit(cfg)
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	log = log.With(logx.Component("app"))

	bus := eventbus.New()
	local, err := OpenLocal(cfg, bus, log)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfgm:  cfgm,
		log:   log,
		logs:  logSvc,
		bus:   bus,
		local: local,
	}

	if ts, err := session.Open(mapSessionConfig(cfg)); err != nil {
		log.Warn("session store unavailable; /v1/me disabled", logx.Err(err))
	} else {
		a.sessions = ts
	}

	if err := a.applyRelay(cfg); err != nil {
		_ = local.Close()
		return nil, err
	}

	deps := httpapi.Deps{
		Notify: local.Notify,
		Store:  local.Store,
		Health: a.health,
	}
	if a.sessions != nil {
		deps.Sessions = a.sessions
	}
	a.http = httpapi.NewServer(deps, log)

	a.maint = maintenance.New(mapMaintenanceConfig(cfg), local.Compactor(), bus, log)

	if nc, ok := mapNATSConfig(cfg); ok {
		sub, err := natsub.New(nc, local.Notify, log)
		if err != nil {
			_ = local.Close()
			return nil, err
		}
		a.nats = sub
	}
	return a, nil
}

func (a *App) Notify() *notify.Service { return a.local.Notify }

// HTTPAddr reports the API listen address, empty when disabled.
func (a *App) HTTPAddr() string { return a.http.Addr() }

// Done is closed when the supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) health() supervisor.Snapshot {
	if a.sup == nil {
		return supervisor.Snapshot{}
	}
	return a.sup.Snapshot()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.Component("config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if err := a.maint.ValidateSchedule(cfg.Maintenance.CompactSchedule); err != nil {
			return fmt.Errorf("maintenance.compact_schedule: %w", err)
		}
		return nil
	})

	cfg := a.cfgm.Get()
	hc, err := mapHTTPConfig(cfg)
	if err != nil {
		return err
	}
	if err := a.http.Apply(a.sup.Context(), hc); err != nil {
		return err
	}
	if err := a.maint.Start(a.sup.Context()); err != nil {
		return fmt.Errorf("maintenance: %w", err)
	}
	if a.nats != nil {
		a.sup.GoRestart("nats.subscriber", a.nats.Run,
			supervisor.WithRestartBackoff(time.Second, 30*time.Second),
			supervisor.WithPublishFirstError(true),
		)
	}

	// Debug trail of pipeline events.
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(c, lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.sup.Go("systemd.watchdog", systemd.Watchdog)
	if ok, err := systemd.Ready(); err != nil {
		a.log.Debug("sd_notify ready failed", logx.Err(err))
	} else if ok {
		a.log.Debug("sd_notify ready sent")
		_, _ = systemd.Status("serving on " + a.http.Addr())
	}
	a.log.Info("app started",
		logx.String("http", a.http.Addr()),
		logx.Bool("nats", a.nats != nil),
		logx.Int("limit", a.local.Store.Notifications.Limit()),
	)
	return nil
}

// applyConfig pushes a hot-reloaded config into the live components.
func (a *App) applyConfig(c context.Context, oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Debug("config change summary", fields...)

	for _, s := range sections {
		switch s {
		case "storage", "nats", "session":
			a.log.Warn(s + " config changed; restart required for changes to take effect")
		}
	}

	a.logs.Apply(mapLogConfig(newCfg))
	a.local.Store.Notifications.SetLimit(newCfg.NotificationLimit())

	if err := a.applyRelay(newCfg); err != nil {
		a.log.Warn("invalid relay config; keeping previous", logx.Err(err))
	}
	if hc, err := mapHTTPConfig(newCfg); err != nil {
		a.log.Warn("invalid http config; keeping previous", logx.Err(err))
	} else if err := a.http.Apply(c, hc); err != nil {
		a.log.Warn("http reconfigure failed", logx.Err(err))
	}
	if err := a.maint.Apply(mapMaintenanceConfig(newCfg)); err != nil {
		a.log.Warn("maintenance reconfigure failed", logx.Err(err))
	}

	a.log.Info("config reloaded", fields...)
}

// applyRelay rebuilds the sink list from cfg.
func (a *App) applyRelay(cfg *config.Config) error {
	rc, enabled, err := mapRelayConfig(cfg)
	if err != nil {
		return err
	}
	if !enabled {
		a.local.Notify.SetSinks()
		return nil
	}
	r, err := relay.New(rc, a.log)
	if err != nil {
		return err
	}
	a.local.Notify.SetSinks(r)
	a.log.Info("telegram relay enabled", logx.Int64("chat_id", rc.ChatID))
	return nil
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return a.local.Close()
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	_, _ = systemd.Stopping()

	// Cancel first so background loops start unwinding immediately.
	a.sup.Cancel()

	// step runs one shutdown step bounded by max and the caller's deadline.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		if dl, ok := ctx.Deadline(); ok {
			if rem := time.Until(dl); rem < max {
				max = rem
			}
		}
		if max <= 0 {
			a.log.Warn("stop step skipped (deadline reached)", logx.String("name", name))
			return
		}
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	step("http", 3*time.Second, func(c context.Context) error { a.http.Stop(c); return nil })
	step("maintenance", 2*time.Second, func(context.Context) error { a.maint.Stop(); return nil })
	step("supervisor", 3*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	step("storage", time.Second, func(context.Context) error { return a.local.Close() })

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
