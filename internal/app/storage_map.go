package app

import (
	"strings"
	"time"

	"rmnotify/internal/config"
	"rmnotify/internal/ingest/httpapi"
	"rmnotify/internal/ingest/natsub"
	"rmnotify/internal/kvstore"
	"rmnotify/internal/maintenance"
	"rmnotify/internal/relay"
	"rmnotify/internal/session"
	logx "rmnotify/pkg/logx"
)

// The map* helpers translate the on-disk config into component configs.
// Config.Validate has already run, so duration parse errors are returned
// only for configs built in code.

func mapStorageConfig(cfg *config.Config) (kvstore.Config, error) {
	sc := cfg.Storage
	busy, err := config.ParseDuration("storage.busy_timeout", sc.BusyTimeout, time.Second)
	if err != nil {
		return kvstore.Config{}, err
	}
	return kvstore.Config{
		Driver:       strings.ToLower(strings.TrimSpace(sc.Driver)),
		Path:         strings.TrimSpace(sc.Path),
		Suite:        cfg.SuiteName(),
		BusyTimeout:  busy,
		CompactEvery: sc.CompactEvery,
	}, nil
}

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		JSON:    cfg.Logging.JSON,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

// mapRelayConfig reports enabled=false when the relay section is absent or off.
func mapRelayConfig(cfg *config.Config) (relay.Config, bool, error) {
	r := cfg.Relay
	if r == nil || !r.Enabled {
		return relay.Config{}, false, nil
	}
	timeout, err := config.ParseDuration("relay.timeout", r.Timeout, 10*time.Second)
	if err != nil {
		return relay.Config{}, false, err
	}
	return relay.Config{
		Token:      r.Token,
		ChatID:     r.ChatID,
		ThreadID:   r.ThreadID,
		RatePerSec: r.RatePerSec,
		Timeout:    timeout,
		Location:   loadLocation(cfg.Maintenance.Timezone),
	}, true, nil
}

func mapHTTPConfig(cfg *config.Config) (httpapi.ServerConfig, error) {
	h := cfg.HTTP
	timeout, err := config.ParseDuration("http.shutdown_timeout", h.ShutdownTimeout, 0)
	if err != nil {
		return httpapi.ServerConfig{}, err
	}
	addr := strings.TrimSpace(h.Addr)
	if addr == "" {
		addr = config.DefaultHTTPAddr
	}
	return httpapi.ServerConfig{
		Enabled:         h.Enabled,
		Addr:            addr,
		ShutdownTimeout: timeout,
		Options:         httpapi.Options{CORSOrigins: h.CORSOrigins, Pprof: h.Pprof},
	}, nil
}

func mapNATSConfig(cfg *config.Config) (natsub.Config, bool) {
	n := cfg.NATS
	if n == nil || !n.Enabled {
		return natsub.Config{}, false
	}
	return natsub.Config{URL: n.URL, Subject: n.Subject, Queue: n.Queue}, true
}

func mapMaintenanceConfig(cfg *config.Config) maintenance.Config {
	return maintenance.Config{
		CompactSchedule: cfg.Maintenance.CompactSchedule,
		Timezone:        cfg.Maintenance.Timezone,
	}
}

func mapSessionConfig(cfg *config.Config) session.Config {
	return session.Config{Backends: cfg.Session.Backends, FileDir: cfg.Session.FileDir}
}

func loadLocation(tz string) *time.Location {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
