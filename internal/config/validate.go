package config

import (
	"fmt"
	"strings"
	"time"

	logx "rmnotify/pkg/logx"
)

// Validate checks values that can be verified without touching the outside
// world. It is used on first load and before committing a hot reload.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if !logx.ValidLevel(cfg.Logging.Level) {
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
	case "", "none", "memory":
	case "file", "sqlite", "sqlite3":
		if strings.TrimSpace(cfg.Storage.Path) == "" {
			return fmt.Errorf("storage.path is required when storage.driver=%s", cfg.Storage.Driver)
		}
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver)
	}
	if _, err := ParseDuration("storage.busy_timeout", cfg.Storage.BusyTimeout, 0); err != nil {
		return err
	}
	if cfg.Storage.CompactEvery < 0 {
		return fmt.Errorf("storage.compact_every must be >= 0")
	}
	if strings.ContainsAny(cfg.Storage.Suite, `/\`) {
		return fmt.Errorf("storage.suite must not contain path separators")
	}

	if cfg.Notifications.Limit < 0 {
		return fmt.Errorf("notifications.limit must be >= 0")
	}

	if _, err := ParseDuration("http.shutdown_timeout", cfg.HTTP.ShutdownTimeout, 0); err != nil {
		return err
	}

	if n := cfg.NATS; n != nil && n.Enabled {
		if strings.TrimSpace(n.URL) == "" {
			return fmt.Errorf("nats.url is required when nats.enabled=true")
		}
		if strings.TrimSpace(n.Subject) == "" {
			return fmt.Errorf("nats.subject is required when nats.enabled=true")
		}
	}

	if r := cfg.Relay; r != nil && r.Enabled {
		if strings.TrimSpace(r.Token) == "" {
			return fmt.Errorf("relay.token is required when relay.enabled=true")
		}
		if r.ChatID == 0 {
			return fmt.Errorf("relay.chat_id is required when relay.enabled=true")
		}
		if r.RatePerSec < 0 {
			return fmt.Errorf("relay.rate_per_sec must be >= 0")
		}
		if _, err := ParseDuration("relay.timeout", r.Timeout, 0); err != nil {
			return err
		}
	}

	if tz := strings.TrimSpace(cfg.Maintenance.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("maintenance.timezone: invalid %q: %w", tz, err)
		}
	}
	return nil
}
