package config

import (
	"reflect"
	"strings"

	logx "rmnotify/pkg/logx"
)

// SummarizeConfigChange returns a compact list of changed sections and safe
// structured fields for logging. Secrets (relay token) are never included.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 8)
	attrs := make([]logx.Field, 0, 16)

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if !reflect.DeepEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", strings.TrimSpace(newCfg.Storage.Driver)),
			logx.String("storage.suite", newCfg.SuiteName()),
		)
	}

	if oldCfg.NotificationLimit() != newCfg.NotificationLimit() {
		changed = append(changed, "notifications")
		attrs = append(attrs, logx.Int("notifications.limit", newCfg.NotificationLimit()))
	}

	if !reflect.DeepEqual(oldCfg.HTTP, newCfg.HTTP) {
		changed = append(changed, "http")
		attrs = append(attrs,
			logx.Bool("http.enabled", newCfg.HTTP.Enabled),
			logx.String("http.addr", newCfg.HTTP.Addr),
		)
	}

	if !reflect.DeepEqual(oldCfg.NATS, newCfg.NATS) {
		changed = append(changed, "nats")
		if newCfg.NATS != nil {
			attrs = append(attrs,
				logx.Bool("nats.enabled", newCfg.NATS.Enabled),
				logx.String("nats.subject", newCfg.NATS.Subject),
			)
		}
	}

	if relayChanged(oldCfg.Relay, newCfg.Relay) {
		changed = append(changed, "relay")
		if r := newCfg.Relay; r != nil {
			attrs = append(attrs,
				logx.Bool("relay.enabled", r.Enabled),
				logx.Int64("relay.chat_id", r.ChatID),
				logx.Int("relay.rate_per_sec", r.RatePerSec),
				logx.Bool("relay.token_set", strings.TrimSpace(r.Token) != ""),
			)
		}
	}

	if !reflect.DeepEqual(oldCfg.Session, newCfg.Session) {
		changed = append(changed, "session")
	}

	if oldCfg.Maintenance != newCfg.Maintenance {
		changed = append(changed, "maintenance")
		attrs = append(attrs, logx.String("maintenance.compact_schedule", newCfg.Maintenance.CompactSchedule))
	}

	return changed, attrs
}

func relayChanged(a, b *RelayConfig) bool {
	if a == nil || b == nil {
		return a != b
	}
	return *a != *b
}
