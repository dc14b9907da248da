package config

// Config is the on-disk configuration of the rmnotify agent.
//
// The file may be JSON or YAML (by extension). Unknown fields are rejected so
// typos surface on load and on hot reload instead of being silently ignored.
type Config struct {
	Logging       LoggingConfig       `json:"logging"`
	Storage       StorageConfig       `json:"storage"`
	Notifications NotificationsConfig `json:"notifications"`
	HTTP          HTTPConfig          `json:"http"`
	NATS          *NATSConfig         `json:"nats,omitempty"`
	Relay         *RelayConfig        `json:"relay,omitempty"`
	Session       SessionConfig       `json:"session"`
	Maintenance   MaintenanceConfig   `json:"maintenance"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	JSON    bool        `json:"json"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig selects the key-value backend shared by the agent and the CLI.
//
// Example:
//
//	storage:
//	  driver: file
//	  path: ./data
//	  suite: group.com.espressif.rainmaker
type StorageConfig struct {
	Driver string `json:"driver"`
	Path   string `json:"path"`
	// Suite is the shared namespace (app-group identifier) all keys live under.
	Suite string `json:"suite"`
	// BusyTimeout is a Go duration string (sqlite only).
	BusyTimeout string `json:"busy_timeout,omitempty"`
	// CompactEvery compacts the file journal after this many writes (file only).
	CompactEvery int `json:"compact_every,omitempty"`
}

// NotificationsConfig bounds the local notification history.
// Limit defaults to 200 when omitted or <= 0.
type NotificationsConfig struct {
	Limit int `json:"limit"`
}

type HTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:8787"
	// CORSOrigins are passed to gorilla/handlers.AllowedOrigins. Empty disables CORS.
	CORSOrigins []string `json:"cors_origins,omitempty"`
	// ShutdownTimeout is a Go duration string.
	ShutdownTimeout string `json:"shutdown_timeout,omitempty"`
	// Pprof mounts net/http/pprof under /debug/pprof/ on the same listener.
	Pprof bool `json:"pprof,omitempty"`
}

// NATSConfig enables the NATS push ingestion subscriber.
type NATSConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Subject string `json:"subject"`
	// Queue is an optional queue group so several agents can share a subject.
	Queue string `json:"queue,omitempty"`
}

// RelayConfig forwards classified notifications to a Telegram chat.
//
// Security note: the token is never logged.
type RelayConfig struct {
	Enabled    bool   `json:"enabled"`
	Token      string `json:"token"`
	ChatID     int64  `json:"chat_id"`
	ThreadID   int    `json:"thread_id,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
	// Timeout bounds a single send (Go duration string).
	Timeout string `json:"timeout,omitempty"`
}

// SessionConfig controls where the identity token is kept.
//
// Backends are 99designs/keyring backend names ("keychain", "secret-service",
// "wincred", "pass", "file"). Empty means the platform defaults plus "file".
type SessionConfig struct {
	Backends []string `json:"backends,omitempty"`
	FileDir  string   `json:"file_dir,omitempty"`
}

// MaintenanceConfig schedules background store upkeep.
//
// CompactSchedule accepts a cron expression ("0 */6 * * *", "@hourly") or
// "@every 30m". Empty disables the job.
type MaintenanceConfig struct {
	CompactSchedule string `json:"compact_schedule,omitempty"`
	Timezone        string `json:"timezone,omitempty"`
}

const (
	DefaultNotificationLimit = 200
	DefaultHTTPAddr          = "127.0.0.1:8787"
	DefaultSuite             = "group.com.espressif.rainmaker"
)

// NotificationLimit returns the effective history bound.
func (c *Config) NotificationLimit() int {
	if c == nil || c.Notifications.Limit <= 0 {
		return DefaultNotificationLimit
	}
	return c.Notifications.Limit
}

// SuiteName returns the effective storage namespace.
func (c *Config) SuiteName() string {
	if c == nil || c.Storage.Suite == "" {
		return DefaultSuite
	}
	return c.Storage.Suite
}
