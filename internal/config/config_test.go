package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestParseYAMLAndDefaults(t *testing.T) {
	p := writeFile(t, t.TempDir(), "rmnotify.yaml", `
logging:
  level: debug
  console: true
storage:
  driver: file
  path: ./data
notifications:
  limit: 0
relay:
  enabled: false
`)
	cfg, err := NewConfigManager(p).Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, DefaultNotificationLimit, cfg.NotificationLimit())
	assert.Equal(t, DefaultSuite, cfg.SuiteName())
	require.NotNil(t, cfg.Relay)
	assert.Nil(t, cfg.NATS)
}

func TestParseEmptyYAMLIsEmptyConfig(t *testing.T) {
	cfg, err := ParseBytes("x.yml", []byte("\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultNotificationLimit, cfg.NotificationLimit())
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := ParseBytes("x.json", []byte(`{"storage":{"driver":"file","pth":"x"}}`))
	require.Error(t, err)
}

func TestParseRejectsTrailingData(t *testing.T) {
	_, err := ParseBytes("x.json", []byte(`{} {}`))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"empty", Config{}, true},
		{"bad level", Config{Logging: LoggingConfig{Level: "loud"}}, false},
		{"file needs path", Config{Storage: StorageConfig{Driver: "file"}}, false},
		{"unknown driver", Config{Storage: StorageConfig{Driver: "redis"}}, false},
		{"suite with slash", Config{Storage: StorageConfig{Suite: "a/b"}}, false},
		{"negative limit", Config{Notifications: NotificationsConfig{Limit: -1}}, false},
		{"bad shutdown", Config{HTTP: HTTPConfig{ShutdownTimeout: "soon"}}, false},
		{"nats needs subject", Config{NATS: &NATSConfig{Enabled: true, URL: "nats://x"}}, false},
		{"relay needs token", Config{Relay: &RelayConfig{Enabled: true, ChatID: 1}}, false},
		{"relay ok", Config{Relay: &RelayConfig{Enabled: true, Token: "t", ChatID: 1, Timeout: "5s"}}, true},
		{"disabled relay ignored", Config{Relay: &RelayConfig{Enabled: false}}, true},
		{"bad tz", Config{Maintenance: MaintenanceConfig{Timezone: "Mars/Base"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			err := Validate(&cfg)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSummarizeConfigChangeHidesToken(t *testing.T) {
	oldCfg := &Config{Relay: &RelayConfig{Enabled: true, Token: "old-secret", ChatID: 1}}
	newCfg := &Config{
		Relay:         &RelayConfig{Enabled: true, Token: "new-secret", ChatID: 1},
		Notifications: NotificationsConfig{Limit: 50},
	}
	changed, attrs := SummarizeConfigChange(oldCfg, newCfg)
	assert.ElementsMatch(t, []string{"relay", "notifications"}, changed)
	assert.NotEmpty(t, attrs)

	changed, _ = SummarizeConfigChange(newCfg, newCfg)
	assert.Empty(t, changed)
}

func TestPublishKeepsNewest(t *testing.T) {
	m := NewConfigManager("unused.json")
	ch := m.Subscribe(1)
	a, b := &Config{}, &Config{Notifications: NotificationsConfig{Limit: 5}}
	m.publish(a)
	m.publish(b)
	got := <-ch
	assert.Same(t, b, got)

	m.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestWatchPublishesValidReload(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "rmnotify.json", `{"notifications":{"limit":10}}`)
	m := NewConfigManager(p)
	_, err := m.Load()
	require.NoError(t, err)

	ch := m.Subscribe(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Watch(ctx) }()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "rmnotify.json", `{"notifications":{"limit":"bad"}}`)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, 10, m.Get().NotificationLimit())

	writeFile(t, dir, "rmnotify.json", `{"notifications":{"limit":25}}`)
	select {
	case cfg := <-ch:
		assert.Equal(t, 25, cfg.NotificationLimit())
	case <-time.After(3 * time.Second):
		t.Fatal("reload was not published")
	}
	assert.Equal(t, 25, m.Get().NotificationLimit())
}

func TestRestartBackoffCaps(t *testing.T) {
	b := newRestartBackoff()
	var last time.Duration
	for i := 0; i < 10; i++ {
		last = b.next()
	}
	assert.LessOrEqual(t, last, restartBackoffMax+restartBackoffMax/2)
	b.reset()
	assert.Equal(t, restartBackoffBase, b.cur)
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("x", "", 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)

	d, err = ParseDuration("x", "250ms", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)

	d, err = ParseDuration("x", "1.5", 0)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	_, err = ParseDuration("relay.timeout", "-2s", 0)
	assert.ErrorContains(t, err, "relay.timeout")

	_, err = ParseDuration("x", "soon", 0)
	assert.Error(t, err)
}
