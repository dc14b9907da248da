package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmnotify/internal/config"
	logx "rmnotify/pkg/logx"
)

const disconnected = `{"aps":{"alert":{"title":"Offline","body":"b","event_data_payload":{
  "event_type":"rmaker.event.node_disconnected","timestamp":1717243200,"event_data":{"node_id":"n1"}}}}}`

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "rmnotify.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestAppServesPushOverHTTP(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, fmt.Sprintf(`
logging:
  level: error
storage:
  driver: file
  path: %s
http:
  enabled: true
  addr: 127.0.0.1:0
session:
  backends: [file]
  file_dir: %s
maintenance:
  compact_schedule: "@hourly"
`, filepath.Join(dir, "data"), filepath.Join(dir, "keys")))

	a, err := NewApp(p)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() { _ = a.Stop(context.Background(), StopUnknown) })

	addr := a.HTTPAddr()
	require.NotEmpty(t, addr)
	resp, err := http.Post("http://"+addr+"/v1/push", "application/json", strings.NewReader(disconnected))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	recs, ok := a.Notify().Delivered(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Offline", recs[0].Title)

	resp, err = http.Get("http://" + addr + "/v1/me")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAppHotReloadsLimit(t *testing.T) {
	dir := t.TempDir()
	p := writeConfig(t, dir, "notifications:\n  limit: 5\n")

	a, err := NewApp(p, WithEphemeral())
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() { _ = a.Stop(context.Background(), StopUnknown) })
	assert.Equal(t, 5, a.local.Store.Notifications.Limit())

	time.Sleep(100 * time.Millisecond)
	writeConfig(t, dir, "notifications:\n  limit: 2\n")
	assert.Eventually(t, func() bool { return a.local.Store.Notifications.Limit() == 2 }, 3*time.Second, 50*time.Millisecond)
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "storage:\n  driver: redis\n")
	_, err := NewApp(p)
	assert.Error(t, err)
}

func TestMapHTTPConfigDefaults(t *testing.T) {
	hc, err := mapHTTPConfig(&config.Config{HTTP: config.HTTPConfig{Enabled: true}})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultHTTPAddr, hc.Addr)

	_, enabled, err := mapRelayConfig(&config.Config{Relay: &config.RelayConfig{Enabled: false, Token: "x"}})
	require.NoError(t, err)
	assert.False(t, enabled)

	rc, enabled, err := mapRelayConfig(&config.Config{Relay: &config.RelayConfig{Enabled: true, Token: "t", ChatID: 9}})
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, 10*time.Second, rc.Timeout)
}

func TestOpenLocalWithoutStorage(t *testing.T) {
	l, err := OpenLocal(&config.Config{Storage: config.StorageConfig{Driver: "none"}}, nil, logx.Nop())
	require.NoError(t, err)
	assert.Nil(t, l.Compactor())
	_, ok := l.Notify.Delivered(context.Background())
	assert.False(t, ok)
	assert.NoError(t, l.Close())
}
