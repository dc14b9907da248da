package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmnotify/internal/kvstore"
	"rmnotify/internal/localstore"
	"rmnotify/internal/model"
	"rmnotify/internal/notify"
	"rmnotify/internal/runtime/supervisor"
	"rmnotify/internal/session"
	logx "rmnotify/pkg/logx"
)

const disconnected = `{"aps":{"alert":{"title":"Offline","body":"b","event_data_payload":{
  "event_type":"rmaker.event.node_disconnected","timestamp":1717243200,"event_data":{"node_id":"n1"}}}}}`

type fakeSessions struct {
	user    session.UserInfo
	err     error
	cleared int
}

func (f *fakeSessions) Current(context.Context) (session.UserInfo, error) { return f.user, f.err }
func (f *fakeSessions) Clear() error {
	f.cleared++
	return nil
}

type fixture struct {
	h        http.Handler
	store    *localstore.Handler
	sessions *fakeSessions
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()
	store := localstore.NewHandler(kvstore.NewMemory(), 0, logx.Nop())
	svc := notify.NewService(store, nil, logx.Nop())
	sess := &fakeSessions{user: session.UserInfo{Username: "alice", UserID: "u-1", Provider: session.ProviderCognito}}
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	h := NewRouter(Deps{
		Notify:   svc,
		Store:    store,
		Sessions: sess,
		Health:   func() supervisor.Snapshot { return supervisor.Snapshot{Active: 2} },
		Now:      func() time.Time { return now },
	}, opts, logx.Nop())
	return fixture{h: h, store: store, sessions: sess}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestPushStoresAndLists(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPost, "/v1/push", disconnected)
	require.Equal(t, http.StatusAccepted, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["stored"])
	assert.Equal(t, "node_disconnected", body["kind"])

	rec = f.do(t, http.MethodGet, "/v1/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["notifications"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Offline", list[0].(map[string]any)["title"])

	rec = f.do(t, http.MethodDelete, "/v1/notifications", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/notifications", "")
	assert.Nil(t, decode(t, rec)["notifications"])
}

func TestPushUnknownAndMalformed(t *testing.T) {
	f := newFixture(t, Options{})
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/v1/push", `{"aps":{}}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/v1/push", `{"aps":`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodGet, "/v1/push", "").Code)
}

func TestPushBatch(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPost, "/v1/push/batch", "["+disconnected+`,{"aps":{}}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out []model.CloudResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "node_disconnected", out[0].Description)
	assert.Equal(t, "ignored", out[1].Description)

	rec = f.do(t, http.MethodPost, "/v1/push/batch", "["+disconnected+`,"nope"]`)
	require.Equal(t, http.StatusMultiStatus, rec.Code)
	out = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	ok, failed := model.SplitByStatus(out)
	assert.Len(t, ok, 1)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].ErrorCode)
	assert.Equal(t, http.StatusBadRequest, *failed[0].ErrorCode)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/v1/push/batch", `["x"]`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/v1/push/batch", `{}`).Code)
}

func TestNodesAndGroups(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodPut, "/v1/nodes", `[{"id":"n1","devices":[{"name":"Lamp"}]}]`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	nodes, ok := f.store.Nodes.Fetch(context.Background())
	require.True(t, ok)
	assert.Equal(t, "n1", nodes[0].ID)

	rec = f.do(t, http.MethodGet, "/v1/nodes", "")
	assert.Len(t, decode(t, rec)["nodes"], 1)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/v1/nodes", `{"id":"n1"}`).Code)
	rec = f.do(t, http.MethodPut, "/v1/nodes", `[]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "failure", decode(t, rec)["status"])
	assert.Equal(t, model.ErrEmptyNodeList.Error(), decode(t, rec)["description"])
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/v1/nodes", "").Code)
	_, ok = f.store.Nodes.Fetch(context.Background())
	assert.False(t, ok)

	rec = f.do(t, http.MethodPut, "/v1/node-groups", `{"groups":[{"group_id":"g1","group_name":"Home"}]}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, f.store.Groups.Fetch(context.Background()), 1)
	rec = f.do(t, http.MethodGet, "/v1/node-groups", "")
	assert.Len(t, decode(t, rec)["groups"], 1)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/v1/node-groups", "").Code)
	assert.Empty(t, f.store.Groups.Fetch(context.Background()))
}

func TestLogoutClearsEverything(t *testing.T) {
	f := newFixture(t, Options{})
	f.store.Nodes.Save(context.Background(), []model.Node{{ID: "n1"}})
	f.do(t, http.MethodPost, "/v1/push", disconnected)

	rec := f.do(t, http.MethodPost, "/v1/logout", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, f.sessions.cleared)
	_, ok := f.store.Notifications.Delivered(context.Background())
	assert.False(t, ok)
	_, ok = f.store.Nodes.Fetch(context.Background())
	assert.False(t, ok)
}

func TestMe(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(t, http.MethodGet, "/v1/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode(t, rec)["username"])

	f.sessions.err = errors.New("keyring locked")
	assert.Equal(t, http.StatusInternalServerError, f.do(t, http.MethodGet, "/v1/me", "").Code)
}

func TestMeWithoutSessionStore(t *testing.T) {
	store := localstore.NewHandler(kvstore.NewMemory(), 0, logx.Nop())
	h := NewRouter(Deps{Notify: notify.NewService(store, nil, logx.Nop()), Store: store}, Options{}, logx.Nop())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAxis(t *testing.T) {
	f := newFixture(t, Options{})

	rec := f.do(t, http.MethodGet, "/v1/charts/axis?interval=hour", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "May 10, 2024", body["label"])
	assert.Len(t, body["x"].(map[string]any)["ticks"], 4)
	assert.Nil(t, body["y"])

	rec = f.do(t, http.MethodGet, "/v1/charts/axis?interval=day&start=1714953600&end=1715558399&min=0&max=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.NotNil(t, body["y"])

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/v1/charts/axis?interval=eon", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/v1/charts/axis?interval=day&tz=Nowhere/City", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/v1/charts/axis?interval=day&start=5&end=1", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/v1/charts/axis?interval=day&min=1e17&max=1e17", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/v1/charts/axis?interval=day&min=NaN&max=1", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/v1/charts/axis?interval=minute&start=0&end=1099511627776", "").Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, Options{})
	rec := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 2, body["supervisor"].(map[string]any)["active"])
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, Options{CORSOrigins: []string{"http://localhost:3000"}})
	req := httptest.NewRequest(http.MethodOptions, "/v1/notifications", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerApplyEnableDisable(t *testing.T) {
	store := localstore.NewHandler(kvstore.NewMemory(), 0, logx.Nop())
	s := NewServer(Deps{Notify: notify.NewService(store, nil, logx.Nop()), Store: store}, logx.Nop())
	t.Cleanup(func() { s.Stop(context.Background()) })

	ctx := context.Background()
	require.NoError(t, s.Apply(ctx, ServerConfig{Enabled: true, Addr: "127.0.0.1:0", Options: Options{Pprof: true}}))
	addr := s.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + addr + "/debug/pprof/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Apply(ctx, ServerConfig{Enabled: false}))
	assert.Empty(t, s.Addr())
}
