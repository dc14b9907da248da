package localstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmnotify/internal/codec"
	"rmnotify/internal/kvstore"
	"rmnotify/internal/model"
	logx "rmnotify/pkg/logx"
)

func rec(title string, ts float64) model.NotificationRecord {
	return model.NotificationRecord{Title: title, Body: title + " body", Timestamp: ts}
}

func titles(recs []model.NotificationRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Title)
	}
	return out
}

func persisted(t *testing.T, kv kvstore.Store) []model.NotificationRecord {
	t.Helper()
	b, ok, err := kv.Get(context.Background(), KeyNotifications)
	require.NoError(t, err)
	require.True(t, ok)
	recs, err := codec.DecodeList[model.NotificationRecord](b)
	require.NoError(t, err)
	return recs
}

func TestDeliveredAbsentWhenEmpty(t *testing.T) {
	s := NewNotificationStore(kvstore.NewMemory(), 0, logx.Nop())
	recs, ok := s.Delivered(context.Background())
	assert.False(t, ok)
	assert.Nil(t, recs)
	assert.Equal(t, DefaultLimit, s.Limit())
}

func TestStoreRespectsLimit(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	s := NewNotificationStore(kv, 5, logx.Nop())
	for i := 0; i < 12; i++ {
		s.Store(ctx, rec(fmt.Sprintf("n%d", i), float64(i)))
	}
	recs, ok := s.Delivered(ctx)
	require.True(t, ok)
	assert.Len(t, recs, 5)
	assert.Equal(t, "n11", recs[0].Title)
	assert.Equal(t, []string{"n11", "n10", "n9", "n8", "n7"}, titles(persisted(t, kv)))
}

func TestLimitTwoKeepsNewestInserted(t *testing.T) {
	ctx := context.Background()
	s := NewNotificationStore(kvstore.NewMemory(), 2, logx.Nop())
	s.Store(ctx, rec("A", 10))
	s.Store(ctx, rec("B", 20))
	s.Store(ctx, rec("C", 30))

	recs, ok := s.Delivered(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"C", "B"}, titles(recs))
}

func TestDeliveredSortsByTimestampNotInsertion(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	s := NewNotificationStore(kv, 0, logx.Nop())
	s.Store(ctx, rec("late", 300))
	s.Store(ctx, rec("backdated", 100))
	s.Store(ctx, rec("middle", 200))

	assert.Equal(t, []string{"middle", "backdated", "late"}, titles(persisted(t, kv)))

	recs, ok := s.Delivered(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"late", "middle", "backdated"}, titles(recs))
}

func TestBackdatedRecordEvictsByInsertion(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	s := NewNotificationStore(kv, 2, logx.Nop())
	s.Store(ctx, rec("A", 30))
	s.Store(ctx, rec("B", 20))
	s.Store(ctx, rec("C", 10))

	// A has the highest timestamp but was inserted first, so it is evicted.
	recs, ok := s.Delivered(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"B", "C"}, titles(recs))
}

func TestEqualTimestampsKeepStoredOrder(t *testing.T) {
	ctx := context.Background()
	s := NewNotificationStore(kvstore.NewMemory(), 0, logx.Nop())
	s.Store(ctx, rec("first", 5))
	s.Store(ctx, rec("second", 5))
	recs, _ := s.Delivered(ctx)
	assert.Equal(t, []string{"second", "first"}, titles(recs))
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()
	s := NewNotificationStore(kvstore.NewMemory(), 0, logx.Nop())
	s.Store(ctx, rec("x", 1))
	s.Cleanup(ctx)
	_, ok := s.Delivered(ctx)
	assert.False(t, ok)

	s.Store(ctx, rec("y", 2))
	recs, ok := s.Delivered(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"y"}, titles(recs))
}

func TestCorruptHistoryIsReplaced(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	require.NoError(t, kv.Put(ctx, KeyNotifications, []byte(`{not json`)))
	s := NewNotificationStore(kv, 0, logx.Nop())

	_, ok := s.Delivered(ctx)
	assert.False(t, ok)

	s.Store(ctx, rec("fresh", 1))
	recs, ok := s.Delivered(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"fresh"}, titles(recs))
}

func TestSetLimitAppliesOnNextStore(t *testing.T) {
	ctx := context.Background()
	s := NewNotificationStore(kvstore.NewMemory(), 10, logx.Nop())
	for i := 0; i < 6; i++ {
		s.Store(ctx, rec(fmt.Sprintf("n%d", i), float64(i)))
	}
	s.SetLimit(3)
	recs, _ := s.Delivered(ctx)
	assert.Len(t, recs, 6)

	s.Store(ctx, rec("n6", 6))
	recs, _ = s.Delivered(ctx)
	assert.Equal(t, []string{"n6", "n5", "n4"}, titles(recs))

	s.SetLimit(-1)
	assert.Equal(t, DefaultLimit, s.Limit())
}

func TestStoreWithoutBackendDoesNotPanic(t *testing.T) {
	s := NewNotificationStore(nil, 0, logx.Nop())
	s.Store(context.Background(), rec("x", 1))
	_, ok := s.Delivered(context.Background())
	assert.False(t, ok)
}

func sampleNodes() []model.Node {
	return []model.Node{
		{ID: "n1", Devices: []model.Device{
			{Name: "Switch", Params: []model.Param{{Name: "Name", Type: model.ParamTypeName, Value: "Porch"}}},
			{Name: "Light"},
		}},
		{ID: "n2", Devices: []model.Device{{Name: "Fan", DeviceName: "Ceiling fan"}}},
	}
}

func TestNodeStore(t *testing.T) {
	ctx := context.Background()
	s := NewNodeStore(kvstore.NewMemory(), logx.Nop())

	_, ok := s.Fetch(ctx)
	assert.False(t, ok)

	s.Save(ctx, sampleNodes())
	nodes, ok := s.Fetch(ctx)
	require.True(t, ok)
	assert.Len(t, nodes, 2)

	n, ok := s.Node(ctx, "n2")
	require.True(t, ok)
	assert.Equal(t, "Fan", n.Devices[0].Name)
	_, ok = s.Node(ctx, "missing")
	assert.False(t, ok)

	names, ok := s.DeviceNames(ctx)
	require.True(t, ok)
	assert.Equal(t, map[string][]string{"n1": {"Porch", "Light"}, "n2": {"Ceiling fan"}}, names)

	s.Save(ctx, nil)
	_, ok = s.Fetch(ctx)
	assert.True(t, ok)

	s.Cleanup(ctx)
	_, ok = s.Fetch(ctx)
	assert.False(t, ok)
}

func TestNodeGroupStoreFetchNeverAbsent(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	s := NewNodeGroupStore(kv, logx.Nop())
	assert.Empty(t, s.Fetch(ctx))

	s.Save(ctx, []model.NodeGroup{{GroupName: "Living room", GroupID: "g1", Nodes: []string{"n1"}}})
	groups := s.Fetch(ctx)
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0].GroupID)

	require.NoError(t, kv.Put(ctx, KeyNodeGroups, []byte(`garbage`)))
	assert.NotNil(t, s.Fetch(ctx))
	assert.Empty(t, s.Fetch(ctx))
}

func TestHandlerCleanupAll(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	h := NewHandler(kv, 0, logx.Nop())
	h.Nodes.Save(ctx, sampleNodes())
	h.Groups.Save(ctx, []model.NodeGroup{{GroupID: "g"}})
	h.Notifications.Store(ctx, rec("x", 1))

	h.CleanupAll(ctx)
	for _, key := range []string{KeyNodeDetails, KeyNodeGroups, KeyNotifications} {
		_, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}

func TestSharedSuiteAcrossFileInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	open := func() kvstore.Store {
		kv, err := kvstore.Open(kvstore.Config{Driver: "file", Path: dir, Suite: "group.test"}, logx.Nop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = kv.Close() })
		return kv
	}
	agent := NewNotificationStore(open(), 0, logx.Nop())
	cli := NewNotificationStore(open(), 0, logx.Nop())

	agent.Store(ctx, rec("from agent", 1))
	recs, ok := cli.Delivered(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"from agent"}, titles(recs))

	cli.Cleanup(ctx)
	_, ok = agent.Delivered(ctx)
	assert.False(t, ok)
}

func TestNodeStoreApplyParams(t *testing.T) {
	ctx := context.Background()
	s := NewNodeStore(kvstore.NewMemory(), logx.Nop())
	assert.Zero(t, s.ApplyParams(ctx, "n1", map[string]map[string]any{"Switch": {"Name": "x"}}))

	s.Save(ctx, sampleNodes())
	n := s.ApplyParams(ctx, "n1", map[string]map[string]any{
		"Switch": {"Name": "Garden", "Missing": 1},
		"Ghost":  {"Power": true},
	})
	assert.Equal(t, 1, n)

	names, ok := s.DeviceNames(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"Garden", "Light"}, names["n1"])
}
