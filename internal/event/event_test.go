package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmnotify/internal/model"
)

type fakeDirectory struct {
	nodes []model.Node
}

func (d fakeDirectory) DeviceNames(context.Context) (map[string][]string, bool) {
	if d.nodes == nil {
		return nil, false
	}
	out := map[string][]string{}
	for _, n := range d.nodes {
		out[n.ID] = n.DeviceNames()
	}
	return out, true
}

func (d fakeDirectory) Node(_ context.Context, id string) (model.Node, bool) {
	for _, n := range d.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return model.Node{}, false
}

var directory = fakeDirectory{nodes: []model.Node{
	{ID: "n1", Devices: []model.Device{{Name: "Light", DeviceName: "Lamp"}}},
	{ID: "n2", Devices: []model.Device{
		{Name: "Switch", Params: []model.Param{
			{Name: "Name", Type: model.ParamTypeName, Value: "Porch"},
			{Name: "Power", DataType: "bool"},
			{Name: "Level", DataType: "int"},
			{Name: "Temp", DataType: "float"},
		}},
		{Name: "Fan"},
	}},
}}

var now = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func push(eventType string, data map[string]any, ts any) map[string]any {
	edp := map[string]any{"event_data": data}
	if eventType != "" {
		edp["event_type"] = eventType
	}
	if ts != nil {
		edp["timestamp"] = ts
	}
	b, _ := json.Marshal(map[string]any{
		"aps": map[string]any{"alert": map[string]any{
			"title":              "RainMaker",
			"body":               "original body",
			"event_data_payload": edp,
		}},
	})
	m, err := Decode(b)
	if err != nil {
		panic(err)
	}
	return m
}

func classify(t *testing.T, payload map[string]any, dir DeviceDirectory) Classification {
	t.Helper()
	c, ok := Classify(context.Background(), payload, dir, now)
	require.True(t, ok)
	return c
}

func TestUnknownOrMissingEventType(t *testing.T) {
	_, ok := Classify(context.Background(), push("rmaker.event.something_else", nil, nil), directory, now)
	assert.False(t, ok)
	_, ok = Classify(context.Background(), push("", nil, nil), directory, now)
	assert.False(t, ok)
	_, ok = Classify(context.Background(), map[string]any{}, directory, now)
	assert.False(t, ok)
}

func TestEnvelopeFields(t *testing.T) {
	c := classify(t, push(TypeNodeConnected, map[string]any{"node_id": "n1"}, 1700000000.5), directory)
	assert.Equal(t, "RainMaker", c.Record.Title)
	assert.Equal(t, 1700000000.5, c.Record.Timestamp)

	c = classify(t, push(TypeNodeConnected, map[string]any{"node_id": "n1"}, nil), directory)
	assert.Equal(t, model.UnixSeconds(now), c.Record.Timestamp)
}

func TestNodeAssociated(t *testing.T) {
	c := classify(t, push(TypeNodeAssociated, map[string]any{"nodes": []string{"n1"}}, nil), directory)
	assert.Equal(t, KindNodeAssociated, c.Kind)
	assert.True(t, c.Persist)
	assert.Equal(t, "Lamp is added.", c.Record.Body)

	c = classify(t, push(TypeNodeAssociated, map[string]any{"nodes": []string{"n1", "n2"}}, nil), directory)
	assert.Equal(t, "New device(s) are added. Tap to view.", c.Record.Body)

	c = classify(t, push(TypeNodeAssociated, map[string]any{"nodes": []string{"unknown"}}, nil), directory)
	assert.Equal(t, "New device(s) are added. Tap to view.", c.Record.Body)

	c = classify(t, push(TypeNodeAssociated, map[string]any{"nodes": []string{"n1"}}, nil), nil)
	assert.Equal(t, "New device(s) are added. Tap to view.", c.Record.Body)
}

func TestNodeDisassociated(t *testing.T) {
	c := classify(t, push(TypeNodeDisassociated, map[string]any{"nodes": []string{"n2"}}, nil), directory)
	assert.Equal(t, KindNodeDisassociated, c.Kind)
	assert.Equal(t, "Porch, Fan are removed.", c.Record.Body)

	c = classify(t, push(TypeNodeDisassociated, map[string]any{}, nil), directory)
	assert.Equal(t, "Some device(s) were removed. Tap to view.", c.Record.Body)
}

func TestNodeConnectivity(t *testing.T) {
	c := classify(t, push(TypeNodeConnected, map[string]any{"node_id": "n1"}, nil), directory)
	assert.Equal(t, KindNodeConnected, c.Kind)
	assert.Equal(t, "Lamp is now online.", c.Record.Body)

	c = classify(t, push(TypeNodeDisconnected, map[string]any{"node_id": "n2"}, nil), directory)
	assert.Equal(t, KindNodeDisconnected, c.Kind)
	assert.Equal(t, "Porch, Fan are now offline.", c.Record.Body)

	c = classify(t, push(TypeNodeDisconnected, map[string]any{"node_id": "nx"}, nil), directory)
	assert.Equal(t, "Some device(s) went offline. Tap to view.", c.Record.Body)

	c = classify(t, push(TypeNodeConnected, map[string]any{}, nil), directory)
	assert.Equal(t, "Some device(s) are online. Tap to view.", c.Record.Body)
}

func TestSharingAddDispatchOnAccept(t *testing.T) {
	base := map[string]any{"secondary_user_name": "bob@x", "nodes": []string{"n1", "n2"}}

	accepted := map[string]any{"accept": true}
	declined := map[string]any{"accept": false}
	for k, v := range base {
		accepted[k] = v
		declined[k] = v
	}

	c := classify(t, push(TypeNodeSharingAdd, accepted, nil), directory)
	assert.Equal(t, KindSharingAccepted, c.Kind)
	assert.True(t, c.Persist)
	assert.Equal(t, "bob@x accepted sharing request for Lamp, Porch and Fan.", c.Record.Body)

	c = classify(t, push(TypeNodeSharingAdd, declined, nil), directory)
	assert.Equal(t, KindSharingDeclined, c.Kind)
	assert.True(t, c.Persist)
	assert.Equal(t, "bob@x declined sharing request for Lamp, Porch and Fan.", c.Record.Body)

	request := map[string]any{
		"primary_user_name": "alice@x",
		"request_id":        "req-1",
		"node_ids":          []string{"n1", "n3"},
		"metadata":          map[string]any{"devices": []map[string]string{{"name": "Lamp"}, {"name": "Fan"}}},
	}
	c = classify(t, push(TypeNodeSharingAdd, request, nil), directory)
	assert.Equal(t, KindSharingRequest, c.Kind)
	assert.False(t, c.Persist)
	assert.Equal(t, "alice@x wants to share Lamp and Fan with you. Tap to accept or decline.", c.Record.Body)
	require.NotNil(t, c.Sharing)
	assert.Equal(t, model.SharingRequest{
		RequestID:       "req-1",
		PrimaryUserName: "alice@x",
		NodeIDs:         []string{"n1", "n3"},
		DeviceNames:     []string{"Lamp", "Fan"},
	}, *c.Sharing)

	c = classify(t, push(TypeNodeSharingAdd, accepted, nil), directory)
	assert.Nil(t, c.Sharing)
}

func TestSharingFallbacks(t *testing.T) {
	c := classify(t, push(TypeNodeSharingAdd, map[string]any{"accept": true, "nodes": []string{"n1"}}, nil), directory)
	assert.Equal(t, "original body", c.Record.Body)

	c = classify(t, push(TypeNodeSharingAdd, map[string]any{"accept": false, "secondary_user_name": "bob", "nodes": []string{"zz"}}, nil), directory)
	assert.Equal(t, "bob declined sharing request for device(s).", c.Record.Body)

	c = classify(t, push(TypeNodeSharingAdd, map[string]any{"primary_user_name": "alice"}, nil), directory)
	assert.Equal(t, "alice wants to share device(s) with you. Tap to accept or decline.", c.Record.Body)

	c = classify(t, push(TypeNodeSharingAdd, map[string]any{}, nil), directory)
	assert.Equal(t, "original body", c.Record.Body)
}

func TestAlertBodies(t *testing.T) {
	alert := func(nodeID string, msg any) map[string]any {
		data := map[string]any{}
		if nodeID != "" {
			data["node_id"] = nodeID
		}
		if msg != nil {
			data["message_body"] = msg
		}
		return push(TypeAlert, data, nil)
	}

	c := classify(t, alert("n2", nil), directory)
	assert.Equal(t, KindAlert, c.Kind)
	assert.True(t, c.Persist)
	assert.Equal(t, "Alert received from a device.", c.Record.Body)

	c = classify(t, alert("", `{"esp.alert.str":"Smoke detected"}`), directory)
	assert.Equal(t, "Smoke detected", c.Record.Body)

	c = classify(t, alert("n2", `{not json`), directory)
	assert.Equal(t, "Alert received from a device.", c.Record.Body)
	assert.False(t, c.Persist, "unparseable message body is shown but not kept")

	c = classify(t, alert("n2", `42`), directory)
	assert.Equal(t, "Alert received from a device.", c.Record.Body)
	assert.True(t, c.Persist)

	c = classify(t, alert("", `{"Switch":{"Power":true}}`), directory)
	assert.Equal(t, "Alert received from a device.", c.Record.Body)

	c = classify(t, alert("n2", `{"Switch":{"Power":true,"Level":42,"Temp":21.5}}`), directory)
	assert.Equal(t, "Porch reported Level: 42. Porch reported Power: true. Porch reported Temp: 21.5.", c.Record.Body)

	c = classify(t, alert("n2", `{"Switch":{"Level":"high"}}`), directory)
	assert.Equal(t, "Alert received from a device.", c.Record.Body)

	c = classify(t, alert("unknown-node", `{"Heater":{"on":false,"watts":1500,"ratio":0.5,"mode":"eco"}}`), directory)
	assert.Equal(t, "Heater reported mode: eco. Heater reported on: false. Heater reported ratio: 0.5. Heater reported watts: 1500.", c.Record.Body)
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		v        any
		dataType string
		want     string
		ok       bool
	}{
		{json.Number("20"), "float", "20.0", true},
		{json.Number("20.25"), "FLOAT", "20.25", true},
		{json.Number("7"), "int", "7", true},
		{json.Number("7.5"), "int", "", false},
		{true, "int", "", false},
		{"on", "string", "on", true},
		{json.Number("3"), "string", "", false},
		{json.Number("3.0"), "", "3", true},
	}
	for _, tc := range cases {
		got, ok := formatValue(tc.v, tc.dataType)
		assert.Equal(t, tc.ok, ok, "%v/%s", tc.v, tc.dataType)
		assert.Equal(t, tc.want, got, "%v/%s", tc.v, tc.dataType)
	}
}

func TestJoinDevices(t *testing.T) {
	assert.Equal(t, "device(s)", joinDevices(nil))
	assert.Equal(t, "A", joinDevices([]string{"A"}))
	assert.Equal(t, "A and B", joinDevices([]string{"A", "B"}))
	assert.Equal(t, "A, B and C", joinDevices([]string{"A", "B", "C"}))
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	_, err := Decode([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrNotObject)
	_, err = Decode([]byte(`{"a":1}{"b":2}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`{`))
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	ev, ok := Parse(push(TypeNodeAssociated, map[string]any{"nodes": []string{"a", "b"}}, nil))
	require.True(t, ok)
	assert.Equal(t, NodeAssociated{Nodes: []string{"a", "b"}}, ev)
}

func TestParseParamUpdate(t *testing.T) {
	raw := `{"data":{"event_data_payload":{"event_data":{"node_id":"n2","payload":"{\"Switch\":{\"Power\":false},\"bad\":1}"}}}}`
	m, err := Decode([]byte(raw))
	require.NoError(t, err)
	up, ok := ParseParamUpdate(m)
	require.True(t, ok)
	assert.Equal(t, "n2", up.NodeID)
	assert.Equal(t, map[string]map[string]any{"Switch": {"Power": false}}, up.Values)

	_, ok = ParseParamUpdate(push(TypeAlert, nil, nil))
	assert.False(t, ok)
}
