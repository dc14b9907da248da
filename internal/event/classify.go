package event

import (
	"context"
	"time"

	"rmnotify/internal/model"
)

// Classification is the outcome of a recognized event.
type Classification struct {
	Kind    Kind
	Event   Event
	Record  model.NotificationRecord
	Persist bool
	// Sharing is set for sharing requests.
	Sharing *model.SharingRequest
}

// envelope is the part of the payload shared by every event type.
type envelope struct {
	title     string
	body      string
	timestamp float64
	eventType string
	data      map[string]any
}

func parseEnvelope(payload map[string]any, now time.Time) envelope {
	env := envelope{timestamp: model.UnixSeconds(now), data: map[string]any{}}
	aps, _ := object(payload, keyAPS)
	alert, ok := object(aps, keyAlert)
	if !ok {
		return env
	}
	env.title, _ = str(alert, keyTitle)
	env.body, _ = str(alert, keyBody)

	edp, ok := object(alert, keyEventDataPayload)
	if !ok {
		return env
	}
	if data, ok := object(edp, keyEventData); ok {
		env.data = data
	}
	env.eventType, _ = str(edp, keyEventType)
	if ts, ok := number(edp[keyTimestamp]); ok {
		env.timestamp = ts
	}
	return env
}

// Parse decodes the event variant carried by payload. ok is false for
// unknown or missing event types.
func Parse(payload map[string]any) (Event, bool) {
	env := parseEnvelope(payload, time.Time{})
	return variant(env)
}

func variant(env envelope) (Event, bool) {
	data := env.data
	switch env.eventType {
	case TypeNodeAssociated:
		nodes, _ := strList(data, keyNodes)
		return NodeAssociated{Nodes: nodes}, true
	case TypeNodeDisassociated:
		nodes, _ := strList(data, keyNodes)
		return NodeDisassociated{Nodes: nodes}, true
	case TypeNodeConnected:
		id, _ := str(data, keyNodeID)
		return NodeConnected{NodeID: id}, true
	case TypeNodeDisconnected:
		id, _ := str(data, keyNodeID)
		return NodeDisconnected{NodeID: id}, true
	case TypeNodeSharingAdd:
		return sharingVariant(data), true
	case TypeAlert:
		id, _ := str(data, keyNodeID)
		msg, ok := str(data, keyMessageBody)
		return Alert{NodeID: id, MessageBody: msg, hasMessage: ok}, true
	}
	return nil, false
}

func sharingVariant(data map[string]any) Event {
	accept, decided := data[keyAccept].(bool)
	if !decided {
		user, _ := str(data, keyPrimaryUserName)
		id, _ := str(data, keyRequestID)
		nodes, _ := strList(data, keyNodeIDs)
		return SharingRequest{RequestID: id, PrimaryUser: user, NodeIDs: nodes, Devices: metadataDevices(data)}
	}
	user, hasUser := str(data, keySecondaryUser)
	nodes, hasNodes := strList(data, keyNodes)
	complete := hasUser && hasNodes
	if accept {
		return SharingAccepted{SecondaryUser: user, Nodes: nodes, complete: complete}
	}
	return SharingDeclined{SecondaryUser: user, Nodes: nodes, complete: complete}
}

func metadataDevices(data map[string]any) []string {
	md, ok := object(data, keyMetadata)
	if !ok {
		return nil
	}
	arr, ok := md[keyDevices].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range arr {
		d, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := d[keyName].(string); ok {
			out = append(out, name)
		}
	}
	return out
}

// Classify decodes payload and renders its notification record. dir may be
// nil, in which case no device names are resolved. now supplies the
// timestamp when the payload carries none.
func Classify(ctx context.Context, payload map[string]any, dir DeviceDirectory, now time.Time) (Classification, bool) {
	env := parseEnvelope(payload, now)
	ev, ok := variant(env)
	if !ok {
		return Classification{}, false
	}
	c := Classification{
		Kind:  ev.Kind(),
		Event: ev,
		Record: model.NotificationRecord{
			Title:     env.title,
			Body:      ev.Body(ctx, dir, env.body),
			Timestamp: env.timestamp,
		},
		Persist: ev.Persist(),
	}
	if sr, ok := ev.(SharingRequest); ok {
		req := sr.Request()
		c.Sharing = &req
	}
	return c, true
}
