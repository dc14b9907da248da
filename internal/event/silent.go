package event

// ParamUpdate is a data-only push reporting new param values for one node.
// Values maps device name to param name to value.
type ParamUpdate struct {
	NodeID string
	Values map[string]map[string]any
}

// ParseParamUpdate extracts data.event_data_payload.event_data from a silent
// push. The param document travels as a JSON string under "payload".
func ParseParamUpdate(payload map[string]any) (ParamUpdate, bool) {
	data, ok := object(payload, keyData)
	if !ok {
		return ParamUpdate{}, false
	}
	edp, ok := object(data, keyEventDataPayload)
	if !ok {
		return ParamUpdate{}, false
	}
	ed, ok := object(edp, keyEventData)
	if !ok {
		return ParamUpdate{}, false
	}
	nodeID, ok := str(ed, keyNodeID)
	if !ok || nodeID == "" {
		return ParamUpdate{}, false
	}
	raw, ok := str(ed, keyParamPayload)
	if !ok {
		return ParamUpdate{}, false
	}
	doc, err := Decode([]byte(raw))
	if err != nil {
		return ParamUpdate{}, false
	}

	up := ParamUpdate{NodeID: nodeID, Values: map[string]map[string]any{}}
	for device, v := range doc {
		params, ok := v.(map[string]any)
		if !ok {
			continue
		}
		up.Values[device] = params
	}
	return up, len(up.Values) > 0
}
