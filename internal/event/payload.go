package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Payload keys.
const (
	keyAPS              = "aps"
	keyAlert            = "alert"
	keyTitle            = "title"
	keyBody             = "body"
	keyEventDataPayload = "event_data_payload"
	keyEventData        = "event_data"
	keyEventType        = "event_type"
	keyTimestamp        = "timestamp"
	keyNodeID           = "node_id"
	keyNodes            = "nodes"
	keyMessageBody      = "message_body"
	keyPrimaryUserName  = "primary_user_name"
	keySecondaryUser    = "secondary_user_name"
	keyMetadata         = "metadata"
	keyDevices          = "devices"
	keyName             = "name"
	keyAccept           = "accept"
	keyRequestID        = "request_id"
	keyNodeIDs          = "node_ids"
	keyData             = "data"
	keyParamPayload     = "payload"
)

var ErrNotObject = errors.New("push payload is not a JSON object")

// Decode parses a raw push payload. Numbers are kept as json.Number so
// integer and float params can be told apart later.
func Decode(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode push payload: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode push payload: trailing data")
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return m, nil
}

func object(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m[key].(map[string]any)
	return v, ok
}

func str(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m[key].(string)
	return v, ok
}

// strList returns the string elements of m[key]; ok is false when the value
// is not an array.
func strList(m map[string]any, key string) ([]string, bool) {
	if m == nil {
		return nil, false
	}
	arr, ok := m[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
