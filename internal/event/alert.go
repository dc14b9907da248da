package event

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"

	"rmnotify/internal/model"
)

const (
	alertStringKey   = "esp.alert.str"
	defaultAlertBody = "Alert received from a device."
)

// Alert carries a node-reported alert. MessageBody is itself a JSON document:
// either {"esp.alert.str": "..."} or {"<device>": {"<param>": value}}.
type Alert struct {
	NodeID      string
	MessageBody string
	hasMessage  bool
}

func (Alert) Kind() Kind { return KindAlert }

// Persist is false when MessageBody is present but not valid JSON: the alert
// is still shown with the default body, but not kept.
func (e Alert) Persist() bool { return !e.malformed() }

func (e Alert) malformed() bool {
	if !e.hasMessage {
		return false
	}
	_, err := Decode([]byte(e.MessageBody))
	return err != nil && !errors.Is(err, ErrNotObject)
}

func (e Alert) Body(ctx context.Context, dir DeviceDirectory, _ string) string {
	if !e.hasMessage {
		return defaultAlertBody
	}
	msg, err := Decode([]byte(e.MessageBody))
	if err != nil {
		return defaultAlertBody
	}
	if s, ok := msg[alertStringKey].(string); ok {
		return s
	}
	if e.NodeID == "" {
		return defaultAlertBody
	}

	var node *model.Node
	if dir != nil {
		if n, ok := dir.Node(ctx, e.NodeID); ok {
			node = &n
		}
	}
	if body := reportedParams(node, msg); body != "" {
		return body
	}
	return defaultAlertBody
}

// reportedParams renders "<device> reported <param>: <value>." for every
// param in msg, joined by spaces. Keys are visited in sorted order.
func reportedParams(node *model.Node, msg map[string]any) string {
	var parts []string
	for _, deviceKey := range sortedKeys(msg) {
		params, ok := msg[deviceKey].(map[string]any)
		if !ok {
			continue
		}
		var device *model.Device
		if node != nil {
			if d, ok := node.Device(deviceKey); ok {
				device = &d
			}
		}
		name := deviceKey
		if device != nil {
			name = device.DisplayName()
		}
		for _, paramKey := range sortedKeys(params) {
			dataType := ""
			if device != nil {
				if p, ok := device.Param(paramKey); ok {
					dataType = p.DataType
				}
			}
			value, ok := formatValue(params[paramKey], dataType)
			if !ok {
				continue
			}
			parts = append(parts, name+" reported "+paramKey+": "+value+".")
		}
	}
	return strings.Join(parts, " ")
}

// formatValue renders v by the param's declared data type, or by its runtime
// type when the type is unknown. ok is false when v does not fit the type.
func formatValue(v any, dataType string) (string, bool) {
	switch strings.ToLower(dataType) {
	case "int":
		return formatInt(v)
	case "bool":
		return formatBool(v)
	case "float":
		return formatFloat(v)
	case "string":
		s, ok := v.(string)
		return s, ok
	}
	if s, ok := formatInt(v); ok {
		return s, true
	}
	if s, ok := formatBool(v); ok {
		return s, true
	}
	if s, ok := formatFloat(v); ok {
		return s, true
	}
	s, ok := v.(string)
	return s, ok
}

func formatInt(v any) (string, bool) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
	}
	f, ok := number(v)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatInt(int64(f), 10), true
}

func formatBool(v any) (string, bool) {
	b, ok := v.(bool)
	if !ok {
		return "", false
	}
	return strconv.FormatBool(b), true
}

// formatFloat prints single precision with at least one decimal ("21.5", "20.0").
func formatFloat(v any) (string, bool) {
	f, ok := number(v)
	if !ok {
		return "", false
	}
	s := strconv.FormatFloat(f, 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
