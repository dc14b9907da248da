package event

import (
	"context"
	"strings"
)

const unknownDevices = "device(s)"

// joinDevices renders "A", "A and B" or "A, B and C".
func joinDevices(names []string) string {
	switch len(names) {
	case 0:
		return unknownDevices
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

// devicesOf collects the device names of the given nodes, in node order.
func devicesOf(ctx context.Context, dir DeviceDirectory, nodeIDs []string) []string {
	if dir == nil || len(nodeIDs) == 0 {
		return nil
	}
	mapping, ok := dir.DeviceNames(ctx)
	if !ok {
		return nil
	}
	var out []string
	for _, id := range nodeIDs {
		out = append(out, mapping[id]...)
	}
	return out
}

// statusBody renders "<X> is <verb>." or "<X, Y> are <verb>.".
func statusBody(devices []string, singular, plural string) string {
	if len(devices) == 1 {
		return devices[0] + " " + singular + "."
	}
	return strings.Join(devices, ", ") + " " + plural + "."
}
